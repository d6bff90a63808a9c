package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(port int) Address { return Address{Host: "127.0.0.1", Port: port} }

func TestOrderedAddressSet_AddIsIdempotentAndOrdered(t *testing.T) {
	s := NewOrderedAddressSet()
	s.Add(addr(9001))
	s.Add(addr(9002))
	s.Add(addr(9001))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Address{addr(9001), addr(9002)}, s.Slice())
}

func TestOrderedAddressSet_DiscardIsSilentWhenAbsent(t *testing.T) {
	s := NewOrderedAddressSet(addr(9001))
	s.Discard(addr(9999))
	assert.Equal(t, 1, s.Len())
}

func TestOrderedAddressSet_RemoveFailsWhenAbsent(t *testing.T) {
	s := NewOrderedAddressSet(addr(9001))
	err := s.Remove(addr(9999))
	require.ErrorIs(t, err, ErrAddressNotFound)
}

func TestOrderedAddressSet_ReplaceIsAtomic(t *testing.T) {
	s := NewOrderedAddressSet(addr(1), addr(2))
	s.Replace([]Address{addr(3), addr(4), addr(3)})
	assert.Equal(t, []Address{addr(3), addr(4)}, s.Slice())
}

func TestOrderedAddressSet_AtFollowsInsertionOrder(t *testing.T) {
	s := NewOrderedAddressSet(addr(1), addr(2), addr(3))
	assert.Equal(t, addr(2), s.At(1))
}

func TestParseAddress_DefaultsPortWhenAbsent(t *testing.T) {
	a, err := ParseAddress("127.0.0.1", 7687)
	require.NoError(t, err)
	assert.Equal(t, Address{Host: "127.0.0.1", Port: 7687}, a)
}

func TestParseAddress_UsesGivenPort(t *testing.T) {
	a, err := ParseAddress("127.0.0.1:9001", 7687)
	require.NoError(t, err)
	assert.Equal(t, Address{Host: "127.0.0.1", Port: 9001}, a)
}
