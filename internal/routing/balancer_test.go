package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCounter struct {
	counts map[Address]int
}

func (f *fakeCounter) InUseConnectionCount(a Address) int { return f.counts[a] }

func TestLoadBalancer_SelectReturnsNoneWhenEmpty(t *testing.T) {
	lb := NewLoadBalancer(&fakeCounter{})
	_, ok := lb.SelectReader(NewOrderedAddressSet())
	assert.False(t, ok)
}

func TestLoadBalancer_PicksLeastConnected(t *testing.T) {
	counter := &fakeCounter{counts: map[Address]int{
		addr(1): 5,
		addr(2): 1,
		addr(3): 3,
	}}
	lb := NewLoadBalancer(counter)
	set := NewOrderedAddressSet(addr(1), addr(2), addr(3))

	picked, ok := lb.SelectReader(set)
	assert.True(t, ok)
	assert.Equal(t, addr(2), picked)
}

func TestLoadBalancer_TiesGoToEarliestSeenInTheWalk(t *testing.T) {
	counter := &fakeCounter{counts: map[Address]int{
		addr(1): 0,
		addr(2): 0,
		addr(3): 0,
	}}
	lb := NewLoadBalancer(counter)
	set := NewOrderedAddressSet(addr(1), addr(2), addr(3))

	// offset starts at 0, so the walk starts at addr(1); all tie, so the
	// first one encountered (addr(1)) wins.
	picked, _ := lb.SelectReader(set)
	assert.Equal(t, addr(1), picked)

	// offset is now 1, so the next walk starts at addr(2) and it wins the
	// tie this time.
	picked, _ = lb.SelectReader(set)
	assert.Equal(t, addr(2), picked)
}

func TestLoadBalancer_OffsetAdvancesEvenWhenSetIsEmpty(t *testing.T) {
	lb := NewLoadBalancer(&fakeCounter{})
	_, ok := lb.SelectWriter(NewOrderedAddressSet())
	assert.False(t, ok)
	assert.Equal(t, uint64(1), lb.writersOffset)
}

func TestLoadBalancer_ReaderAndWriterOffsetsAreIndependent(t *testing.T) {
	counter := &fakeCounter{counts: map[Address]int{addr(1): 0, addr(2): 0}}
	lb := NewLoadBalancer(counter)
	set := NewOrderedAddressSet(addr(1), addr(2))

	lb.SelectReader(set)
	lb.SelectReader(set)
	assert.Equal(t, uint64(2), lb.readersOffset)
	assert.Equal(t, uint64(0), lb.writersOffset)
}
