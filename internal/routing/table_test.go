package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingTable_InitiallyStale(t *testing.T) {
	table := NewRoutingTable()
	assert.False(t, table.IsFresh(ReadMode))
	assert.False(t, table.IsFresh(WriteMode))
}

// S4 — freshness transitions.
func TestRoutingTable_FreshnessTransitions(t *testing.T) {
	fresh, err := ParseRoutingInfo([]Record{validRecord()})
	require.NoError(t, err)
	fresh.now = func() time.Time { return fresh.LastUpdated }

	t.Run("ttl zero is stale for both", func(t *testing.T) {
		stale := *fresh
		stale.TTL = 0
		assert.False(t, stale.IsFresh(ReadMode))
		assert.False(t, stale.IsFresh(WriteMode))
	})

	t.Run("no readers is stale for read, fresh for write", func(t *testing.T) {
		noReaders := *fresh
		noReaders.Readers = NewOrderedAddressSet()
		assert.False(t, noReaders.IsFresh(ReadMode))
		assert.True(t, noReaders.IsFresh(WriteMode))
	})

	t.Run("no writers is fresh for read, stale for write", func(t *testing.T) {
		noWriters := *fresh
		noWriters.Writers = NewOrderedAddressSet()
		assert.True(t, noWriters.IsFresh(ReadMode))
		assert.False(t, noWriters.IsFresh(WriteMode))
	})
}

// S5 — update replaces wholesale and resets the timestamp from the
// receiver's own clock.
func TestRoutingTable_UpdateReplacesWholesale(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	table := &RoutingTable{
		Routers: NewOrderedAddressSet(Address{"192.168.1.1", 7687}, Address{"192.168.1.2", 7687}),
		Readers: NewOrderedAddressSet(Address{"192.168.1.3", 7687}),
		Writers: NewOrderedAddressSet(),
		TTL:     0,
		now:     func() time.Time { return fixedNow },
	}

	other, err := ParseRoutingInfo([]Record{validRecord()})
	require.NoError(t, err)

	table.Update(other)

	assert.Equal(t, other.Routers.Slice(), table.Routers.Slice())
	assert.Equal(t, other.Readers.Slice(), table.Readers.Slice())
	assert.Equal(t, other.Writers.Slice(), table.Writers.Slice())
	assert.Equal(t, 300*time.Second, table.TTL)
	assert.Equal(t, fixedNow, table.LastUpdated)
}

func TestRoutingTable_UpdateIsIdempotent(t *testing.T) {
	other, err := ParseRoutingInfo([]Record{validRecord()})
	require.NoError(t, err)
	table := NewRoutingTable()

	table.Update(other)
	first := table.Routers.Slice()
	table.Update(other)
	second := table.Routers.Slice()

	assert.Equal(t, first, second)
}
