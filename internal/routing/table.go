package routing

import "time"

// Mode selects whether a server must accept reads or writes.
type Mode int

const (
	WriteMode Mode = iota
	ReadMode
)

func (m Mode) String() string {
	if m == ReadMode {
		return "READ"
	}
	return "WRITE"
}

// RoutingTable is the cached {routers, readers, writers, ttl, last_updated}
// snapshot. There is exactly one per RoutingPool; mutation is only safe
// while holding the pool's refresh lock (see RoutingPool).
type RoutingTable struct {
	Routers *OrderedAddressSet
	Readers *OrderedAddressSet
	Writers *OrderedAddressSet

	// TTL is how long, from LastUpdated, this snapshot stays fresh.
	TTL time.Duration

	LastUpdated time.Time

	// now is injected so freshness tests don't need to sleep; defaults to
	// time.Now via NewRoutingTable.
	now func() time.Time
}

// NewRoutingTable builds the initial stale table: empty role sets, ttl=0,
// optionally seeded with bootstrap routers.
func NewRoutingTable(seedRouters ...Address) *RoutingTable {
	return &RoutingTable{
		Routers: NewOrderedAddressSet(seedRouters...),
		Readers: NewOrderedAddressSet(),
		Writers: NewOrderedAddressSet(),
		TTL:     0,
		now:     time.Now,
	}
}

// IsFresh reports whether the table may be used to serve mode without a
// refresh: within TTL, routers non-empty, and the role set for mode
// non-empty.
func (t *RoutingTable) IsFresh(mode Mode) bool {
	if t.LastUpdated.Add(t.TTL).Before(t.now()) || t.LastUpdated.Add(t.TTL).Equal(t.now()) {
		return false
	}
	if t.Routers.Len() == 0 {
		return false
	}
	if mode == ReadMode {
		return t.Readers.Len() > 0
	}
	return t.Writers.Len() > 0
}

// Update wholesale-replaces each role set from other and resets the
// timestamp from the receiver's own clock, not the oracle's — this avoids
// clock-skew issues and makes ttl a local expiry from the moment this
// snapshot was observed.
func (t *RoutingTable) Update(other *RoutingTable) {
	t.Routers.Replace(other.Routers.Slice())
	t.Readers.Replace(other.Readers.Slice())
	t.Writers.Replace(other.Writers.Slice())
	t.TTL = other.TTL
	t.LastUpdated = t.now()
}

// Servers returns the union of routers, readers, and writers.
func (t *RoutingTable) Servers() map[Address]struct{} {
	out := make(map[Address]struct{}, t.Routers.Len()+t.Readers.Len()+t.Writers.Len())
	for _, a := range t.Routers.Slice() {
		out[a] = struct{}{}
	}
	for _, a := range t.Readers.Slice() {
		out[a] = struct{}{}
	}
	for _, a := range t.Writers.Slice() {
		out[a] = struct{}{}
	}
	return out
}

// roleSet returns the role set that backs mode, for callers (the load
// balancer) that need direct access.
func (t *RoutingTable) roleSet(mode Mode) *OrderedAddressSet {
	if mode == ReadMode {
		return t.Readers
	}
	return t.Writers
}
