package routing

import "math"

// ConnectionCounter reports how many connections are currently checked out
// to a given address. The load balancer consults it to break ties toward
// the least-loaded server.
type ConnectionCounter interface {
	InUseConnectionCount(addr Address) int
}

// LoadBalancer picks a reader or writer from a role set using
// least-in-use-connections with round-robin tie-break. It holds two
// monotonically increasing offsets, one per role, which are deliberately
// unsynchronized: small off-by-ones under contention don't affect the
// correctness of selection, only which address wins a tie.
type LoadBalancer struct {
	counter ConnectionCounter

	readersOffset uint64
	writersOffset uint64
}

// NewLoadBalancer builds a LoadBalancer that consults counter for in-use
// connection counts.
func NewLoadBalancer(counter ConnectionCounter) *LoadBalancer {
	return &LoadBalancer{counter: counter}
}

// SelectReader picks an address from readers, or reports ok=false if
// readers is empty.
func (b *LoadBalancer) SelectReader(readers *OrderedAddressSet) (addr Address, ok bool) {
	addr, ok = b.selectFrom(readers, b.readersOffset)
	b.readersOffset++
	return addr, ok
}

// SelectWriter picks an address from writers, or reports ok=false if
// writers is empty.
func (b *LoadBalancer) SelectWriter(writers *OrderedAddressSet) (addr Address, ok bool) {
	addr, ok = b.selectFrom(writers, b.writersOffset)
	b.writersOffset++
	return addr, ok
}

func (b *LoadBalancer) selectFrom(addrs *OrderedAddressSet, offset uint64) (Address, bool) {
	n := addrs.Len()
	if n == 0 {
		return Address{}, false
	}

	start := int(offset % uint64(n))
	i := start

	var best Address
	bestCount := math.MaxInt

	for {
		candidate := addrs.At(i)
		count := b.counter.InUseConnectionCount(candidate)
		if count < bestCount {
			best = candidate
			bestCount = count
		}
		i = (i + 1) % n
		if i == start {
			break
		}
	}

	return best, true
}
