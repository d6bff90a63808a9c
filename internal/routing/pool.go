package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/CyberGRX/neobolt/internal/metrics"
)

// RoutingPool is the orchestrator described in spec.md §4.5: it owns the
// RoutingTable, drives refresh against a rotating set of router candidates,
// enforces single-flight refresh via refreshMu, serves Acquire(mode), and
// maps observed errors to cache invalidation.
type RoutingPool struct {
	direct DirectPool
	oracle Oracle
	lb     *LoadBalancer
	log    logr.Logger

	initialAddress Address
	routingContext map[string]string

	// refreshMu serialises refresh operations (the single-flight
	// mechanism). table and missingWriter are mutated only while holding
	// it; freshness reads are lock-free.
	refreshMu     sync.Mutex
	table         *RoutingTable
	missingWriter bool
}

// NewRoutingPool builds a RoutingPool seeded with initialAddress as the
// bootstrap router. direct is the external per-address connection pool;
// oracle runs the routing procedure over connections that pool hands out.
func NewRoutingPool(direct DirectPool, oracle Oracle, initialAddress Address, routingContext map[string]string, log logr.Logger) *RoutingPool {
	p := &RoutingPool{
		direct:         direct,
		oracle:         oracle,
		initialAddress: initialAddress,
		routingContext: routingContext,
		table:          NewRoutingTable(initialAddress),
		log:            log,
	}
	p.lb = NewLoadBalancer(direct)
	return p
}

// Table returns the current routing table snapshot. Exposed for
// diagnostics/metrics; callers must not mutate it.
func (p *RoutingPool) Table() *RoutingTable {
	return p.table
}

// Acquire returns a live connection suitable for mode, refreshing the
// routing table first if it's stale for mode. Fails with *ConnectionExpired
// if no server in the role set could be contacted.
func (p *RoutingPool) Acquire(ctx context.Context, mode Mode) (Connection, error) {
	if mode != ReadMode && mode != WriteMode {
		return nil, fmt.Errorf("routing: unsupported access mode %v", mode)
	}

	if _, err := p.ensureFresh(ctx, mode); err != nil {
		return nil, err
	}

	var selector func(*OrderedAddressSet) (Address, bool)
	if mode == ReadMode {
		selector = p.lb.SelectReader
	} else {
		selector = p.lb.SelectWriter
	}

	for {
		addr, ok := selector(p.table.roleSet(mode))
		if !ok {
			break
		}
		conn, err := p.direct.AcquireDirect(ctx, addr)
		if err != nil {
			if _, ok := err.(*ServiceUnavailable); ok {
				p.Deactivate(addr)
				continue
			}
			return nil, err
		}
		p.direct.TagExpired(conn)
		return conn, nil
	}

	return nil, newConnectionExpired("failed to obtain connection towards %s server", mode)
}

// ensureFresh implements the double-checked-freshness refresh protocol from
// spec.md §4.5. It returns true if a refresh actually ran.
func (p *RoutingPool) ensureFresh(ctx context.Context, mode Mode) (bool, error) {
	if p.table.IsFresh(mode) {
		return false, nil
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	if p.table.IsFresh(mode) {
		if mode == ReadMode && !p.table.IsFresh(WriteMode) {
			p.missingWriter = true
		}
		return false, nil
	}

	start := time.Now()
	err := p.updateRoutingTable(ctx)
	outcome := "ok"
	if err != nil {
		outcome = refreshOutcomeLabel(err)
	}
	metrics.RoutingRefreshTotal.WithLabelValues(outcome).Inc()
	metrics.RoutingRefreshDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return false, err
	}
	p.updateConnectionPool()
	return true, nil
}

// refreshOutcomeLabel classifies a refresh error for RoutingRefreshTotal/
// RoutingRefreshDuration's "outcome" label.
func refreshOutcomeLabel(err error) string {
	switch err.(type) {
	case *ServiceUnavailable:
		return "service_unavailable"
	case *RoutingProtocolError:
		return "protocol_error"
	default:
		return "error"
	}
}

// updateRoutingTable implements the router-candidate ordering from
// spec.md §4.5: try the initial address first if missingWriter, then each
// existing router in order, then the initial address again if it wasn't
// already tried.
func (p *RoutingPool) updateRoutingTable(ctx context.Context) error {
	existing := p.table.Routers.Slice()

	triedInitial := false
	if p.missingWriter {
		triedInitial = true
		if p.updateRoutingTableFrom(ctx, p.initialAddress) {
			return nil
		}
	}

	if p.updateRoutingTableFrom(ctx, existing...) {
		return nil
	}

	if !triedInitial && !containsAddress(existing, p.initialAddress) {
		if p.updateRoutingTableFrom(ctx, p.initialAddress) {
			return nil
		}
	}

	return newServiceUnavailable("unable to retrieve routing information")
}

func containsAddress(addrs []Address, target Address) bool {
	for _, a := range addrs {
		if a == target {
			return true
		}
	}
	return false
}

// updateRoutingTableFrom tries each router in turn, applying the first
// successful fetch. Reports whether the table was updated.
func (p *RoutingPool) updateRoutingTableFrom(ctx context.Context, routers ...Address) bool {
	for _, r := range routers {
		candidate, err := p.fetchRoutingTable(ctx, r)
		if err != nil {
			p.log.V(1).Info("router returned unusable routing info", "router", r.String(), "error", err.Error())
			continue
		}
		if candidate == nil {
			continue
		}
		p.table.Update(candidate)
		return true
	}
	return false
}

// fetchRoutingTable implements spec.md §4.5 "Fetching one routing table"
// for a single router address. Called with refreshMu already held (via
// ensureFresh -> updateRoutingTable), so it must use the lock-held variant
// of Deactivate rather than the exported one.
func (p *RoutingPool) fetchRoutingTable(ctx context.Context, router Address) (*RoutingTable, error) {
	conn, err := p.direct.AcquireDirect(ctx, router)
	if err != nil {
		if _, ok := err.(*ServiceUnavailable); ok {
			p.deactivateLocked(router)
			return nil, nil
		}
		return nil, err
	}

	records, err := p.oracle.RunRoutingProcedure(ctx, conn, p.routingContext)
	if err != nil {
		if protoErr, ok := err.(*RoutingProtocolError); ok {
			return nil, newServiceUnavailable("%s", protoErr.Error())
		}
		return nil, err
	}

	candidate, err := ParseRoutingInfo(records)
	if err != nil {
		return nil, err
	}

	p.missingWriter = candidate.Writers.Len() == 0

	if candidate.Routers.Len() == 0 {
		return nil, newRoutingProtocolError("no routing servers returned from %s", router.String())
	}
	if candidate.Readers.Len() == 0 {
		return nil, newRoutingProtocolError("no read servers returned from %s", router.String())
	}

	return candidate, nil
}

// updateConnectionPool deactivates any address the direct pool still knows
// about that fell out of the refreshed table, bounding the physical
// connection footprint to the current topology.
func (p *RoutingPool) updateConnectionPool() {
	servers := p.table.Servers()
	for _, addr := range p.direct.Addresses() {
		if _, ok := servers[addr]; !ok {
			p.direct.Deactivate(addr)
		}
	}
}

// Deactivate removes addr from all three role sets and asks the direct
// pool to drop it. Idempotent. Takes refreshMu: the role sets' backing
// OrderedAddressSets are plain maps with no locking of their own, and a
// refresh in another goroutine mutates them (via RoutingTable.Update) while
// holding the same lock, so any unlocked caller here would race it.
func (p *RoutingPool) Deactivate(addr Address) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()
	p.deactivateLocked(addr)
}

// deactivateLocked is Deactivate's body for callers that already hold
// refreshMu (fetchRoutingTable, reached from ensureFresh).
func (p *RoutingPool) deactivateLocked(addr Address) {
	p.table.Routers.Discard(addr)
	p.table.Readers.Discard(addr)
	p.table.Writers.Discard(addr)
	p.direct.Deactivate(addr)
}

// RemoveWriter removes addr from the writer set only; routers and readers
// are unchanged. Takes refreshMu for the same reason Deactivate does.
func (p *RoutingPool) RemoveWriter(addr Address) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()
	p.table.Writers.Discard(addr)
}

// Handle maps an error observed on a pooled connection to either
// Deactivate or RemoveWriter, per spec.md §7.
func (p *RoutingPool) Handle(err error, conn Connection) {
	switch err.(type) {
	case *ConnectionExpired, *ServiceUnavailable, *DatabaseUnavailableError:
		p.Deactivate(conn.Addr())
	case *NotALeaderError, *ForbiddenOnReadOnlyDatabaseError:
		p.RemoveWriter(conn.Addr())
	}
}
