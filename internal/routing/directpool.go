package routing

import "context"

// Connection is a live connection handed back by DirectPool.AcquireDirect.
// The routing core treats it opaquely; it only needs to know which address
// it's bound to so it can be returned to LoadBalancer bookkeeping and error
// handling.
type Connection interface {
	Addr() Address
}

// DirectPool is the external, address-based connection pool this package
// consumes opaquely (spec out of scope: acquire/release/deactivate/idle
// count, wire protocol, TLS/auth/timeout configuration). Implemented by
// internal/connpool.
type DirectPool interface {
	ConnectionCounter

	// AcquireDirect obtains a connection to addr. Implementations return
	// *ServiceUnavailable when addr cannot be reached.
	AcquireDirect(ctx context.Context, addr Address) (Connection, error)

	// Deactivate removes addr from the pool's live set and closes any idle
	// connections to it.
	Deactivate(addr Address)

	// Addresses returns the pool's currently known addresses.
	Addresses() []Address

	// TagExpired marks conn as handed out through the routing path. The
	// internal/connpool implementation records the mark (Conn.Expired) and
	// closes a marked connection on release instead of reusing it; it does
	// not turn later transport failures on conn into *ConnectionExpired.
	TagExpired(conn Connection)
}
