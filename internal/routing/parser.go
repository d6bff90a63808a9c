package routing

import "time"

// RoleServers is one role's address list, as returned by the routing
// oracle's "servers" field.
type RoleServers struct {
	Role      string
	Addresses []string
}

// Record is one row of the oracle's reply: a ttl (seconds) and the servers
// grouped by role. This is the boundary type between the wire/record-decode
// layer (out of scope for this package) and the routing core.
type Record struct {
	TTLSeconds int64
	Servers    []RoleServers
}

const (
	roleRoute = "ROUTE"
	roleRead  = "READ"
	roleWrite = "WRITE"
)

// DefaultPort is used when an oracle-provided address omits a port.
const DefaultPort = 7687

// ParseRoutingInfo parses the oracle's reply into a RoutingTable. Fails with
// RoutingProtocolError if records doesn't contain exactly one record, or if
// one of that record's addresses cannot be parsed; the TTL and the shape of
// the servers list are taken as given. Unknown roles are silently
// ignored for forward compatibility. An address repeated within a role is
// kept only once in that role's set, but may legitimately appear in more
// than one role's set.
func ParseRoutingInfo(records []Record) (*RoutingTable, error) {
	if len(records) != 1 {
		return nil, newRoutingProtocolError("expected exactly one routing record, got %d", len(records))
	}
	record := records[0]

	routers := NewOrderedAddressSet()
	readers := NewOrderedAddressSet()
	writers := NewOrderedAddressSet()

	for _, rs := range record.Servers {
		var set *OrderedAddressSet
		switch rs.Role {
		case roleRoute:
			set = routers
		case roleRead:
			set = readers
		case roleWrite:
			set = writers
		default:
			continue
		}
		for _, raw := range rs.Addresses {
			addr, err := ParseAddress(raw, DefaultPort)
			if err != nil {
				return nil, newRoutingProtocolError("cannot parse routing info: %v", err)
			}
			set.Add(addr)
		}
	}

	table := &RoutingTable{
		Routers: routers,
		Readers: readers,
		Writers: writers,
		TTL:     time.Duration(record.TTLSeconds) * time.Second,
		now:     time.Now,
	}
	table.LastUpdated = table.now()
	return table, nil
}
