package routing

import (
	"fmt"
	"net"
	"strconv"
)

// Address is a (host, port) pair. Equality is structural, so Address values
// can be used directly as map keys.
type Address struct {
	Host string
	Port int
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ParseAddress parses "host[:port]" into an Address, falling back to
// defaultPort when no port is given.
func ParseAddress(s string, defaultPort int) (Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// net.SplitHostPort fails when there's no colon at all; treat the
		// whole string as a bare host and use the default port.
		if addrErr, ok := err.(*net.AddrError); ok && addrErr.Err == "missing port in address" {
			return Address{Host: s, Port: defaultPort}, nil
		}
		return Address{}, fmt.Errorf("routing: cannot parse address %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("routing: invalid port in address %q: %w", s, err)
	}
	return Address{Host: host, Port: port}, nil
}
