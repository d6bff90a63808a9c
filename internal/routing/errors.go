package routing

import (
	"errors"
	"fmt"
)

// ErrAddressNotFound is returned by OrderedAddressSet.Remove when the
// address being removed isn't a member of the set.
var ErrAddressNotFound = errors.New("routing: address not found")

// RoutingProtocolError means the oracle returned a malformed, empty, or
// otherwise unusable routing reply. The router that produced it is treated
// as broken for this attempt, but is not deactivated — it may simply be
// mid-election.
type RoutingProtocolError struct {
	Message string
}

func (e *RoutingProtocolError) Error() string { return e.Message }

func newRoutingProtocolError(format string, args ...any) *RoutingProtocolError {
	return &RoutingProtocolError{Message: fmt.Sprintf(format, args...)}
}

// ServiceUnavailable means an address could not be reached at all, either
// while fetching routing info or while acquiring a direct connection for
// actual work.
type ServiceUnavailable struct {
	Message string
}

func (e *ServiceUnavailable) Error() string { return e.Message }

func newServiceUnavailable(format string, args ...any) *ServiceUnavailable {
	return &ServiceUnavailable{Message: fmt.Sprintf(format, args...)}
}

// ConnectionExpired means a previously routed connection's server has gone
// away, or that no address could be found at all for the requested mode.
type ConnectionExpired struct {
	Message string
}

func (e *ConnectionExpired) Error() string { return e.Message }

func newConnectionExpired(format string, args ...any) *ConnectionExpired {
	return &ConnectionExpired{Message: fmt.Sprintf(format, args...)}
}

// DatabaseUnavailableError means the node is up but reports its database as
// unavailable. Treated the same as ServiceUnavailable for cache purposes:
// deactivate the address.
type DatabaseUnavailableError struct {
	Message string
}

func (e *DatabaseUnavailableError) Error() string { return e.Message }

// NotALeaderError means a write was attempted against a server that is not
// (or is no longer) the leader.
type NotALeaderError struct {
	Message string
}

func (e *NotALeaderError) Error() string { return e.Message }

// ForbiddenOnReadOnlyDatabaseError means a write was attempted against a
// database currently in read-only mode (e.g. a follower).
type ForbiddenOnReadOnlyDatabaseError struct {
	Message string
}

func (e *ForbiddenOnReadOnlyDatabaseError) Error() string { return e.Message }
