package routing

import "context"

// Oracle runs the cluster's routing procedure over an already-acquired
// connection and drains the reply into Records. Which routing procedure to
// call, and what to do when the server reports it missing, is left to the
// implementation, keeping wire bytes out of the routing core entirely.
// Implemented by internal/backend on top of internal/bolt: it calls the
// parameterised dbms.routing.getRoutingTable and, when a server reports that
// procedure not found, the parameterised
// dbms.cluster.routing.getRoutingTable. It does not look at the server
// version and never calls a zero-argument legacy procedure.
//
// A *RoutingProtocolError returned here is re-raised by RoutingPool as
// *ServiceUnavailable, per spec.md §4.5 step 3.
type Oracle interface {
	RunRoutingProcedure(ctx context.Context, conn Connection, routingContext map[string]string) ([]Record, error)
}
