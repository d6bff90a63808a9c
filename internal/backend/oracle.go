package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/CyberGRX/neobolt/internal/bolt"
	"github.com/CyberGRX/neobolt/internal/connpool"
	"github.com/CyberGRX/neobolt/internal/routing"
)

// routing procedure call text for the two server generations this proxy
// needs to speak to. Mirrors the version-dispatch concern spec.md §4.5
// calls out: try the modern, Cypher 9-era procedure first and fall back to
// the legacy causal-cluster one only if the server reports it missing.
const (
	modernRoutingStatement = "CALL dbms.routing.getRoutingTable($context)"
	legacyRoutingStatement = "CALL dbms.cluster.routing.getRoutingTable($context)"
)

// BoltOracle implements routing.Oracle on top of internal/bolt: it runs the
// routing procedure over a connection handed out by connpool.Pool and drains
// the reply into routing.Records. Per-address it remembers which servers
// reported the modern procedure missing and goes straight to the legacy
// variant for them afterwards, whether or not the legacy call succeeded.
type BoltOracle struct {
	log logr.Logger

	mu     sync.Mutex
	legacy map[routing.Address]bool
}

// NewBoltOracle builds a BoltOracle that logs diagnostics through log.
func NewBoltOracle(log logr.Logger) *BoltOracle {
	return &BoltOracle{log: log, legacy: map[routing.Address]bool{}}
}

// RunRoutingProcedure implements routing.Oracle.
func (o *BoltOracle) RunRoutingProcedure(ctx context.Context, conn routing.Connection, routingContext map[string]string) ([]routing.Record, error) {
	pooled, ok := conn.(*connpool.Conn)
	if !ok {
		return nil, &routing.RoutingProtocolError{Message: "oracle: connection is not a bolt connection"}
	}
	bc := pooled.Unwrap()

	o.mu.Lock()
	useLegacy := o.legacy[pooled.Addr()]
	o.mu.Unlock()

	records, procErr, err := o.runOnce(bc, routingContext, useLegacy)
	if err != nil {
		return nil, err
	}
	if procErr != nil {
		if !useLegacy && isProcedureNotFound(procErr) {
			o.mu.Lock()
			o.legacy[pooled.Addr()] = true
			o.mu.Unlock()
			records, procErr, err = o.runOnce(bc, routingContext, true)
			if err != nil {
				return nil, err
			}
		}
		if procErr != nil {
			return nil, &routing.RoutingProtocolError{Message: procErr.Error()}
		}
	}

	return records, nil
}

func (o *BoltOracle) runOnce(bc bolt.BoltConn, routingContext map[string]string, legacy bool) ([]routing.Record, error, error) {
	statement := modernRoutingStatement
	if legacy {
		statement = legacyRoutingStatement
	}

	if err := bc.WriteMessage(bolt.EncodeRun(statement, routingContext)); err != nil {
		return nil, nil, err
	}
	if err := bc.WriteMessage(bolt.EncodePullAll()); err != nil {
		return nil, nil, err
	}

	runReply, ok := <-bc.R()
	if !ok {
		return nil, nil, fmt.Errorf("oracle: connection closed awaiting RUN reply")
	}
	if runReply.T == bolt.FailureMsg {
		return nil, failureToError(runReply), nil
	}

	var records []routing.Record
	for {
		msg, ok := <-bc.R()
		if !ok {
			return nil, nil, fmt.Errorf("oracle: connection closed awaiting PULL reply")
		}
		switch msg.T {
		case bolt.RecordMsg:
			rec, err := decodeRoutingRecord(msg)
			if err != nil {
				return nil, nil, err
			}
			records = append(records, rec)
		case bolt.SuccessMsg:
			return records, nil, nil
		case bolt.FailureMsg:
			return nil, failureToError(msg), nil
		default:
			o.log.V(1).Info("unexpected message awaiting routing reply", "type", msg.T)
		}
	}
}

func isProcedureNotFound(err error) bool {
	return err != nil && containsFold(err.Error(), "ProcedureNotFound")
}

func containsFold(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if equalFold(haystack[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// failureToError decodes a FAILURE message's "code"/"message" fields into a
// plain error carrying the server's own text.
func failureToError(msg *bolt.Message) error {
	fields, _, err := bolt.ParseTinyMap(msg.Data[4:])
	if err != nil {
		return fmt.Errorf("oracle: unparseable failure reply: %w", err)
	}
	code, _ := fields["code"].(string)
	message, _ := fields["message"].(string)
	return fmt.Errorf("%s: %s", code, message)
}

// decodeRoutingRecord unpacks a RECORD message carrying a (ttl, servers) row
// as returned by the routing procedures into a routing.Record.
func decodeRoutingRecord(msg *bolt.Message) (routing.Record, error) {
	fields, _, err := bolt.ParseTinyArray(msg.Data[4:])
	if err != nil {
		return routing.Record{}, fmt.Errorf("oracle: unparseable record: %w", err)
	}
	if len(fields) != 1 {
		return routing.Record{}, fmt.Errorf("oracle: expected 1 field in record, got %d", len(fields))
	}
	row, ok := fields[0].([]interface{})
	if !ok || len(row) != 2 {
		return routing.Record{}, fmt.Errorf("oracle: expected (ttl, servers) row")
	}

	ttl, ok := row[0].(int)
	if !ok {
		return routing.Record{}, fmt.Errorf("oracle: ttl field was not an integer")
	}

	serversRaw, ok := row[1].([]interface{})
	if !ok {
		return routing.Record{}, fmt.Errorf("oracle: servers field was not an array")
	}

	servers := make([]routing.RoleServers, 0, len(serversRaw))
	for _, raw := range serversRaw {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return routing.Record{}, fmt.Errorf("oracle: server entry was not a map")
		}
		role, _ := entry["role"].(string)
		addrsRaw, _ := entry["addresses"].([]interface{})
		addrs := make([]string, 0, len(addrsRaw))
		for _, a := range addrsRaw {
			if s, ok := a.(string); ok {
				addrs = append(addrs, s)
			}
		}
		servers = append(servers, routing.RoleServers{Role: role, Addresses: addrs})
	}

	return routing.Record{TTLSeconds: int64(ttl), Servers: servers}, nil
}
