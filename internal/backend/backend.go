// Package backend wires internal/routing's cluster-aware pool up to real
// TCP connections: it owns the Dialer that performs the Bolt handshake and
// HELLO for internal/connpool, implements routing.Oracle via BoltOracle,
// and exposes the single Acquire(mode) entry point the proxy front end
// uses to pick a connection.
package backend

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/CyberGRX/neobolt/internal/bolt"
	"github.com/CyberGRX/neobolt/internal/connpool"
	"github.com/CyberGRX/neobolt/internal/metrics"
	"github.com/CyberGRX/neobolt/internal/routing"
)

// Credentials carries the Bolt HELLO auth fields the backend uses to
// authenticate to every cluster member it dials.
type Credentials struct {
	Principal  string
	Credential string
	Scheme     string // defaults to "basic" if empty
}

// Options configures a Backend.
type Options struct {
	Creds          Credentials
	TLS            bool
	DialTimeout    time.Duration
	PoolSize       int
	RoutingContext map[string]string
	UserAgent      string
}

// TLSFromURI reports whether uri (a bolt://, bolt+s://, neo4j://, ...
// connection string) requests a TLS-secured connection, the way the
// original backend derived it from the driver URI scheme.
func TLSFromURI(uri string) bool {
	switch strings.SplitN(uri, ":", 2)[0] {
	case "bolt+s", "bolt+ssc", "neo4j+s", "neo4j+ssc":
		return true
	default:
		return false
	}
}

// Backend is the application-facing entry point: a cluster-aware connection
// source backed by internal/routing.RoutingPool.
type Backend struct {
	opts  Options
	log   logr.Logger
	pool  *connpool.Pool
	rpool *routing.RoutingPool
}

// New builds a Backend whose bootstrap router is the first of seedHosts
// (host:port strings); the remaining seeds are not used.
func New(seedHosts []string, opts Options, log logr.Logger) (*Backend, error) {
	if len(seedHosts) == 0 {
		return nil, fmt.Errorf("backend: at least one seed host is required")
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = 4
	}
	if opts.Creds.Scheme == "" {
		opts.Creds.Scheme = "basic"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "neobolt-proxy/1.0"
	}

	initial, err := routing.ParseAddress(seedHosts[0], routing.DefaultPort)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid seed host %q: %w", seedHosts[0], err)
	}

	b := &Backend{opts: opts, log: log}
	b.pool = connpool.New(b.dial, opts.PoolSize, log)
	oracle := NewBoltOracle(log)
	b.rpool = routing.NewRoutingPool(b.pool, oracle, initial, opts.RoutingContext, log)

	return b, nil
}

// Acquire returns a live, authenticated connection suitable for mode,
// refreshing the routing table first if needed.
func (b *Backend) Acquire(ctx context.Context, mode routing.Mode) (*connpool.Conn, error) {
	conn, err := b.rpool.Acquire(ctx, mode)
	outcome := "ok"
	if err != nil {
		outcome = outcomeLabel(err)
	}
	metrics.AcquireTotal.WithLabelValues(mode.String(), outcome).Inc()
	if err != nil {
		return nil, err
	}
	return conn.(*connpool.Conn), nil
}

func outcomeLabel(err error) string {
	switch err.(type) {
	case *routing.ServiceUnavailable:
		return "service_unavailable"
	case *routing.ConnectionExpired:
		return "connection_expired"
	case *routing.RoutingProtocolError:
		return "protocol_error"
	default:
		return "error"
	}
}

// ReportTableMetrics publishes the current role-set sizes to
// metrics.RoutingTableSize. Intended to be called on a short ticker by the
// CLI entry point.
func (b *Backend) ReportTableMetrics() {
	t := b.Table()
	metrics.RoutingTableSize.WithLabelValues("routers").Set(float64(t.Routers.Len()))
	metrics.RoutingTableSize.WithLabelValues("readers").Set(float64(t.Readers.Len()))
	metrics.RoutingTableSize.WithLabelValues("writers").Set(float64(t.Writers.Len()))
}

// PickAddress returns the address a connection suitable for mode would be
// routed to, without keeping the connection around: it's for callers (the
// proxy front end) that dial and splice raw bytes themselves and only need
// routing's opinion of "which server".
func (b *Backend) PickAddress(ctx context.Context, mode routing.Mode) (routing.Address, error) {
	conn, err := b.Acquire(ctx, mode)
	if err != nil {
		return routing.Address{}, err
	}
	addr := conn.Addr()
	b.Release(conn, nil)
	return addr, nil
}

// Release returns conn to the pool. If err is non-nil, it's first reported
// to the routing layer, which may deactivate conn's address or drop it from
// the writer set before the connection is actually released.
func (b *Backend) Release(conn *connpool.Conn, err error) {
	if err != nil {
		b.rpool.Handle(err, conn)
	}
	b.pool.Release(conn)
}

// Table exposes the current routing table snapshot for diagnostics.
func (b *Backend) Table() *routing.RoutingTable {
	return b.rpool.Table()
}

// dial performs the full Bolt client handshake (magic, version negotiation,
// HELLO) against addr and returns a ready-to-use connection.
func (b *Backend) dial(ctx context.Context, addr routing.Address) (bolt.BoltConn, error) {
	d := net.Dialer{Timeout: b.opts.DialTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, err
	}

	var rw net.Conn = raw
	if b.opts.TLS {
		rw = tls.Client(raw, &tls.Config{ServerName: addr.Host})
	}

	if err := performHandshake(rw); err != nil {
		rw.Close()
		return nil, err
	}

	bc := bolt.NewDirectConnWithLogger(rw, b.log)
	if err := b.hello(bc); err != nil {
		bc.Close()
		return nil, err
	}
	return bc, nil
}

func performHandshake(rw net.Conn) error {
	proposal := bolt.ProposeVersions()
	if _, err := rw.Write(bolt.Magic[:]); err != nil {
		return err
	}
	if _, err := rw.Write(proposal[:]); err != nil {
		return err
	}

	var reply [4]byte
	if _, err := io.ReadFull(rw, reply[:]); err != nil {
		return err
	}
	if bolt.AgreedVersion(reply) == 0 {
		return fmt.Errorf("backend: server rejected every proposed bolt version")
	}
	return nil
}

// hello sends HELLO with this backend's credentials and waits for SUCCESS.
func (b *Backend) hello(bc bolt.BoltConn) error {
	extra := map[string]string{
		"user_agent":  b.opts.UserAgent,
		"scheme":      b.opts.Creds.Scheme,
		"principal":   b.opts.Creds.Principal,
		"credentials": b.opts.Creds.Credential,
	}
	if err := bc.WriteMessage(bolt.EncodeHello(extra)); err != nil {
		return err
	}
	reply, ok := <-bc.R()
	if !ok {
		return fmt.Errorf("backend: connection closed during HELLO")
	}
	if reply.T == bolt.FailureMsg {
		fields, _, _ := bolt.ParseTinyMap(reply.Data[4:])
		return fmt.Errorf("backend: HELLO rejected: %v", fields["message"])
	}
	return nil
}

// Authenticate verifies creds against every address the routing pool
// currently knows about, returning the subset that accepted them. The proxy
// front end does not call it; it relays the client's HELLO to the server
// unchanged.
func (b *Backend) Authenticate(ctx context.Context, creds Credentials) ([]routing.Address, error) {
	addrs := b.pool.Addresses()
	if len(addrs) == 0 {
		// nothing routed yet; force a refresh via a throwaway acquire.
		conn, err := b.Acquire(ctx, routing.ReadMode)
		if err != nil {
			return nil, err
		}
		b.Release(conn, nil)
		addrs = b.pool.Addresses()
	}

	trial := *b
	trial.opts.Creds = creds

	var ok []routing.Address
	for _, a := range addrs {
		bc, err := trial.dial(ctx, a)
		if err != nil {
			b.log.V(1).Info("authenticate: rejected", "addr", a.String(), "error", err.Error())
			continue
		}
		bc.Close()
		ok = append(ok, a)
	}
	if len(ok) == 0 {
		return nil, fmt.Errorf("backend: credentials rejected by every known host")
	}
	return ok, nil
}
