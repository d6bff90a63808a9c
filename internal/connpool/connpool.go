// Package connpool is the raw, per-address Bolt connection pool spec.md
// treats as an external collaborator: acquire/deactivate/idle-count, with
// no awareness of routing tables or roles. It's modeled on
// kevwan-radix.v2/cluster's single owner-goroutine pattern (a callCh of
// closures serialises all mutable state) combined with
// kevwan-radix.v2/pool's idle-channel-plus-active-counter pool shape,
// adapted from redis.Client connections to internal/bolt.BoltConn.
package connpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/CyberGRX/neobolt/internal/bolt"
	"github.com/CyberGRX/neobolt/internal/routing"
)

// Dialer opens a new Bolt connection to addr. Supplied by the caller so
// TLS/auth/timeout configuration (out of scope here) stays in one place.
type Dialer func(ctx context.Context, addr routing.Address) (bolt.BoltConn, error)

// Conn wraps a bolt.BoltConn with the address it's bound to and an
// "expired" tag set by the routing layer once it hands the connection out
// for real work.
type Conn struct {
	addr    routing.Address
	conn    bolt.BoltConn
	expired bool
}

func (c *Conn) Addr() routing.Address { return c.addr }

// Unwrap returns the underlying Bolt connection for splicing.
func (c *Conn) Unwrap() bolt.BoltConn { return c.conn }

// Expired reports whether TagExpired has been called on this connection.
// Release closes an expired connection instead of keeping it idle; transport
// errors on it are not converted into *routing.ConnectionExpired.
func (c *Conn) Expired() bool { return c.expired }

type addrPool struct {
	idle   chan *Conn
	active int
}

// Pool is a map of per-address connection pools behind a single owner
// goroutine, mirroring kevwan-radix.v2/cluster.Cluster's callCh/spin
// pattern so every mutation of the pool map is race-free without a mutex
// guarding the whole thing.
type Pool struct {
	dial     Dialer
	size     int
	log      logr.Logger
	callCh   chan func()
	stopCh   chan struct{}
	stopOnce sync.Once

	pools map[routing.Address]*addrPool
}

// New builds a Pool. size is the number of idle connections kept per
// address.
func New(dial Dialer, size int, log logr.Logger) *Pool {
	if size < 1 {
		size = 4
	}
	p := &Pool{
		dial:   dial,
		size:   size,
		log:    log,
		callCh: make(chan func()),
		stopCh: make(chan struct{}),
		pools:  make(map[routing.Address]*addrPool),
	}
	go p.spin()
	return p
}

func (p *Pool) spin() {
	for {
		select {
		case f := <-p.callCh:
			f()
		case <-p.stopCh:
			return
		}
	}
}

func (p *Pool) call(f func()) {
	done := make(chan struct{})
	p.callCh <- func() {
		f()
		close(done)
	}
	<-done
}

func (p *Pool) poolFor(addr routing.Address) *addrPool {
	ap, ok := p.pools[addr]
	if !ok {
		ap = &addrPool{idle: make(chan *Conn, p.size)}
		p.pools[addr] = ap
	}
	return ap
}

// AcquireDirect implements routing.DirectPool.
func (p *Pool) AcquireDirect(ctx context.Context, addr routing.Address) (routing.Connection, error) {
	var idle *Conn
	p.call(func() {
		ap := p.poolFor(addr)
		select {
		case c := <-ap.idle:
			idle = c
		default:
		}
	})
	if idle != nil {
		return idle, nil
	}

	bc, err := p.dial(ctx, addr)
	if err != nil {
		return nil, &routing.ServiceUnavailable{Message: fmt.Sprintf("cannot connect to %s: %v", addr, err)}
	}

	conn := &Conn{addr: addr, conn: bc}
	p.call(func() {
		p.poolFor(addr).active++
	})
	return conn, nil
}

// Release returns conn to its address pool for reuse, or closes it if the
// pool is full or the connection has already been flagged expired.
func (p *Pool) Release(c *Conn) {
	if c.expired {
		p.call(func() {
			p.poolFor(c.addr).active--
		})
		c.conn.Close()
		return
	}
	p.call(func() {
		ap := p.poolFor(c.addr)
		select {
		case ap.idle <- c:
		default:
			ap.active--
			c.conn.Close()
		}
	})
}

// Deactivate implements routing.DirectPool: drop the address's pool
// entirely, closing any idle connections to it.
func (p *Pool) Deactivate(addr routing.Address) {
	p.call(func() {
		ap, ok := p.pools[addr]
		if !ok {
			return
		}
		close(ap.idle)
		for c := range ap.idle {
			c.conn.Close()
		}
		delete(p.pools, addr)
	})
	p.log.V(1).Info("deactivated address", "addr", addr.String())
}

// Addresses implements routing.DirectPool.
func (p *Pool) Addresses() []routing.Address {
	var out []routing.Address
	p.call(func() {
		out = make([]routing.Address, 0, len(p.pools))
		for a := range p.pools {
			out = append(out, a)
		}
	})
	return out
}

// TagExpired implements routing.DirectPool.
func (p *Pool) TagExpired(conn routing.Connection) {
	if c, ok := conn.(*Conn); ok {
		c.expired = true
	}
}

// InUseConnectionCount implements routing.ConnectionCounter: active minus
// currently-idle connections for addr.
func (p *Pool) InUseConnectionCount(addr routing.Address) int {
	var n int
	p.call(func() {
		ap, ok := p.pools[addr]
		if !ok {
			return
		}
		n = ap.active - len(ap.idle)
	})
	return n
}

// Close shuts down the pool, closing every connection it knows about.
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		for _, addr := range p.Addresses() {
			p.Deactivate(addr)
		}
		close(p.stopCh)
	})
}
