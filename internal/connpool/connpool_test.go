package connpool

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberGRX/neobolt/internal/bolt"
	"github.com/CyberGRX/neobolt/internal/routing"
)

type closeCountingBuffer struct {
	*bytes.Buffer
	closed int32
}

func (b *closeCountingBuffer) Close() error {
	atomic.AddInt32(&b.closed, 1)
	return nil
}

func newFakeBoltConn() bolt.BoltConn {
	return bolt.NewDirectConn(&closeCountingBuffer{Buffer: bytes.NewBuffer(nil)})
}

func TestPool_AcquireDirect_DialFailureIsServiceUnavailable(t *testing.T) {
	p := New(func(ctx context.Context, addr routing.Address) (bolt.BoltConn, error) {
		return nil, assert.AnError
	}, 2, logr.Discard())
	defer p.Close()

	_, err := p.AcquireDirect(context.Background(), routing.Address{Host: "h", Port: 1})
	require.Error(t, err)
	assert.IsType(t, &routing.ServiceUnavailable{}, err)
}

func TestPool_ReleaseThenAcquireReusesConnection(t *testing.T) {
	var dials int32
	p := New(func(ctx context.Context, addr routing.Address) (bolt.BoltConn, error) {
		atomic.AddInt32(&dials, 1)
		return newFakeBoltConn(), nil
	}, 2, logr.Discard())
	defer p.Close()

	a := routing.Address{Host: "h", Port: 1}
	conn1, err := p.AcquireDirect(context.Background(), a)
	require.NoError(t, err)
	p.Release(conn1.(*Conn))

	conn2, err := p.AcquireDirect(context.Background(), a)
	require.NoError(t, err)
	p.Release(conn2.(*Conn))

	assert.Equal(t, int32(1), dials)
}

func TestPool_InUseConnectionCount(t *testing.T) {
	p := New(func(ctx context.Context, addr routing.Address) (bolt.BoltConn, error) {
		return newFakeBoltConn(), nil
	}, 4, logr.Discard())
	defer p.Close()

	a := routing.Address{Host: "h", Port: 1}
	assert.Equal(t, 0, p.InUseConnectionCount(a))

	conn, err := p.AcquireDirect(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, p.InUseConnectionCount(a))

	p.Release(conn.(*Conn))
	assert.Equal(t, 0, p.InUseConnectionCount(a))
}

func TestPool_DeactivateDropsAddress(t *testing.T) {
	p := New(func(ctx context.Context, addr routing.Address) (bolt.BoltConn, error) {
		return newFakeBoltConn(), nil
	}, 4, logr.Discard())
	defer p.Close()

	a := routing.Address{Host: "h", Port: 1}
	conn, err := p.AcquireDirect(context.Background(), a)
	require.NoError(t, err)
	p.Release(conn.(*Conn))

	p.Deactivate(a)
	assert.NotContains(t, p.Addresses(), a)
}

func TestPool_TagExpiredPreventsReuse(t *testing.T) {
	var dials int32
	p := New(func(ctx context.Context, addr routing.Address) (bolt.BoltConn, error) {
		atomic.AddInt32(&dials, 1)
		return newFakeBoltConn(), nil
	}, 2, logr.Discard())
	defer p.Close()

	a := routing.Address{Host: "h", Port: 1}
	conn, err := p.AcquireDirect(context.Background(), a)
	require.NoError(t, err)
	p.TagExpired(conn)
	p.Release(conn.(*Conn))

	_, err = p.AcquireDirect(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, int32(2), dials)
}
