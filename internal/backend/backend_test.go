package backend

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTLSFromURI(t *testing.T) {
	assert.True(t, TLSFromURI("neo4j+s://cluster.example.com"))
	assert.True(t, TLSFromURI("bolt+ssc://cluster.example.com"))
	assert.False(t, TLSFromURI("bolt://cluster.example.com"))
	assert.False(t, TLSFromURI("neo4j://cluster.example.com"))
}

func TestNew_RequiresAtLeastOneSeedHost(t *testing.T) {
	_, err := New(nil, Options{}, logr.Discard())
	require.Error(t, err)
}

func TestNew_RejectsUnparseableSeedHost(t *testing.T) {
	_, err := New([]string{"not a host:port:!"}, Options{}, logr.Discard())
	require.Error(t, err)
}

func TestNew_AppliesDefaults(t *testing.T) {
	b, err := New([]string{"localhost:7687"}, Options{}, logr.Discard())
	require.NoError(t, err)
	defer b.pool.Close()

	assert.Equal(t, "basic", b.opts.Creds.Scheme)
	assert.Equal(t, 4, b.opts.PoolSize)
	assert.NotEmpty(t, b.opts.UserAgent)
}
