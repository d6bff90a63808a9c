package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlags_Defaults(t *testing.T) {
	var c Config
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, &c)
	require.NoError(t, fs.Parse(nil))

	assert.Equal(t, "0.0.0.0:8888", c.BindAddr)
	assert.Equal(t, "neo4j", c.Username)
	assert.Equal(t, 4, c.PoolSize)
	assert.False(t, c.TLS)
}

func TestValidate_RequiresSeedHostsAndPassword(t *testing.T) {
	c := Config{}
	assert.Error(t, c.Validate())

	c.SeedHosts = []string{"localhost:7687"}
	assert.Error(t, c.Validate())

	c.Password = "secret"
	assert.NoError(t, c.Validate())
}

func TestBindFlags_ParsesRoutingContext(t *testing.T) {
	var c Config
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, &c)
	require.NoError(t, fs.Parse([]string{"--routing-context=region=us-east", "--routing-context=policy=fast"}))

	assert.Equal(t, "us-east", c.RoutingContext["region"])
	assert.Equal(t, "fast", c.RoutingContext["policy"])
}
