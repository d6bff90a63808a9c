// Package config binds the proxy's command-line flags, following the same
// flag-per-field, cobra-driven shape ikwattro-bolt-proxy used with the
// standard flag package, upgraded to cobra/pflag so it composes with
// subcommands and shell completion the way the rest of this module's
// dependency stack expects.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Config holds every setting the proxy needs to start serving traffic.
type Config struct {
	BindAddr    string
	SeedHosts   []string
	Username    string
	Password    string
	TLS         bool
	PoolSize    int
	DialTimeout time.Duration
	Verbose     bool
	JSONLogs    bool
	MetricsAddr string

	// RoutingContext is passed verbatim to the routing procedures; a
	// cluster can use it to steer clients toward a region or policy
	// group.
	RoutingContext map[string]string
}

// BindFlags registers every Config field onto fs, matching cobra's usual
// PreRun wiring: a command builds a Config, calls BindFlags in its
// constructor, and reads back the populated struct in RunE.
func BindFlags(fs *pflag.FlagSet, c *Config) {
	fs.StringVar(&c.BindAddr, "bind", "0.0.0.0:8888", "host:port to bind the proxy listener to")
	fs.StringSliceVar(&c.SeedHosts, "host", nil, "seed host:port of a cluster member (repeatable)")
	fs.StringVar(&c.Username, "user", "neo4j", "username used to authenticate to the cluster")
	fs.StringVar(&c.Password, "pass", "", "password used to authenticate to the cluster")
	fs.BoolVar(&c.TLS, "tls", false, "use TLS when connecting to cluster members")
	fs.IntVar(&c.PoolSize, "pool-size", 4, "idle connections kept per cluster address")
	fs.DurationVar(&c.DialTimeout, "dial-timeout", 10*time.Second, "timeout for dialing a cluster member")
	fs.BoolVar(&c.Verbose, "verbose", false, "enable debug-level logging")
	fs.BoolVar(&c.JSONLogs, "json-logs", true, "emit structured JSON logs instead of console output")
	fs.StringVar(&c.MetricsAddr, "metrics-bind", ":9090", "host:port to serve Prometheus metrics on")
	fs.StringToStringVar(&c.RoutingContext, "routing-context", nil, "key=value pair to pass to the routing procedure (repeatable)")
}

// Validate checks the fields cobra can't enforce through flag types alone.
func (c *Config) Validate() error {
	if len(c.SeedHosts) == 0 {
		return fmt.Errorf("config: at least one --host is required")
	}
	if c.Password == "" {
		return fmt.Errorf("config: --pass is required")
	}
	return nil
}
