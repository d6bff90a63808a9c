// Command boltproxy runs the cluster-aware Bolt proxy: it accepts client
// connections, picks a cluster member per-connection via internal/routing,
// and splices bytes through. Flag wiring follows cobra the way the rest of
// this module's dependency stack expects.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/CyberGRX/neobolt/internal/backend"
	"github.com/CyberGRX/neobolt/internal/config"
	"github.com/CyberGRX/neobolt/internal/logging"
	"github.com/CyberGRX/neobolt/internal/metrics"
	"github.com/CyberGRX/neobolt/internal/proxy"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config

	cmd := &cobra.Command{
		Use:   "boltproxy",
		Short: "A cluster-aware Bolt protocol proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	config.BindFlags(cmd.Flags(), &cfg)
	return cmd
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Verbose: cfg.Verbose, JSON: cfg.JSONLogs})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)
	go serveMetrics(cfg.MetricsAddr, registry, log)

	b, err := backend.New(cfg.SeedHosts, backend.Options{
		Creds: backend.Credentials{
			Principal:  cfg.Username,
			Credential: cfg.Password,
		},
		TLS:            cfg.TLS,
		DialTimeout:    cfg.DialTimeout,
		PoolSize:       cfg.PoolSize,
		RoutingContext: cfg.RoutingContext,
	}, log.WithName("backend"))
	if err != nil {
		return fmt.Errorf("building backend: %w", err)
	}
	go reportTableMetrics(b)

	listener, err := net.Listen("tcp", cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.BindAddr, err)
	}
	log.Info("listening", "addr", cfg.BindAddr)

	handler := &proxy.Handler{Backend: b, Log: log.WithName("proxy")}
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Error(err, "accept failed")
			continue
		}
		go func() {
			if err := handler.HandleClient(conn); err != nil {
				log.V(1).Info("client session ended", "error", err.Error())
			}
		}()
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log logr.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error(err, "metrics server stopped")
	}
}

func reportTableMetrics(b *backend.Backend) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		b.ReportTableMetrics()
	}
}
