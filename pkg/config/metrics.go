package config

import (
	"github.com/harborfs/harborftp/pkg/metrics"
)

// MetricsResult contains the metrics components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled).
	Server *metrics.Server

	// FTPMetrics is the collector for the FTP adapter (never nil; noop when
	// disabled).
	FTPMetrics metrics.FTPMetrics
}

// InitializeMetrics creates the metrics components based on configuration.
//
// When metrics are enabled the global Prometheus registry is initialized,
// the /metrics HTTP server is created, and a Prometheus-backed collector is
// returned. When disabled, the server is nil and the collector is a no-op.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		return &MetricsResult{
			Server:     nil,
			FTPMetrics: metrics.NewNoopFTPMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Server.Metrics.Port,
	})

	return &MetricsResult{
		Server:     server,
		FTPMetrics: metrics.NewFTPMetrics(),
	}
}
