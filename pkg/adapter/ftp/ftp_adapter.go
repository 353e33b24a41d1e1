// Package ftp provides the TCP listener adapter for the control-connection
// engine: accept loop, connection limiting, optional implicit TLS, and
// graceful shutdown.
package ftp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harborfs/harborftp/internal/logger"
	ftpproto "github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/internal/protocol/ftp/handlers"
	"github.com/harborfs/harborftp/pkg/metrics"
)

// FTPConfig holds the listener configuration. Zero timeout values are
// replaced with defaults by New.
type FTPConfig struct {
	// Enabled controls whether the FTP adapter is active.
	Enabled bool `mapstructure:"enabled"`

	// Port is the TCP port for the control connections. Defaults to 2121.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// MaxConnections limits concurrent control connections. 0 means
	// unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// ReadTimeout is the idle deadline for reading a command line until a
	// login installs the user's own idle policy.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0"`

	// ShutdownTimeout is how long graceful shutdown waits for active
	// connections before force-closing them.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`

	// TLSCert and TLSKey enable implicit TLS on the control port when both
	// are set. The peer certificate chain, when a client presents one, is
	// forwarded into authentication requests.
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
}

func (c *FTPConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 2121
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

func (c *FTPConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	return nil
}

// FTPAdapter owns the control-connection listener. Each accepted connection
// gets its own goroutine running an FTPConnection command loop against the
// shared engine context.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. shutdownCtx cancelled (signals command loops to finish up)
//  4. Wait for active connections up to ShutdownTimeout
//  5. Force-close whatever remains
type FTPAdapter struct {
	config FTPConfig

	listener net.Listener

	engine     *ftpproto.ServerContext
	dispatcher *handlers.Dispatcher
	metrics    metrics.FTPMetrics

	tlsConfig *tls.Config

	activeConns  sync.WaitGroup
	shutdownOnce sync.Once
	shutdown     chan struct{}
	connCount    atomic.Int32

	// connSemaphore limits concurrency when MaxConnections > 0, nil
	// otherwise.
	connSemaphore chan struct{}

	shutdownCtx    context.Context
	cancelRequests context.CancelFunc

	// activeConnections maps remote address to net.Conn for forced closure
	// after the shutdown timeout.
	activeConnections sync.Map
}

// New creates an FTPAdapter around the shared engine context. The adapter
// is created stopped; call Serve to start accepting.
func New(config FTPConfig, engine *ftpproto.ServerContext) (*FTPAdapter, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid FTP config: %w", err)
	}

	var tlsConfig *tls.Config
	if config.TLSCert != "" {
		cert, err := tls.LoadX509KeyPair(config.TLSCert, config.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientAuth:   tls.RequestClientCert,
		}
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
		logger.Debug("FTP connection limit: %d", config.MaxConnections)
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	return &FTPAdapter{
		config:         config,
		engine:         engine,
		dispatcher:     handlers.NewDispatcher(),
		metrics:        engine.Metrics,
		tlsConfig:      tlsConfig,
		shutdown:       make(chan struct{}),
		connSemaphore:  connSemaphore,
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
	}, nil
}

// Serve starts the listener and blocks until the context is cancelled or
// an unrecoverable error occurs. On cancellation it performs the graceful
// shutdown sequence and returns.
func (s *FTPAdapter) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create FTP listener on port %d: %w", s.config.Port, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.listener = listener
	logger.Info("FTP server listening on port %d (tls: %t)", s.config.Port, s.tlsConfig != nil)

	go func() {
		<-ctx.Done()
		logger.Info("FTP shutdown signal received: %v", ctx.Err())
		s.initiateShutdown()
	}()

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.gracefulShutdown()
			}
		}

		tcpConn, err := s.listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("Error accepting FTP connection: %v", err)
				continue
			}
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)

		connAddr := tcpConn.RemoteAddr().String()
		s.activeConnections.Store(connAddr, tcpConn)

		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(s.connCount.Load())
		s.engine.Stats.ConnectionOpened()

		logger.Debug("FTP connection accepted from %s (active: %d)", connAddr, s.connCount.Load())

		conn := NewFTPConnection(s, tcpConn)
		go func(addr string, tcp net.Conn) {
			defer func() {
				s.activeConnections.Delete(addr)
				s.activeConns.Done()
				s.connCount.Add(-1)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}

				s.metrics.RecordConnectionClosed()
				s.metrics.SetActiveConnections(s.connCount.Load())
				s.engine.Stats.ConnectionClosed()

				logger.Debug("FTP connection closed from %s (active: %d)", addr, s.connCount.Load())
			}()

			conn.Serve(s.shutdownCtx)
		}(connAddr, tcpConn)
	}
}

// initiateShutdown begins graceful shutdown. Safe to call multiple times.
func (s *FTPAdapter) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("FTP shutdown initiated")
		close(s.shutdown)
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("Error closing FTP listener: %v", err)
			}
		}
		s.cancelRequests()
	})
}

// gracefulShutdown waits for active connections to drain or the timeout to
// expire, then force-closes the stragglers.
func (s *FTPAdapter) gracefulShutdown() error {
	activeCount := s.connCount.Load()
	logger.Info("FTP graceful shutdown: waiting for %d active connection(s) (timeout: %v)",
		activeCount, s.config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("FTP graceful shutdown complete: all connections closed")
		return nil

	case <-time.After(s.config.ShutdownTimeout):
		remaining := s.connCount.Load()
		logger.Warn("FTP shutdown timeout exceeded: %d connection(s) still active - forcing closure", remaining)
		s.forceCloseConnections()
		return fmt.Errorf("FTP shutdown timeout: %d connections force-closed", remaining)
	}
}

func (s *FTPAdapter) forceCloseConnections() {
	s.activeConnections.Range(func(key, value any) bool {
		addr := key.(string)
		conn := value.(net.Conn)
		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing connection to %s: %v", addr, err)
		} else {
			logger.Debug("Force-closed connection to %s", addr)
		}
		return true
	})
}

// Stop initiates graceful shutdown and waits for active connections to
// complete, bounded by ctx when one is given.
func (s *FTPAdapter) Stop(ctx context.Context) error {
	s.initiateShutdown()

	if ctx == nil {
		return s.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.Warn("FTP shutdown context cancelled: %d connection(s) still active", s.connCount.Load())
		return ctx.Err()
	}
}

// GetActiveConnections returns the current number of active connections.
func (s *FTPAdapter) GetActiveConnections() int32 {
	return s.connCount.Load()
}

// Port returns the listening port.
func (s *FTPAdapter) Port() int {
	return s.config.Port
}

// Protocol returns "FTP".
func (s *FTPAdapter) Protocol() string {
	return "FTP"
}
