// Package server orchestrates the lifecycle of the protocol adapters.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harborfs/harborftp/internal/logger"
	"github.com/harborfs/harborftp/pkg/adapter"
)

// HarborServer manages a set of protocol adapters that share one command
// engine.
//
// Lifecycle:
//  1. New()
//  2. AddAdapter() for each protocol
//  3. Serve() starts all adapters concurrently and blocks
//  4. Context cancellation triggers graceful shutdown of all adapters
//
// AddAdapter must not be called after Serve; Serve must only be called once.
type HarborServer struct {
	adapters []adapter.Adapter

	// mu protects the adapters slice and the served flag.
	mu sync.RWMutex

	serveOnce sync.Once
	served    bool
}

// New creates an empty HarborServer. Call AddAdapter to register protocols,
// then Serve to start.
func New() *HarborServer {
	return &HarborServer{
		adapters: make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers a protocol adapter. Duplicate protocols and port
// conflicts are rejected.
func (s *HarborServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	protocol := a.Protocol()
	port := a.Port()

	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		if existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}

	s.adapters = append(s.adapters, a)
	logger.Info("Registered %s adapter on port %d", protocol, port)
	return nil
}

// Serve starts all registered adapters and blocks until the context is
// cancelled or an adapter fails.
//
// When the context is cancelled or any adapter reports an error, every
// adapter receives a Stop() call in reverse registration order, then Serve
// waits for all adapter goroutines to finish before returning. The return
// value is context.Canceled on a clean shutdown, or the failing adapter's
// error.
func (s *HarborServer) Serve(ctx context.Context) error {
	alreadyServed := true
	var err error

	s.serveOnce.Do(func() {
		alreadyServed = false
		err = s.serve(ctx)
	})

	if alreadyServed {
		panic("Serve() has already been called on this server instance")
	}
	return err
}

// adapterError pairs an adapter protocol name with its error.
type adapterError struct {
	protocol string
	err      error
}

func (s *HarborServer) serve(ctx context.Context) error {
	s.mu.Lock()
	s.served = true
	if len(s.adapters) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	logger.Info("Starting HarborFTP with %d adapter(s)", len(adapters))

	// Buffered so simultaneous failures cannot leak goroutines.
	errChan := make(chan adapterError, len(adapters))

	var wg sync.WaitGroup
	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			if err := a.Serve(ctx); err != nil {
				// context.Canceled is expected during shutdown.
				if err != context.Canceled && ctx.Err() == nil {
					logger.Error("%s adapter failed: %v", protocol, err)
					errChan <- adapterError{protocol: protocol, err: err}
				} else {
					logger.Debug("%s adapter stopped gracefully", protocol)
				}
			} else {
				logger.Info("%s adapter stopped", protocol)
			}
		}(adp)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - stopping all adapters",
			adapterErr.protocol, adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("HarborFTP stopped gracefully")
	return shutdownErr
}

// stopAllAdapters signals every adapter to shut down, in reverse
// registration order. The actual drain happens inside each adapter's Serve
// goroutine; the caller waits on those through the WaitGroup.
func (s *HarborServer) stopAllAdapters(adapters []adapter.Adapter) {
	const stopTimeout = 30 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		if err := adp.Stop(ctx); err != nil && err != context.Canceled {
			logger.Error("Error stopping %s adapter: %v", adp.Protocol(), err)
		} else {
			logger.Debug("%s adapter stop signal sent", adp.Protocol())
		}
	}
}

// Adapters returns a snapshot of the registered adapters.
func (s *HarborServer) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
