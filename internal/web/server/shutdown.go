package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook is a cleanup function called during graceful shutdown
type ShutdownHook func(ctx context.Context) error

// GracefulShutdown runs the server until a termination signal arrives, then
// drains in-flight requests and runs registered hooks within a timeout.
type GracefulShutdown struct {
	server  *Server
	timeout time.Duration
	signals []os.Signal
	logger  *zap.Logger

	mu           sync.Mutex
	hooks        []ShutdownHook
	shutdownOnce sync.Once
}

// NewGracefulShutdown wraps the server with signal-driven shutdown.
// A zero timeout defaults to 30 seconds.
func NewGracefulShutdown(server *Server, timeout time.Duration) *GracefulShutdown {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GracefulShutdown{
		server:  server,
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		logger:  server.logger,
	}
}

// RegisterHook adds a cleanup hook run after the HTTP server drains
func (gs *GracefulShutdown) RegisterHook(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

// Start serves until a signal or server failure, then shuts down
func (gs *GracefulShutdown) Start() error {
	errChan := make(chan error, 1)
	go func() {
		if err := gs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server failed: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, gs.signals...)
	defer signal.Stop(quit)

	select {
	case <-quit:
		gs.logger.Info("shutdown signal received")
		return gs.Shutdown()
	case err := <-errChan:
		return err
	}
}

// Shutdown drains the server and runs hooks. Safe to call once; later calls
// are no-ops returning nil.
func (gs *GracefulShutdown) Shutdown() error {
	var err error
	gs.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		if serr := gs.server.httpServer.Shutdown(ctx); serr != nil {
			err = fmt.Errorf("server shutdown failed: %w", serr)
		}

		gs.mu.Lock()
		hooks := append([]ShutdownHook(nil), gs.hooks...)
		gs.mu.Unlock()
		for _, hook := range hooks {
			if herr := hook(ctx); herr != nil && err == nil {
				err = fmt.Errorf("shutdown hook failed: %w", herr)
			}
		}
		gs.logger.Info("shutdown complete")
	})
	return err
}
