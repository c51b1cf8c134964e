package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/annotation"
)

func shutdownFixture(t *testing.T) *GracefulShutdown {
	t.Helper()
	cfg := DefaultConfig(annotation.NewRegistry())
	cfg.Address = "localhost:0"
	srv, err := New(cfg)
	require.NoError(t, err)
	return NewGracefulShutdown(srv, time.Second)
}

func TestGracefulShutdown_DefaultTimeout(t *testing.T) {
	cfg := DefaultConfig(annotation.NewRegistry())
	srv, err := New(cfg)
	require.NoError(t, err)

	gs := NewGracefulShutdown(srv, 0)
	assert.Equal(t, 30*time.Second, gs.timeout)
}

func TestGracefulShutdown_RunsHooks(t *testing.T) {
	gs := shutdownFixture(t)

	ran := false
	gs.RegisterHook(func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, gs.Shutdown())
	assert.True(t, ran)
}

func TestGracefulShutdown_HookError(t *testing.T) {
	gs := shutdownFixture(t)

	hookErr := errors.New("cleanup failed")
	gs.RegisterHook(func(ctx context.Context) error {
		return hookErr
	})

	err := gs.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, hookErr)
}

func TestGracefulShutdown_Idempotent(t *testing.T) {
	gs := shutdownFixture(t)

	calls := 0
	gs.RegisterHook(func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, gs.Shutdown())
	require.NoError(t, gs.Shutdown())
	assert.Equal(t, 1, calls)
}

func TestGracefulShutdown_ServesThenStops(t *testing.T) {
	gs := shutdownFixture(t)

	done := make(chan error, 1)
	go func() { done <- gs.Start() }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, gs.Shutdown())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}
