package batch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"edi-exchange/feature/exchange/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSyncer struct {
	calls atomic.Int32
	opts  atomic.Value
	ran   chan struct{}
}

func newCountingSyncer() *countingSyncer {
	return &countingSyncer{ran: make(chan struct{}, 100)}
}

func (s *countingSyncer) Sync(_ context.Context, opts batch.Options) (*batch.Report, error) {
	s.calls.Add(1)
	s.opts.Store(opts)
	s.ran <- struct{}{}
	return &batch.Report{}, nil
}

func waitRun(t *testing.T, s *countingSyncer) {
	t.Helper()
	select {
	case <-s.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("sync did not run")
	}
}

func TestScheduler_TriggerOnly(t *testing.T) {
	syncer := newCountingSyncer()
	opts := batch.Options{CheckInput: true}
	s := batch.NewScheduler(syncer, 0, opts, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitRun(t, syncer) // initial run
	s.Trigger()
	waitRun(t, syncer)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), syncer.calls.Load())
	assert.Equal(t, opts, syncer.opts.Load())
}

func TestScheduler_Ticks(t *testing.T) {
	syncer := newCountingSyncer()
	s := batch.NewScheduler(syncer, 10*time.Millisecond, batch.Options{CheckOutput: true}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 3; i++ {
		waitRun(t, syncer)
	}
	cancel()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, syncer.calls.Load(), int32(3))
}

func TestWatcher_TriggersOnNewFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "in", "pending")
	triggered := make(chan struct{}, 10)
	w := batch.NewWatcher([]string{dir}, func() { triggered <- struct{}{} }, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Keep dropping files until the watcher is up and reports one.
	deadline := time.After(3 * time.Second)
	for i := 0; ; i++ {
		name := filepath.Join(dir, "order.csv")
		if _, err := os.Stat(dir); err == nil {
			_ = os.WriteFile(name, []byte{byte(i)}, 0o644)
		}
		select {
		case <-triggered:
			cancel()
			require.NoError(t, <-done)
			return
		case <-deadline:
			t.Fatal("watcher did not trigger")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
