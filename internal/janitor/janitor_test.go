package janitor

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStep_SumsSweepers(t *testing.T) {
	j := New(Config{}, quietLogger())
	j.Register("a", SweepFunc(func() int { return 2 }))
	j.Register("b", SweepFunc(func() int { return 3 }))
	j.Register("nil", nil)

	if got := j.Step(); got != 5 {
		t.Fatalf("Step() = %d, want 5", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	var calls atomic.Int32

	j := New(Config{Interval: 5 * time.Millisecond}, quietLogger())
	j.Register("count", SweepFunc(func() int {
		calls.Add(1)
		return 0
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
