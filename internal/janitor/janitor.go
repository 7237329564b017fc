// Package janitor runs periodic housekeeping for in-process state that
// expires on its own clock: memory revocation entries and rate limit buckets.
package janitor

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper drops expired entries and reports how many went.
type Sweeper interface {
	Sweep() int
}

type SweepFunc func() int

func (f SweepFunc) Sweep() int { return f() }

type Config struct {
	Interval time.Duration
}

type Janitor struct {
	cfg      Config
	log      *slog.Logger
	sweepers map[string]Sweeper
}

func New(cfg Config, log *slog.Logger) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{cfg: cfg, log: log, sweepers: make(map[string]Sweeper)}
}

// Register adds a named sweeper. Not safe to call once Run has started.
func (j *Janitor) Register(name string, s Sweeper) {
	if s == nil {
		return
	}
	j.sweepers[name] = s
}

// Run sweeps every Interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("janitor stopping")
			return
		case <-ticker.C:
			j.Step()
		}
	}
}

// Step runs one pass over every sweeper and returns the total removed.
func (j *Janitor) Step() int {
	total := 0
	for name, s := range j.sweepers {
		n := s.Sweep()
		if n > 0 {
			j.log.Debug("swept expired entries", "store", name, "removed", n)
		}
		total += n
	}
	return total
}
