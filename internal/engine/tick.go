package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/holonet/internal/faction"
)

// DefaultTickInterval is how often the scheduler ticks the galaxy.
const DefaultTickInterval = time.Hour

// Ticker is what the scheduler drives.
type Ticker interface {
	Tick(ctx context.Context, force bool) (faction.TickReport, error)
}

// SchedulerOptions configures a Scheduler. Zero fields take defaults.
type SchedulerOptions struct {
	Interval time.Duration
	RunOnce  bool
	// Signals stop the scheduler when received; empty watches none.
	Signals []os.Signal
	Logger  *slog.Logger
	// OnTick observes every completed tick.
	OnTick func(n uint64, r faction.TickReport)
}

// Scheduler runs unforced galaxy ticks on an interval until stopped.
type Scheduler struct {
	ticker   Ticker
	interval time.Duration
	once     bool
	signals  []os.Signal
	log      *slog.Logger
	onTick   func(uint64, faction.TickReport)

	ticks  atomic.Uint64
	failed atomic.Uint64
}

// NewScheduler creates a scheduler over t.
func NewScheduler(t Ticker, opts SchedulerOptions) *Scheduler {
	s := &Scheduler{
		ticker:   t,
		interval: opts.Interval,
		once:     opts.RunOnce,
		signals:  opts.Signals,
		log:      opts.Logger,
		onTick:   opts.OnTick,
	}
	if s.interval <= 0 {
		s.interval = DefaultTickInterval
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// errStopped ends the group when a watched signal arrives.
var errStopped = errors.New("scheduler stopped by signal")

// Run ticks immediately and then every interval. It returns nil when ctx is
// cancelled or a watched signal arrives. A failed tick is logged and the
// loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if len(s.signals) > 0 {
		g.Go(func() error {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, s.signals...)
			defer signal.Stop(ch)
			select {
			case sig := <-ch:
				s.log.Info("received signal, shutting down", "signal", sig)
				return errStopped
			case <-ctx.Done():
				return nil
			}
		})
	}

	g.Go(func() error {
		defer func() {
			s.log.Info("scheduler stopped", "ticks", s.ticks.Load(), "failed", s.failed.Load())
		}()
		s.step(ctx)
		if s.once {
			return errStopped
		}

		t := time.NewTicker(s.interval)
		defer t.Stop()
		s.log.Info("scheduler started", "every", s.interval.String())
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				s.step(ctx)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errStopped) {
		return err
	}
	return nil
}

// Ticks is the number of ticks attempted.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Failed is the number of ticks that returned an error.
func (s *Scheduler) Failed() uint64 { return s.failed.Load() }

func (s *Scheduler) step(ctx context.Context) {
	n := s.ticks.Add(1)
	start := time.Now()
	report, err := s.ticker.Tick(ctx, false)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.failed.Add(1)
		s.log.Error("tick failed", "tick", n, "error", err)
		return
	}
	s.log.Debug("tick done",
		"tick", humanize.Ordinal(int(n)),
		"ticked", report.Ticked(),
		"took", time.Since(start).String(),
	)
	if s.onTick != nil {
		s.onTick(n, report)
	}
}
