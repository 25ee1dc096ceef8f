// Package scheduler runs the periodic deadline sweep: it settles auctions whose
// window has closed, applies the no-bids policy and optionally opens the next cycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/chitfund/internal/lifecycle"
	"github.com/mmynk/chitfund/internal/metrics"
	"github.com/mmynk/chitfund/internal/models"
	"github.com/mmynk/chitfund/internal/registry"
	"github.com/mmynk/chitfund/internal/storage"
)

// Policy controls what a sweep does besides settling.
type Policy struct {
	// ExtendOnNoBids reopens an expired auction without bids for Window.
	ExtendOnNoBids bool
	// Window is the extension length; the engine's window when zero.
	Window time.Duration
	// AutoOpen opens the next cycle of an Active group with no open auction.
	AutoOpen bool
}

// Result counts what one sweep did.
type Result struct {
	Settled   int
	NoBids    int
	Extended  int
	Opened    int
	Completed int
	Failed    int
}

// Sweeper manages the sweep cron job.
type Sweeper struct {
	cron     *cron.Cron
	registry *registry.Registry
	store    storage.Store
	metrics  *metrics.Collector
	policy   Policy
	ctx      context.Context
}

// NewSweeper creates a sweeper; call Schedule then Start.
func NewSweeper(ctx context.Context, reg *registry.Registry, store storage.Store, m *metrics.Collector, policy Policy) *Sweeper {
	logger := cronLogger{}
	return &Sweeper{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		registry: reg,
		store:    store,
		metrics:  m,
		policy:   policy,
		ctx:      ctx,
	}
}

// Schedule registers the sweep under a cron spec with a seconds field,
// e.g. "*/30 * * * * *" or "@every 30s".
func (s *Sweeper) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(s.ctx) }); err != nil {
		return fmt.Errorf("register sweep: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Sweeper) Start() {
	s.cron.Start()
	slog.Info("Sweeper started", "extend_on_no_bids", s.policy.ExtendOnNoBids, "auto_open", s.policy.AutoOpen)
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Sweeper stopped")
}

// Sweep visits every Active group once.
func (s *Sweeper) Sweep(ctx context.Context) Result {
	start := time.Now()
	var res Result
	counts := make(map[models.GroupStatus]int)

	for _, g := range s.registry.List() {
		if s.sweepGroup(g, &res) {
			if err := s.store.SaveGroup(ctx, g.Snapshot()); err != nil {
				slog.Error("Failed to persist group", "group_id", g.ID(), "error", err)
				res.Failed++
			}
		}
		counts[g.Summary().Status]++
	}

	var err error
	if res.Failed > 0 {
		err = fmt.Errorf("%d groups failed", res.Failed)
	}
	s.metrics.RecordSweep(time.Since(start), err)
	s.metrics.RecordGroupCounts(counts)

	if res != (Result{}) {
		slog.Info("Sweep finished",
			"settled", res.Settled,
			"no_bids", res.NoBids,
			"extended", res.Extended,
			"opened", res.Opened,
			"completed", res.Completed,
			"failed", res.Failed,
		)
	}
	return res
}

// sweepGroup advances one group and reports whether it changed.
func (s *Sweeper) sweepGroup(g *lifecycle.Group, res *Result) bool {
	if g.Summary().Status != models.GroupActive {
		return false
	}
	changed := false

	if g.CanSettle() {
		settlement, err := g.Settle()
		switch {
		case err == nil:
			changed = true
			res.Settled++
			s.metrics.RecordSettlement("sweeper", settlement, g.Summary().ContributionAmount)
			if settlement.Completed {
				res.Completed++
			}
			slog.Info("Auction settled by sweeper",
				"group_id", settlement.GroupID,
				"cycle", settlement.Cycle,
				"winner", settlement.Winner,
				"discount", settlement.Discount,
			)
		case errors.Is(err, models.ErrNoBids):
			res.NoBids++
			s.metrics.RecordNoBids()
			if s.policy.ExtendOnNoBids {
				a, err := g.ExtendCycle(s.policy.Window)
				if err != nil {
					slog.Error("Failed to extend auction", "group_id", g.ID(), "error", err)
					res.Failed++
					break
				}
				changed = true
				res.Extended++
				s.metrics.RecordExtension()
				slog.Info("Auction extended", "group_id", g.ID(), "cycle", a.Cycle, "end_time", a.EndTime)
			}
		case errors.Is(err, models.ErrInvalidState):
			// Settled through the API between CanSettle and Settle.
		default:
			slog.Error("Sweeper settle failed", "group_id", g.ID(), "error", err)
			res.Failed++
		}
	}

	if s.policy.AutoOpen && g.Summary().Status == models.GroupActive {
		if _, err := g.CurrentAuction(); err != nil {
			a, err := g.OpenCycle()
			if err != nil {
				slog.Warn("Sweeper could not open cycle", "group_id", g.ID(), "error", err)
				return changed
			}
			changed = true
			res.Opened++
			s.metrics.RecordCycleOpened()
			slog.Info("Cycle opened by sweeper", "group_id", a.GroupID, "cycle", a.Cycle, "end_time", a.EndTime)
		}
	}
	return changed
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
