package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/pkg/logger"
)

// ErrNoPending is returned by manual actions when no pending signal
// exists.
var ErrNoPending = errors.New("no pending signal")

// LifecycleConfig tunes the automatic promotion sweep.
type LifecycleConfig struct {
	ApproveConfidence float64
	ApproveAfter      time.Duration
	RejectConfidence  float64
	RejectAfter       time.Duration
	FixedNotional     float64
}

// DefaultLifecycleConfig mirrors the engine defaults.
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		ApproveConfidence: 0.80,
		ApproveAfter:      2 * time.Minute,
		RejectConfidence:  0.60,
		RejectAfter:       10 * time.Minute,
		FixedNotional:     100,
	}
}

// Transition records one applied status change.
type Transition struct {
	SignalID int64
	Symbol   string
	From     models.SignalStatus
	To       models.SignalStatus
}

// Lifecycle advances pending signals through their state machine.
// High-confidence signals auto-approve after a settle window,
// low-confidence ones auto-reject after a longer one; everything in
// between waits for a manual decision.
type Lifecycle struct {
	store   repository.SignalStore
	metrics repository.Metrics
	logger  *logger.Logger
	cfg     LifecycleConfig
	now     func() time.Time
}

// NewLifecycle creates the lifecycle manager.
func NewLifecycle(store repository.SignalStore, metrics repository.Metrics, log *logger.Logger, cfg LifecycleConfig) *Lifecycle {
	return &Lifecycle{store: store, metrics: metrics, logger: log, cfg: cfg, now: time.Now}
}

// WithClock overrides the time source.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

// ProcessTick sweeps pending signals once and applies any due
// transitions. The settle clock starts at the signal's automation
// reference, so a manual touch resets it.
func (l *Lifecycle) ProcessTick(ctx context.Context, now time.Time) ([]Transition, error) {
	pending, err := l.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	var applied []Transition
	for _, sig := range pending {
		elapsed := now.Sub(sig.AutoRef)
		switch {
		case sig.Plan.Confidence >= l.cfg.ApproveConfidence && elapsed >= l.cfg.ApproveAfter:
			if err := l.approve(ctx, sig, now); err != nil {
				if errors.Is(err, repository.ErrNotPending) {
					continue
				}
				return applied, err
			}
			applied = append(applied, Transition{sig.ID, sig.Symbol, models.StatusPending, models.StatusApproved})
		case sig.Plan.Confidence < l.cfg.RejectConfidence && elapsed >= l.cfg.RejectAfter:
			if err := l.store.UpdateStatus(ctx, sig.ID, models.StatusRejected, now); err != nil {
				if errors.Is(err, repository.ErrNotPending) {
					continue
				}
				return applied, fmt.Errorf("reject signal %d: %w", sig.ID, err)
			}
			l.metrics.RecordSignal(string(models.StatusRejected))
			applied = append(applied, Transition{sig.ID, sig.Symbol, models.StatusPending, models.StatusRejected})
		}
	}

	for _, t := range applied {
		l.logger.Info("signal transition",
			logger.Int64("signal_id", t.SignalID),
			logger.String("symbol", t.Symbol),
			logger.String("to", string(t.To)))
	}
	return applied, nil
}

// Approve immediately approves a pending signal, bypassing the settle
// timers. id 0 targets the most recent pending signal.
func (l *Lifecycle) Approve(ctx context.Context, id int64) (*models.Signal, error) {
	sig, err := l.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.approve(ctx, sig, l.now().UTC()); err != nil {
		return nil, err
	}
	sig.Status = models.StatusApproved
	return sig, nil
}

// Reject immediately rejects a pending signal. id 0 targets the most
// recent pending signal.
func (l *Lifecycle) Reject(ctx context.Context, id int64) (*models.Signal, error) {
	sig, err := l.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.store.UpdateStatus(ctx, sig.ID, models.StatusRejected, l.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, err
		}
		return nil, fmt.Errorf("reject signal %d: %w", sig.ID, err)
	}
	l.metrics.RecordSignal(string(models.StatusRejected))
	sig.Status = models.StatusRejected
	return sig, nil
}

func (l *Lifecycle) resolve(ctx context.Context, id int64) (*models.Signal, error) {
	if id != 0 {
		sig, err := l.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sig.Status != models.StatusPending {
			return nil, repository.ErrNotPending
		}
		return sig, nil
	}
	sig, err := l.store.LatestPending(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPending
		}
		return nil, err
	}
	return sig, nil
}

// approve flips the status and opens the paper position sized by the
// fixed notional.
func (l *Lifecycle) approve(ctx context.Context, sig *models.Signal, now time.Time) error {
	if err := l.store.UpdateStatus(ctx, sig.ID, models.StatusApproved, now); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return err
		}
		return fmt.Errorf("approve signal %d: %w", sig.ID, err)
	}
	l.metrics.RecordSignal(string(models.StatusApproved))

	qty := 0.0
	if sig.Plan.Entry > 0 {
		qty = l.cfg.FixedNotional / sig.Plan.Entry
	}
	pos := &models.Position{
		SignalID: sig.ID,
		Symbol:   sig.Symbol,
		Side:     sig.Side,
		Qty:      qty,
		Entry:    sig.Plan.Entry,
		Stop:     sig.Plan.Stop,
		TP1:      sig.Plan.TP1,
		TP2:      sig.Plan.TP2,
		TP3:      sig.Plan.TP3,
		OpenedAt: now,
	}
	if _, err := l.store.OpenPosition(ctx, pos); err != nil {
		// the approval already happened; the position is bookkeeping
		l.logger.Error("open paper position failed",
			logger.Int64("signal_id", sig.ID), logger.Error(err))
	}
	return nil
}
