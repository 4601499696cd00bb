package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"EdgePulse/internal/services/risk"
	"EdgePulse/internal/services/sentiment"
	"EdgePulse/pkg/logger"
)

// LifecycleSweepJob runs the pending-signal sweep.
type LifecycleSweepJob struct {
	lifecycle *Lifecycle
	interval  time.Duration
}

// NewLifecycleSweepJob creates the sweep job.
func NewLifecycleSweepJob(lifecycle *Lifecycle, interval time.Duration) *LifecycleSweepJob {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &LifecycleSweepJob{lifecycle: lifecycle, interval: interval}
}

func (j *LifecycleSweepJob) Name() string { return "lifecycle_sweep" }

func (j *LifecycleSweepJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}

func (j *LifecycleSweepJob) Run(ctx context.Context) error {
	_, err := j.lifecycle.ProcessTick(ctx, time.Now().UTC())
	return err
}

// AutoscanJob runs the periodic market discovery cycle.
type AutoscanJob struct {
	autoscan *Autoscan
	interval time.Duration
}

// NewAutoscanJob creates the discovery job.
func NewAutoscanJob(autoscan *Autoscan, interval time.Duration) *AutoscanJob {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &AutoscanJob{autoscan: autoscan, interval: interval}
}

func (j *AutoscanJob) Name() string { return "autoscan" }

func (j *AutoscanJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}

func (j *AutoscanJob) Run(ctx context.Context) error {
	_, err := j.autoscan.RunCycle(ctx)
	return err
}

// SentimentRefreshJob keeps the sentiment cache warm so evaluations
// never wait on the external feeds.
type SentimentRefreshJob struct {
	service  *sentiment.Service
	interval time.Duration
}

// NewSentimentRefreshJob creates the refresh job.
func NewSentimentRefreshJob(service *sentiment.Service, interval time.Duration) *SentimentRefreshJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SentimentRefreshJob{service: service, interval: interval}
}

func (j *SentimentRefreshJob) Name() string { return "sentiment_refresh" }

func (j *SentimentRefreshJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}

func (j *SentimentRefreshJob) Run(ctx context.Context) error {
	j.service.Refresh(ctx)
	return nil
}

// RotationJob walks the configured universe one symbol per tick,
// evaluating it and emitting a signal when the gate allows. Spreading
// symbols across ticks keeps venue request rates flat.
type RotationJob struct {
	scanner  *Scanner
	logger   *logger.Logger
	symbols  []string
	interval time.Duration

	mu  sync.Mutex
	idx int
}

// NewRotationJob creates the rotation job over a fixed universe.
func NewRotationJob(scanner *Scanner, log *logger.Logger, symbols []string, interval time.Duration) *RotationJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RotationJob{scanner: scanner, logger: log, symbols: symbols, interval: interval}
}

func (j *RotationJob) Name() string { return "symbol_rotation" }

func (j *RotationJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}

func (j *RotationJob) Run(ctx context.Context) error {
	symbol := j.next()
	if symbol == "" {
		return nil
	}

	c, err := j.scanner.evaluator.Evaluate(ctx, symbol)
	if err != nil {
		// a single bad tick is noise, not a failure
		j.logger.Warn("rotation evaluation failed",
			logger.String("symbol", symbol), logger.Error(err))
		return nil
	}
	sig, decision, err := j.scanner.EmitCandidate(ctx, c, risk.Options{ATRPct: c.ATRPct})
	if err != nil {
		return err
	}
	if sig == nil {
		j.logger.Debug("rotation candidate blocked",
			logger.String("symbol", symbol),
			logger.String("reason", decision.Reason))
	}
	return nil
}

func (j *RotationJob) next() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.symbols) == 0 {
		return ""
	}
	s := j.symbols[j.idx%len(j.symbols)]
	j.idx++
	return s
}
