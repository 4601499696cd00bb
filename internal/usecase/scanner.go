package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/services/risk"
	"EdgePulse/pkg/logger"
)

// ScanOptions tune one scan invocation. Zero thresholds fall back to
// the gate configuration.
type ScanOptions struct {
	RRMin          float64
	EdgeTh         float64
	Schedule       *models.RelaxationSchedule
	IncludeBlocked bool
}

// BlockedCandidate is a near-miss reported back to the operator.
type BlockedCandidate struct {
	Symbol string
	Edge   float64
	RR     float64
	Reason string
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Emitted []*models.Signal
	Blocked []BlockedCandidate
}

// Scanner evaluates symbol sets, ranks by edge and emits gated
// signals.
type Scanner struct {
	evaluator *Evaluator
	gate      *risk.Gate
	store     repository.SignalStore
	publisher repository.SignalPublisher
	metrics   repository.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// NewScanner wires the scan pipeline.
func NewScanner(evaluator *Evaluator, gate *risk.Gate, store repository.SignalStore,
	publisher repository.SignalPublisher, metrics repository.Metrics, log *logger.Logger) *Scanner {
	return &Scanner{
		evaluator: evaluator,
		gate:      gate,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// ScanAndRank evaluates every symbol in isolation, sorts by edge
// descending and keeps the first limit candidates that pass the gate.
// When nothing passes and a relaxation schedule is present, it walks
// the schedule until a step yields at least one signal or the
// schedule is exhausted.
func (s *Scanner) ScanAndRank(ctx context.Context, symbols []string, limit int, opts ScanOptions) (*ScanResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("scan", time.Since(start).Seconds()) }()

	candidates := make([]*Candidate, 0, len(symbols))
	for _, symbol := range symbols {
		c, err := s.evaluator.Evaluate(ctx, symbol)
		if err != nil {
			// one symbol must not abort the scan
			s.logger.Warn("symbol evaluation skipped",
				logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score.Edge > candidates[j].Score.Edge
	})

	result := &ScanResult{}
	emitted, blocked, err := s.pick(ctx, candidates, limit, opts.RRMin, opts.EdgeTh, "")
	if err != nil {
		return nil, err
	}

	relaxed := 0
	for len(emitted) == 0 && opts.Schedule != nil {
		th, ok := opts.Schedule.Next()
		if !ok {
			break
		}
		relaxed++
		s.metrics.RecordRelaxStep()
		note := fmt.Sprintf("relaxed %dx", relaxed)
		emitted, blocked, err = s.pick(ctx, candidates, limit, th.RRMin, th.EdgeTh, note)
		if err != nil {
			return nil, err
		}
	}

	result.Emitted = emitted
	if opts.IncludeBlocked {
		result.Blocked = blocked
	}
	return result, nil
}

// EmitCandidate gates, persists and publishes a single candidate.
// Returns the signal when emitted, or the blocking decision.
func (s *Scanner) EmitCandidate(ctx context.Context, c *Candidate, opts risk.Options) (*models.Signal, models.GateDecision, error) {
	decision := s.gate.CanOpen(ctx, c.Symbol, c.RR, c.Score.Edge, opts)
	s.metrics.RecordGateVerdict(decision.Allowed, decision.Reason)
	if !decision.Allowed {
		return nil, decision, nil
	}

	reason := c.Reason
	for _, h := range decision.Hints {
		reason += "; " + h
	}
	sig := c.Signal(s.now(), reason)
	if _, err := s.store.Create(ctx, sig); err != nil {
		// persistence failures are hard errors
		return nil, decision, fmt.Errorf("persist signal %s: %w", c.Symbol, err)
	}
	s.metrics.RecordSignal(string(models.StatusPending))

	// notification is glue: a publish failure never voids the signal
	if err := s.publisher.PublishSignal(ctx, sig); err != nil {
		s.logger.Warn("signal publish failed",
			logger.Int64("signal_id", sig.ID), logger.Error(err))
	}
	return sig, decision, nil
}

func (s *Scanner) pick(ctx context.Context, candidates []*Candidate, limit int,
	rrMin, edgeTh float64, note string) ([]*models.Signal, []BlockedCandidate, error) {
	var emitted []*models.Signal
	var blocked []BlockedCandidate

	for _, c := range candidates {
		if len(emitted) >= limit {
			break
		}
		opts := risk.Options{RRMin: rrMin, EdgeTh: edgeTh, ATRPct: c.ATRPct}
		sig, decision, err := s.EmitCandidate(ctx, c, opts)
		if err != nil {
			return nil, nil, err
		}
		if sig == nil {
			blocked = append(blocked, BlockedCandidate{
				Symbol: c.Symbol,
				Edge:   c.Score.Edge,
				RR:     c.RR,
				Reason: decision.Reason,
			})
			continue
		}
		if note != "" {
			sig.Reason += "; " + note
		}
		emitted = append(emitted, sig)
	}
	return emitted, blocked, nil
}
