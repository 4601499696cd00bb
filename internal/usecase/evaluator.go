package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/domain/service"
	"EdgePulse/internal/services/features"
	"EdgePulse/internal/services/fusion"
	"EdgePulse/pkg/logger"
)

// Candidate is one evaluated symbol before gating.
type Candidate struct {
	Symbol string
	Score  models.EdgeScore
	Plan   models.TradePlan
	RR     float64
	ATR    float64
	ATRPct float64
	Last   float64
	Reason string
}

// Evaluator runs the per-symbol pipeline: snapshot, features,
// sentiment, fusion, plan.
type Evaluator struct {
	collector *Collector
	scorer    *fusion.Scorer
	planner   service.TradePlanner
	sentiment service.SentimentSource
	metrics   repository.Metrics
	logger    *logger.Logger

	tf          repository.Timeframe
	confirmTF   repository.Timeframe
	candleLimit int
	now         func() time.Time
}

// NewEvaluator wires the evaluation pipeline. confirmTF may be empty
// to disable the multi-timeframe bonus.
func NewEvaluator(collector *Collector, scorer *fusion.Scorer, planner service.TradePlanner,
	sentiment service.SentimentSource, metrics repository.Metrics, log *logger.Logger,
	tf, confirmTF repository.Timeframe, candleLimit int) *Evaluator {
	return &Evaluator{
		collector:   collector,
		scorer:      scorer,
		planner:     planner,
		sentiment:   sentiment,
		metrics:     metrics,
		logger:      log,
		tf:          tf,
		confirmTF:   confirmTF,
		candleLimit: candleLimit,
		now:         time.Now,
	}
}

// WithClock overrides the time source.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate produces a gate-ready candidate for one symbol.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string) (*Candidate, error) {
	start := time.Now()
	defer func() { e.metrics.RecordLatency("evaluate", time.Since(start).Seconds()) }()

	snap, err := e.collector.Snapshot(ctx, symbol, e.tf, e.confirmTF, e.candleLimit)
	if err != nil {
		e.metrics.RecordEvaluation(symbol, "collect_failed")
		return nil, err
	}
	e.metrics.RecordLastPrice(symbol, snap.LastPrice)

	fvgLong, fvgShort := features.FVGScores(snap.Candles)
	atr := features.ATR(snap.Candles, 14)
	obi := features.OrderBookImbalance(snap.Book)

	// seed rr from a provisional half-ATR stop / 0.8-ATR target
	_, rrSeed := features.RiskReward(snap.LastPrice, snap.LastPrice-atr*0.5, snap.LastPrice+atr*0.8)

	sent, err := e.sentiment.Scores(ctx, symbol)
	if err != nil {
		sent = models.SentimentSet{News: 0.5, Whale: 0.5, OnChain: 0.5}
	}

	in := models.FusionInputs{
		FVGLong:  fvgLong,
		FVGShort: fvgShort,
		RRCoeff:  rrSeed,
		OBI:      obi,
		News:     sent.News,
		Whale:    sent.Whale,
		OnChain:  sent.OnChain,
	}
	if len(snap.ConfirmCandles) > 0 {
		in.ConfirmPresent = true
		in.ConfirmFVGLong, in.ConfirmFVGShort = features.FVGScores(snap.ConfirmCandles)
	}

	score := e.scorer.Fuse(symbol, in, e.now())
	e.metrics.RecordEdge(symbol, string(score.Side), score.Edge)

	plan, err := e.planner.Plan(ctx, symbol, score.Side, snap.LastPrice, atr)
	if err != nil {
		e.metrics.RecordEvaluation(symbol, "plan_failed")
		return nil, fmt.Errorf("plan %s: %w", symbol, err)
	}
	rr, _ := features.RiskReward(plan.Entry, plan.Stop, plan.TP1)

	atrPct := 0.0
	if snap.LastPrice > 0 {
		atrPct = atr / math.Max(snap.LastPrice, 1e-9)
	}

	e.metrics.RecordEvaluation(symbol, "ok")
	return &Candidate{
		Symbol: symbol,
		Score:  score,
		Plan:   plan,
		RR:     rr,
		ATR:    atr,
		ATRPct: atrPct,
		Last:   snap.LastPrice,
		Reason: fmt.Sprintf("FVG L/S=%.2f/%.2f; OBI=%.2f; ATR=%.5f", fvgLong, fvgShort, obi, atr),
	}, nil
}

// Signal materializes the candidate into a pending signal.
func (c *Candidate) Signal(now time.Time, reason string) *models.Signal {
	if reason == "" {
		reason = c.Reason
	}
	return &models.Signal{
		Symbol:    c.Symbol,
		Side:      c.Score.Side,
		Plan:      c.Plan,
		RR:        c.RR,
		Edge:      c.Score.Edge,
		Reason:    reason,
		Status:    models.StatusPending,
		CreatedAt: now,
		AutoRef:   now,
		UpdatedAt: now,
	}
}
