package risk

import (
	"context"
	"fmt"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/pkg/logger"
)

// Mode controls how far the engine is allowed to act.
type Mode string

const (
	ModeSafe   Mode = "SAFE" // analysis only, every candidate is blocked
	ModeHybrid Mode = "HYBRID"
	ModeOn     Mode = "ON" // live execution, requires venue credentials
)

// Config holds the gate thresholds.
type Config struct {
	Mode              Mode
	HasVenueAuth      bool
	TradingHoursStart string // "HH:MM", empty disables the window
	TradingHoursEnd   string
	Location          *time.Location
	NewsMute          time.Duration // 0 disables
	BreakerThreshold  float64
	MaxDailyTrades    int
	MaxSymbolSignals  int
	RRMin             float64
	EdgeThreshold     float64
	VolThrottleATRPct float64
}

// Options are per-call adjustments. Zero values fall back to config.
type Options struct {
	RRMin  float64
	EdgeTh float64
	ATRPct float64
}

// Gate applies the ordered risk rules to a trade candidate.
// The first failing rule short-circuits with its reason.
type Gate struct {
	cfg    Config
	ledger repository.TradeLedger
	store  repository.SignalStore
	state  repository.StateStore
	logger *logger.Logger
	now    func() time.Time
}

// New creates a gate. A nil location defaults to UTC.
func New(cfg Config, ledger repository.TradeLedger, store repository.SignalStore,
	state repository.StateStore, log *logger.Logger) *Gate {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Gate{
		cfg:    cfg,
		ledger: ledger,
		store:  store,
		state:  state,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// CanOpen decides whether a new signal may be emitted for symbol.
// Ledger and state read failures degrade to rule-passes so that a
// storage outage never silently blocks the whole engine.
func (g *Gate) CanOpen(ctx context.Context, symbol string, rr, edge float64, opts Options) models.GateDecision {
	now := g.now()

	switch g.cfg.Mode {
	case ModeSafe:
		return blocked("SAFE mode, analysis only")
	case ModeOn:
		if !g.cfg.HasVenueAuth {
			return blocked("ON mode blocked, venue credentials missing")
		}
	}

	if !g.tradingHoursOK(now) {
		return blocked("outside trading hours window")
	}

	if g.newsMuteActive(ctx, now) {
		return blocked("news mute active")
	}

	if g.breakerTripped(ctx, now) {
		return blocked(fmt.Sprintf("daily circuit breaker tripped (%.2f)", g.cfg.BreakerThreshold))
	}

	if n, err := g.ledger.TodayTradeCount(ctx, now); err != nil {
		g.logger.Warn("trade count unavailable, rule skipped", logger.Error(err))
	} else if n >= g.cfg.MaxDailyTrades {
		return blocked(fmt.Sprintf("daily trade limit reached (%d)", g.cfg.MaxDailyTrades))
	}

	if n, err := g.store.CountTodayBySymbol(ctx, symbol, now); err != nil {
		g.logger.Warn("symbol signal count unavailable, rule skipped",
			logger.String("symbol", symbol), logger.Error(err))
	} else if n >= g.cfg.MaxSymbolSignals {
		return blocked(fmt.Sprintf("per-symbol daily signal limit reached (%d)", g.cfg.MaxSymbolSignals))
	}

	rrMin := g.cfg.RRMin
	if opts.RRMin > 0 {
		rrMin = opts.RRMin
	}
	edgeTh := g.cfg.EdgeThreshold
	if opts.EdgeTh > 0 {
		edgeTh = opts.EdgeTh
	}
	if rr < rrMin {
		return blocked(fmt.Sprintf("RR %.2f below minimum %.2f", rr, rrMin))
	}
	if edge < edgeTh {
		return blocked(fmt.Sprintf("edge %.2f below threshold %.2f", edge, edgeTh))
	}

	decision := models.GateDecision{Allowed: true, Reason: "OK"}
	if opts.ATRPct >= g.cfg.VolThrottleATRPct && opts.ATRPct > 0 {
		decision.Hints = append(decision.Hints, "VOL_THROTTLE")
	}
	return decision
}

func (g *Gate) tradingHoursOK(now time.Time) bool {
	start := g.cfg.TradingHoursStart
	end := g.cfg.TradingHoursEnd
	if start == "" || end == "" {
		return true
	}
	cur := now.In(g.cfg.Location).Format("15:04")
	if start <= end {
		return start <= cur && cur <= end
	}
	// window wraps past midnight
	return cur >= start || cur <= end
}

func (g *Gate) newsMuteActive(ctx context.Context, now time.Time) bool {
	if g.cfg.NewsMute <= 0 {
		return false
	}
	last, err := g.state.LastNewsSpike(ctx)
	if err != nil {
		g.logger.Warn("news spike state unavailable, rule skipped", logger.Error(err))
		return false
	}
	if last.IsZero() {
		return false
	}
	return now.Sub(last) < g.cfg.NewsMute
}

func (g *Gate) breakerTripped(ctx context.Context, now time.Time) bool {
	pnl, err := g.ledger.TodayPnL(ctx, now)
	if err != nil {
		g.logger.Warn("daily pnl unavailable, rule skipped", logger.Error(err))
		return false
	}
	return pnl <= g.cfg.BreakerThreshold
}

func blocked(reason string) models.GateDecision {
	return models.GateDecision{Allowed: false, Reason: reason}
}
