package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/domain/service"
	"EdgePulse/pkg/logger"
)

// majors are excluded from autoscan discovery; the rotation covers
// them already and their volume dwarfs the band anyway.
var majors = map[string]struct{}{
	"BTC": {}, "ETH": {}, "BNB": {}, "SOL": {}, "USDT": {}, "USDC": {},
	"XRP": {}, "ADA": {}, "DOGE": {}, "TRX": {}, "TON": {}, "DOT": {},
	"MATIC": {}, "LTC": {}, "BCH": {}, "LINK": {}, "AVAX": {}, "ATOM": {},
	"FIL": {}, "APT": {}, "OP": {}, "ARB": {}, "NEAR": {}, "ETC": {},
}

// AutoscanConfig controls periodic market discovery.
type AutoscanConfig struct {
	MinVolume     float64
	MaxVolume     float64
	RRMin         float64
	EdgeTh        float64
	RRFloor       float64
	EdgeFloor     float64
	MaxRelaxSteps int
	Limit         int
	Exclude       []string
}

// DefaultAutoscanConfig mirrors the engine defaults.
func DefaultAutoscanConfig() AutoscanConfig {
	return AutoscanConfig{
		MinVolume:     3_000_000,
		MaxVolume:     60_000_000,
		RRMin:         0.90,
		EdgeTh:        0.55,
		RRFloor:       0.80,
		EdgeFloor:     0.50,
		MaxRelaxSteps: 10,
		Limit:         3,
	}
}

// Autoscan discovers tradable mid-volume USDT pairs on a schedule.
// Each relaxation step widens the volume band and lowers the quality
// bar, and rebuilds the candidate universe from the wider band.
type Autoscan struct {
	venue   service.MarketDataSource
	scanner *Scanner
	state   repository.StateStore
	metrics repository.Metrics
	logger  *logger.Logger
	cfg     AutoscanConfig
}

// NewAutoscan wires the discovery controller.
func NewAutoscan(venue service.MarketDataSource, scanner *Scanner, state repository.StateStore,
	metrics repository.Metrics, log *logger.Logger, cfg AutoscanConfig) *Autoscan {
	return &Autoscan{
		venue:   venue,
		scanner: scanner,
		state:   state,
		metrics: metrics,
		logger:  log,
		cfg:     cfg,
	}
}

// RunCycle executes one discovery pass. When the shared autoscan flag
// is off the cycle is a no-op. Exhausting every relaxation step
// without a signal ends the cycle silently.
func (a *Autoscan) RunCycle(ctx context.Context) (*ScanResult, error) {
	enabled, err := a.state.AutoscanEnabled(ctx)
	if err != nil {
		a.logger.Warn("autoscan flag unreadable, assuming enabled", logger.Error(err))
		enabled = true
	}
	if !enabled {
		a.logger.Debug("autoscan disabled, skipping cycle")
		return &ScanResult{}, nil
	}

	tickers, err := a.venue.AllTickers(ctx)
	if err != nil {
		a.metrics.RecordError("autoscan_tickers")
		return nil, fmt.Errorf("autoscan tickers: %w", err)
	}

	th := models.Thresholds{
		RRMin:     a.cfg.RRMin,
		EdgeTh:    a.cfg.EdgeTh,
		MinVolume: a.cfg.MinVolume,
		MaxVolume: a.cfg.MaxVolume,
	}
	for step := 0; step <= a.cfg.MaxRelaxSteps; step++ {
		universe := a.buildUniverse(tickers, th)
		if len(universe) > 0 {
			res, err := a.scanner.ScanAndRank(ctx, universe, a.cfg.Limit, ScanOptions{
				RRMin:  th.RRMin,
				EdgeTh: th.EdgeTh,
			})
			if err != nil {
				return nil, err
			}
			if len(res.Emitted) > 0 {
				a.logger.Info("autoscan cycle emitted",
					logger.Int("signals", len(res.Emitted)),
					logger.Int("relax_steps", step))
				return res, nil
			}
		}
		if step < a.cfg.MaxRelaxSteps {
			a.metrics.RecordRelaxStep()
		}
		th = a.relax(th)
	}

	a.logger.Info("autoscan cycle exhausted without signals")
	return &ScanResult{}, nil
}

// relax widens the volume band and lowers the quality floors one
// notch, honoring the configured floors.
func (a *Autoscan) relax(th models.Thresholds) models.Thresholds {
	th.MinVolume *= 0.95
	th.MaxVolume /= 0.95
	th.RRMin -= 0.02
	if th.RRMin < a.cfg.RRFloor {
		th.RRMin = a.cfg.RRFloor
	}
	th.EdgeTh -= 0.01
	if th.EdgeTh < a.cfg.EdgeFloor {
		th.EdgeTh = a.cfg.EdgeFloor
	}
	return th
}

// buildUniverse filters tickers to USDT pairs inside the volume band,
// drops majors and configured exclusions, and returns the top symbols
// by volume.
func (a *Autoscan) buildUniverse(tickers []models.Ticker24h, th models.Thresholds) []string {
	var in []models.Ticker24h
	for _, t := range tickers {
		base, ok := strings.CutSuffix(t.Symbol, "USDT")
		if !ok || base == "" {
			continue
		}
		if _, skip := majors[base]; skip {
			continue
		}
		if a.excluded(t.Symbol, base) {
			continue
		}
		if t.QuoteVolume < th.MinVolume || t.QuoteVolume > th.MaxVolume {
			continue
		}
		in = append(in, t)
	}
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].QuoteVolume > in[j].QuoteVolume
	})

	max := a.cfg.Limit * 6
	if len(in) > max {
		in = in[:max]
	}
	symbols := make([]string, len(in))
	for i, t := range in {
		symbols[i] = t.Symbol
	}
	return symbols
}

func (a *Autoscan) excluded(symbol, base string) bool {
	for _, x := range a.cfg.Exclude {
		if strings.EqualFold(x, symbol) || strings.EqualFold(x, base) {
			return true
		}
	}
	return false
}
