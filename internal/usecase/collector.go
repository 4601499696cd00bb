package usecase

import (
	"context"
	"fmt"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/domain/service"
	"EdgePulse/pkg/logger"
)

const depthLimit = 100

// Collector assembles market snapshots from the primary venue with an
// optional fallback. A venue failure falls through; only both failing
// surfaces an error.
type Collector struct {
	primary  service.MarketDataSource
	fallback service.MarketDataSource
	logger   *logger.Logger
}

// NewCollector creates a collector. fallback may be nil.
func NewCollector(primary, fallback service.MarketDataSource, log *logger.Logger) *Collector {
	return &Collector{primary: primary, fallback: fallback, logger: log}
}

// Snapshot gathers candles, order book and last price for symbol.
// confirmTF is optional; its candles are best-effort and their absence
// never fails the snapshot.
func (c *Collector) Snapshot(ctx context.Context, symbol string, tf, confirmTF repository.Timeframe, limit int) (*models.MarketSnapshot, error) {
	snap, err := c.fetch(ctx, c.primary, symbol, tf, limit)
	if err != nil && c.fallback != nil {
		c.logger.Warn("primary venue failed, trying fallback",
			logger.String("symbol", symbol), logger.Error(err))
		snap, err = c.fetch(ctx, c.fallback, symbol, tf, limit)
	}
	if err != nil {
		return nil, err
	}

	if confirmTF != "" {
		// best-effort higher timeframe series
		if candles, err := c.primary.Klines(ctx, symbol, confirmTF, limit); err == nil {
			snap.ConfirmCandles = candles
		}
	}
	return snap, nil
}

func (c *Collector) fetch(ctx context.Context, src service.MarketDataSource, symbol string, tf repository.Timeframe, limit int) (*models.MarketSnapshot, error) {
	candles, err := src.Klines(ctx, symbol, tf, limit)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("collect %s: empty candle series", symbol)
	}

	snap := &models.MarketSnapshot{
		Symbol:    symbol,
		Candles:   candles,
		Timestamp: time.Now().UTC(),
	}

	// Order book and ticker are non-fatal; features degrade to
	// neutral scores without them.
	if book, err := src.Depth(ctx, symbol, depthLimit); err == nil {
		snap.Book = book
	}
	if ticker, err := src.Ticker(ctx, symbol); err == nil {
		snap.LastPrice = ticker.LastPrice
		snap.QuoteVolume24h = ticker.QuoteVolume
	}

	// last-price fallback chain: ticker, then latest close
	if snap.LastPrice <= 0 {
		snap.LastPrice = candles[len(candles)-1].Close
	}
	if snap.LastPrice <= 0 {
		return nil, fmt.Errorf("collect %s: no usable last price", symbol)
	}
	return snap, nil
}
