package service

import (
	"context"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
)

// MarketDataSource provides venue market data for snapshot assembly.
type MarketDataSource interface {
	Klines(ctx context.Context, symbol string, tf repository.Timeframe, limit int) ([]models.Candle, error)
	Depth(ctx context.Context, symbol string, limit int) (models.OrderBook, error)
	Ticker(ctx context.Context, symbol string) (models.Ticker24h, error)
	AllTickers(ctx context.Context) ([]models.Ticker24h, error)
	Balances(ctx context.Context) ([]models.Balance, error)
}

// TradePlanner produces a trade plan for a directional candidate.
type TradePlanner interface {
	Plan(ctx context.Context, symbol string, side models.Side, last, volatility float64) (models.TradePlan, error)
}

// SentimentSource reports external sentiment scores, 0.5 when unknown.
type SentimentSource interface {
	Scores(ctx context.Context, symbol string) (models.SentimentSet, error)
}
