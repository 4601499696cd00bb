package repository

import (
	"context"
	"errors"
	"time"

	"EdgePulse/internal/domain/models"
)

// ErrNotPending is returned when a status transition targets a signal
// that is no longer pending. Terminal states never revert.
var ErrNotPending = errors.New("signal is not pending")

// ErrNotFound is returned when a signal does not exist.
var ErrNotFound = errors.New("signal not found")

// SignalStore persists signals and paper positions.
type SignalStore interface {
	Init(ctx context.Context) error // ensure tables
	Create(ctx context.Context, s *models.Signal) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status models.SignalStatus, now time.Time) error
	GetByID(ctx context.Context, id int64) (*models.Signal, error)
	ListPending(ctx context.Context) ([]*models.Signal, error)
	LatestPending(ctx context.Context) (*models.Signal, error)
	ListRecent(ctx context.Context, status models.SignalStatus, limit int) ([]*models.Signal, error)
	CountTodayBySymbol(ctx context.Context, symbol string, now time.Time) (int, error)
	OpenPosition(ctx context.Context, p *models.Position) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// TradeLedger is the append-only record of realized trade outcomes.
type TradeLedger interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, t *models.TradeOutcome) error
	TodayPnL(ctx context.Context, now time.Time) (float64, error)
	TodayTradeCount(ctx context.Context, now time.Time) (int, error)
	Health(ctx context.Context) error
	Close() error
}

// StateStore holds small shared engine state.
type StateStore interface {
	LastNewsSpike(ctx context.Context) (time.Time, error)
	SetLastNewsSpike(ctx context.Context, ts time.Time) error
	AutoscanEnabled(ctx context.Context) (bool, error)
	SetAutoscanEnabled(ctx context.Context, enabled bool) error
	Close() error
}

// SignalPublisher notifies downstream consumers of emitted signals.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, s *models.Signal) error
	Close() error
}

// PriceStream is a live last-price feed from a venue.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan models.Ticker24h, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records engine observability counters.
type Metrics interface {
	RecordEvaluation(symbol, result string)
	RecordGateVerdict(allowed bool, reason string)
	RecordSignal(status string)
	RecordRelaxStep()
	RecordEdge(symbol, side string, edge float64)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
