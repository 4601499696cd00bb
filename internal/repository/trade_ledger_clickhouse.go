package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/pkg/util"
)

const tradeOutcomesSchema = `
CREATE TABLE IF NOT EXISTS trade_outcomes (
    ts        DateTime('UTC'),
    signal_id Int64,
    symbol    LowCardinality(String),
    side      LowCardinality(String),
    qty       Float64,
    price     Float64,
    pnl       Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(ts)
ORDER BY (symbol, ts)`

// ClickHouseTradeLedger is the append-only ledger of realized trades.
// The risk gate reads daily aggregates from it.
type ClickHouseTradeLedger struct {
	db *sql.DB
}

var _ repository.TradeLedger = (*ClickHouseTradeLedger)(nil)

// NewClickHouseTradeLedger creates the ledger on an existing pool.
func NewClickHouseTradeLedger(db *sql.DB) *ClickHouseTradeLedger {
	return &ClickHouseTradeLedger{db: db}
}

func (l *ClickHouseTradeLedger) Init(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, tradeOutcomesSchema); err != nil {
		return fmt.Errorf("init trade ledger: %w", err)
	}
	return nil
}

func (l *ClickHouseTradeLedger) Append(ctx context.Context, t *models.TradeOutcome) error {
	q := `INSERT INTO trade_outcomes (ts, signal_id, symbol, side, qty, price, pnl) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, q,
		t.Ts.UTC(), t.SignalID, t.Symbol, string(t.Side), t.Qty, t.Price, t.PnL)
	if err != nil {
		return fmt.Errorf("append trade outcome: %w", err)
	}
	return nil
}

func (l *ClickHouseTradeLedger) TodayPnL(ctx context.Context, now time.Time) (float64, error) {
	start, end := util.DayBoundsUTC(now)
	var pnl float64
	q := `SELECT COALESCE(SUM(pnl), 0) FROM trade_outcomes WHERE ts >= ? AND ts < ?`
	if err := l.db.QueryRowContext(ctx, q, start, end).Scan(&pnl); err != nil {
		return 0, fmt.Errorf("today pnl: %w", err)
	}
	return pnl, nil
}

func (l *ClickHouseTradeLedger) TodayTradeCount(ctx context.Context, now time.Time) (int, error) {
	start, end := util.DayBoundsUTC(now)
	var n uint64
	q := `SELECT COUNT(*) FROM trade_outcomes WHERE ts >= ? AND ts < ?`
	if err := l.db.QueryRowContext(ctx, q, start, end).Scan(&n); err != nil {
		return 0, fmt.Errorf("today trade count: %w", err)
	}
	return int(n), nil
}

func (l *ClickHouseTradeLedger) Health(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *ClickHouseTradeLedger) Close() error {
	return nil // pool owned by pkg/clickhouse
}
