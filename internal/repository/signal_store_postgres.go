package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/pkg/util"
)

var signalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
        id         BIGSERIAL PRIMARY KEY,
        symbol     TEXT NOT NULL,
        side       TEXT NOT NULL,
        entry      DOUBLE PRECISION NOT NULL,
        stop       DOUBLE PRECISION NOT NULL,
        tp1        DOUBLE PRECISION NOT NULL,
        tp2        DOUBLE PRECISION NOT NULL,
        tp3        DOUBLE PRECISION NOT NULL,
        confidence DOUBLE PRECISION NOT NULL,
        success    DOUBLE PRECISION NOT NULL,
        rr         DOUBLE PRECISION NOT NULL,
        edge       DOUBLE PRECISION NOT NULL,
        reason     TEXT NOT NULL DEFAULT '',
        status     TEXT NOT NULL DEFAULT 'pending',
        created_at TIMESTAMPTZ NOT NULL,
        auto_ref   TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS signals_status_idx ON signals (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS signals_symbol_day_idx ON signals (symbol, created_at)`,
	`CREATE TABLE IF NOT EXISTS positions (
        id        BIGSERIAL PRIMARY KEY,
        signal_id BIGINT REFERENCES signals(id) ON DELETE SET NULL,
        symbol    TEXT NOT NULL,
        side      TEXT NOT NULL,
        qty       DOUBLE PRECISION NOT NULL,
        entry     DOUBLE PRECISION NOT NULL,
        stop      DOUBLE PRECISION NOT NULL,
        tp1       DOUBLE PRECISION NOT NULL,
        tp2       DOUBLE PRECISION NOT NULL,
        tp3       DOUBLE PRECISION NOT NULL,
        closed    BOOLEAN NOT NULL DEFAULT FALSE,
        pnl       DOUBLE PRECISION NOT NULL DEFAULT 0,
        opened_at TIMESTAMPTZ NOT NULL
    )`,
}

// PostgresSignalStore persists signals and paper positions.
type PostgresSignalStore struct {
	pool *pgxpool.Pool
}

var _ repository.SignalStore = (*PostgresSignalStore)(nil)

// NewPostgresSignalStore creates the store on an existing pool.
func NewPostgresSignalStore(pool *pgxpool.Pool) *PostgresSignalStore {
	return &PostgresSignalStore{pool: pool}
}

func (s *PostgresSignalStore) Init(ctx context.Context) error {
	for _, stmt := range signalSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init signal store: %w", err)
		}
	}
	return nil
}

func (s *PostgresSignalStore) Create(ctx context.Context, sig *models.Signal) (int64, error) {
	q := `INSERT INTO signals
        (symbol, side, entry, stop, tp1, tp2, tp3, confidence, success, rr, edge, reason, status, created_at, auto_ref, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, q,
		sig.Symbol, string(sig.Side),
		sig.Plan.Entry, sig.Plan.Stop, sig.Plan.TP1, sig.Plan.TP2, sig.Plan.TP3,
		sig.Plan.Confidence, sig.Plan.Success,
		sig.RR, sig.Edge, sig.Reason, string(sig.Status),
		sig.CreatedAt, sig.AutoRef, sig.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create signal: %w", err)
	}
	sig.ID = id
	return id, nil
}

func (s *PostgresSignalStore) UpdateStatus(ctx context.Context, id int64, status models.SignalStatus, now time.Time) error {
	q := `UPDATE signals SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'pending'`
	tag, err := s.pool.Exec(ctx, q, id, string(status), now)
	if err != nil {
		return fmt.Errorf("update signal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotPending
	}
	return nil
}

const signalColumns = `id, symbol, side, entry, stop, tp1, tp2, tp3, confidence, success, rr, edge, reason, status, created_at, auto_ref, updated_at`

func (s *PostgresSignalStore) GetByID(ctx context.Context, id int64) (*models.Signal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+signalColumns+` FROM signals WHERE id = $1`, id)
	sig, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return sig, err
}

func (s *PostgresSignalStore) ListPending(ctx context.Context) ([]*models.Signal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

func (s *PostgresSignalStore) LatestPending(ctx context.Context) (*models.Signal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE status = 'pending' ORDER BY created_at DESC LIMIT 1`)
	sig, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return sig, err
}

func (s *PostgresSignalStore) ListRecent(ctx context.Context, status models.SignalStatus, limit int) ([]*models.Signal, error) {
	var rows pgx.Rows
	var err error
	if status == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT `+signalColumns+` FROM signals ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+signalColumns+` FROM signals WHERE status = $1 ORDER BY created_at DESC LIMIT $2`,
			string(status), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

func (s *PostgresSignalStore) CountTodayBySymbol(ctx context.Context, symbol string, now time.Time) (int, error) {
	start, end := util.DayBoundsUTC(now)
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM signals WHERE symbol = $1 AND created_at >= $2 AND created_at < $3`,
		symbol, start, end).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count today by symbol: %w", err)
	}
	return n, nil
}

func (s *PostgresSignalStore) OpenPosition(ctx context.Context, p *models.Position) (int64, error) {
	q := `INSERT INTO positions
        (signal_id, symbol, side, qty, entry, stop, tp1, tp2, tp3, opened_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, q,
		p.SignalID, p.Symbol, string(p.Side), p.Qty,
		p.Entry, p.Stop, p.TP1, p.TP2, p.TP3, p.OpenedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("open position: %w", err)
	}
	p.ID = id
	return id, nil
}

func (s *PostgresSignalStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSignalStore) Close() error {
	return nil // pool owned by pkg/postgres
}

func scanSignal(row pgx.Row) (*models.Signal, error) {
	var sig models.Signal
	var side, status string
	err := row.Scan(&sig.ID, &sig.Symbol, &side,
		&sig.Plan.Entry, &sig.Plan.Stop, &sig.Plan.TP1, &sig.Plan.TP2, &sig.Plan.TP3,
		&sig.Plan.Confidence, &sig.Plan.Success,
		&sig.RR, &sig.Edge, &sig.Reason, &status,
		&sig.CreatedAt, &sig.AutoRef, &sig.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sig.Side = models.Side(side)
	sig.Status = models.SignalStatus(status)
	return &sig, nil
}

func scanSignals(rows pgx.Rows) ([]*models.Signal, error) {
	var out []*models.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
