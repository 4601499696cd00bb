package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EdgePulse/internal/domain/repository"
	"EdgePulse/pkg/logger"
)

type fakeLedger struct {
	repository.TradeLedger
	pnl      float64
	pnlErr   error
	count    int
	countErr error
}

func (f *fakeLedger) TodayPnL(ctx context.Context, now time.Time) (float64, error) {
	return f.pnl, f.pnlErr
}

func (f *fakeLedger) TodayTradeCount(ctx context.Context, now time.Time) (int, error) {
	return f.count, f.countErr
}

type fakeStore struct {
	repository.SignalStore
	symbolCount int
	countErr    error
}

func (f *fakeStore) CountTodayBySymbol(ctx context.Context, symbol string, now time.Time) (int, error) {
	return f.symbolCount, f.countErr
}

type fakeState struct {
	repository.StateStore
	lastNews time.Time
	err      error
}

func (f *fakeState) LastNewsSpike(ctx context.Context) (time.Time, error) {
	return f.lastNews, f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func baseConfig() Config {
	return Config{
		Mode:              ModeHybrid,
		BreakerThreshold:  -3.5,
		MaxDailyTrades:    4,
		MaxSymbolSignals:  3,
		RRMin:             1.2,
		EdgeThreshold:     0.62,
		VolThrottleATRPct: 0.02,
	}
}

func newTestGate(t *testing.T, cfg Config, ledger *fakeLedger, store *fakeStore, state *fakeState) *Gate {
	t.Helper()
	if ledger == nil {
		ledger = &fakeLedger{}
	}
	if store == nil {
		store = &fakeStore{}
	}
	if state == nil {
		state = &fakeState{}
	}
	g := New(cfg, ledger, store, state, testLogger(t))
	return g.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
}

func TestGateSafeModeBlocksEverything(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModeSafe
	g := newTestGate(t, cfg, nil, nil, nil)

	d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "SAFE")
}

func TestGateOnModeRequiresCredentials(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModeOn
	g := newTestGate(t, cfg, nil, nil, nil)

	d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "credentials")

	cfg.HasVenueAuth = true
	g = newTestGate(t, cfg, nil, nil, nil)
	d = g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.True(t, d.Allowed)
}

func TestGateTradingHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		hour, min  int
		want       bool
	}{
		{"inside plain window", "07:00", "23:00", 12, 0, true},
		{"boundary start inclusive", "07:00", "23:00", 7, 0, true},
		{"boundary end inclusive", "07:00", "23:00", 23, 0, true},
		{"outside plain window", "07:00", "23:00", 3, 30, false},
		{"wrap window late evening", "22:00", "04:00", 23, 0, true},
		{"wrap window early morning", "22:00", "04:00", 3, 0, true},
		{"wrap window blocked midday", "22:00", "04:00", 12, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.TradingHoursStart = tt.start
			cfg.TradingHoursEnd = tt.end
			g := New(cfg, &fakeLedger{}, &fakeStore{}, &fakeState{}, testLogger(t))
			g.WithClock(func() time.Time {
				return time.Date(2025, 6, 1, tt.hour, tt.min, 0, 0, time.UTC)
			})

			d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
			assert.Equal(t, tt.want, d.Allowed, d.Reason)
		})
	}
}

func TestGateNewsMute(t *testing.T) {
	cfg := baseConfig()
	cfg.NewsMute = 30 * time.Minute
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	state := &fakeState{lastNews: now.Add(-10 * time.Minute)}
	g := newTestGate(t, cfg, nil, nil, state)
	d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "news mute")

	state.lastNews = now.Add(-45 * time.Minute)
	d = g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.True(t, d.Allowed)
}

func TestGateNewsMuteDisabledByZero(t *testing.T) {
	cfg := baseConfig()
	cfg.NewsMute = 0
	state := &fakeState{lastNews: time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC)}
	g := newTestGate(t, cfg, nil, nil, state)

	d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.True(t, d.Allowed)
}

func TestGateCircuitBreaker(t *testing.T) {
	g := newTestGate(t, baseConfig(), &fakeLedger{pnl: -4.0}, nil, nil)
	d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "circuit breaker")

	// exactly at the threshold trips
	g = newTestGate(t, baseConfig(), &fakeLedger{pnl: -3.5}, nil, nil)
	d = g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.False(t, d.Allowed)

	g = newTestGate(t, baseConfig(), &fakeLedger{pnl: -3.49}, nil, nil)
	d = g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.True(t, d.Allowed)
}

func TestGateDailyTradeLimit(t *testing.T) {
	g := newTestGate(t, baseConfig(), &fakeLedger{count: 4}, nil, nil)
	d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "daily trade limit")
}

func TestGatePerSymbolLimit(t *testing.T) {
	g := newTestGate(t, baseConfig(), nil, &fakeStore{symbolCount: 3}, nil)
	d := g.CanOpen(context.Background(), "BTCUSDT", 5, 0.99, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "per-symbol")
}

func TestGateQualityFloor(t *testing.T) {
	g := newTestGate(t, baseConfig(), nil, nil, nil)

	d := g.CanOpen(context.Background(), "BTCUSDT", 1.1, 0.99, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "RR")

	d = g.CanOpen(context.Background(), "BTCUSDT", 2.0, 0.5, Options{})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "edge")

	d = g.CanOpen(context.Background(), "BTCUSDT", 1.2, 0.62, Options{})
	assert.True(t, d.Allowed)
}

func TestGateOverridesRelaxFloor(t *testing.T) {
	g := newTestGate(t, baseConfig(), nil, nil, nil)

	d := g.CanOpen(context.Background(), "BTCUSDT", 0.95, 0.56, Options{RRMin: 0.9, EdgeTh: 0.55})
	assert.True(t, d.Allowed)
}

func TestGateVolThrottleHintNonBlocking(t *testing.T) {
	g := newTestGate(t, baseConfig(), nil, nil, nil)

	d := g.CanOpen(context.Background(), "BTCUSDT", 2.0, 0.8, Options{ATRPct: 0.025})
	assert.True(t, d.Allowed)
	assert.Contains(t, d.Hints, "VOL_THROTTLE")

	d = g.CanOpen(context.Background(), "BTCUSDT", 2.0, 0.8, Options{ATRPct: 0.01})
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Hints)
}

func TestGateShortCircuitOrder(t *testing.T) {
	// Everything is wrong at once; mode must win.
	cfg := baseConfig()
	cfg.Mode = ModeSafe
	cfg.NewsMute = time.Hour
	state := &fakeState{lastNews: time.Date(2025, 6, 1, 11, 50, 0, 0, time.UTC)}
	ledger := &fakeLedger{pnl: -10, count: 99}
	g := newTestGate(t, cfg, ledger, &fakeStore{symbolCount: 99}, state)

	d := g.CanOpen(context.Background(), "BTCUSDT", 0, 0, Options{})
	assert.Contains(t, d.Reason, "SAFE")

	// With mode passing, news mute outranks the breaker and quotas.
	cfg.Mode = ModeHybrid
	g = newTestGate(t, cfg, ledger, &fakeStore{symbolCount: 99}, state)
	d = g.CanOpen(context.Background(), "BTCUSDT", 0, 0, Options{})
	assert.Contains(t, d.Reason, "news mute")
}

func TestGateDegradesOnStorageErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.NewsMute = time.Hour
	ledger := &fakeLedger{pnlErr: errors.New("ch down"), countErr: errors.New("ch down")}
	store := &fakeStore{countErr: errors.New("pg down")}
	state := &fakeState{err: errors.New("redis down")}
	g := newTestGate(t, cfg, ledger, store, state)

	d := g.CanOpen(context.Background(), "BTCUSDT", 2.0, 0.8, Options{})
	assert.True(t, d.Allowed, "storage failures must degrade to pass")

	// quality floor still applies without any I/O
	d = g.CanOpen(context.Background(), "BTCUSDT", 0.5, 0.8, Options{})
	assert.False(t, d.Allowed)
}
