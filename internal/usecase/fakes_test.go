package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

// memStore is an in-memory SignalStore honoring the pending-only
// transition rule.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	signals map[int64]*models.Signal
	pos     []*models.Position

	createErr error
	listErr   error
}

func newMemStore() *memStore {
	return &memStore{signals: make(map[int64]*models.Signal)}
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) Create(ctx context.Context, s *models.Signal) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.signals[s.ID] = &cp
	return s.ID, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id int64, status models.SignalStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signals[id]
	if !ok || s.Status != models.StatusPending {
		return repository.ErrNotPending
	}
	s.Status = status
	s.UpdatedAt = now
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListPending(ctx context.Context) ([]*models.Signal, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Signal
	for id := int64(1); id <= m.nextID; id++ {
		if s, ok := m.signals[id]; ok && s.Status == models.StatusPending {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) LatestPending(ctx context.Context) (*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := m.nextID; id >= 1; id-- {
		if s, ok := m.signals[id]; ok && s.Status == models.StatusPending {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListRecent(ctx context.Context, status models.SignalStatus, limit int) ([]*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Signal
	for id := m.nextID; id >= 1 && len(out) < limit; id-- {
		s, ok := m.signals[id]
		if !ok {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) CountTodayBySymbol(ctx context.Context, symbol string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.signals {
		if s.Symbol == symbol {
			n++
		}
	}
	return n, nil
}

func (m *memStore) OpenPosition(ctx context.Context, p *models.Position) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.pos) + 1)
	cp := *p
	m.pos = append(m.pos, &cp)
	return p.ID, nil
}

func (m *memStore) Health(ctx context.Context) error { return nil }
func (m *memStore) Close() error                     { return nil }

func (m *memStore) status(t *testing.T, id int64) models.SignalStatus {
	t.Helper()
	s, err := m.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s.Status
}

// nopMetrics satisfies the interface, keeping only what tests assert.
type nopMetrics struct {
	relaxSteps int
	latencyOps []string
}

func (n *nopMetrics) RecordEvaluation(string, string)    {}
func (n *nopMetrics) RecordGateVerdict(bool, string)     {}
func (n *nopMetrics) RecordSignal(string)                {}
func (n *nopMetrics) RecordRelaxStep()                   { n.relaxSteps++ }
func (n *nopMetrics) RecordEdge(string, string, float64) {}
func (n *nopMetrics) RecordLastPrice(string, float64)    {}
func (n *nopMetrics) RecordError(string)                 {}
func (n *nopMetrics) RecordLatency(op string, _ float64) { n.latencyOps = append(n.latencyOps, op) }

// fakeVenue serves canned market data per symbol.
type fakeVenue struct {
	candles map[string][]models.Candle
	books   map[string]models.OrderBook
	tickers map[string]models.Ticker24h
	all     []models.Ticker24h
	allErr  error
	failing map[string]bool
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{
		candles: make(map[string][]models.Candle),
		books:   make(map[string]models.OrderBook),
		tickers: make(map[string]models.Ticker24h),
		failing: make(map[string]bool),
	}
}

func (v *fakeVenue) Klines(ctx context.Context, symbol string, tf repository.Timeframe, limit int) ([]models.Candle, error) {
	if v.failing[symbol] {
		return nil, fmt.Errorf("venue down for %s", symbol)
	}
	return v.candles[symbol], nil
}

func (v *fakeVenue) Depth(ctx context.Context, symbol string, limit int) (models.OrderBook, error) {
	return v.books[symbol], nil
}

func (v *fakeVenue) Ticker(ctx context.Context, symbol string) (models.Ticker24h, error) {
	return v.tickers[symbol], nil
}

func (v *fakeVenue) AllTickers(ctx context.Context) ([]models.Ticker24h, error) {
	return v.all, v.allErr
}

func (v *fakeVenue) Balances(ctx context.Context) ([]models.Balance, error) {
	return nil, nil
}

// fakePlanner returns a fixed plan shape scaled off the last price.
type fakePlanner struct {
	confidence float64
	err        error
}

func (p *fakePlanner) Plan(ctx context.Context, symbol string, side models.Side, last, vol float64) (models.TradePlan, error) {
	if p.err != nil {
		return models.TradePlan{}, p.err
	}
	return models.TradePlan{
		Entry:      last,
		Stop:       last * 0.98,
		TP1:        last * 1.03,
		TP2:        last * 1.05,
		TP3:        last * 1.08,
		Confidence: p.confidence,
		Success:    0.65,
	}, nil
}

// fakeSentiment returns fixed scores.
type fakeSentiment struct{ set models.SentimentSet }

func (s *fakeSentiment) Scores(ctx context.Context, symbol string) (models.SentimentSet, error) {
	return s.set, nil
}

// fakePublisher records published signals.
type fakePublisher struct {
	mu        sync.Mutex
	published []int64
	err       error
}

func (p *fakePublisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, s.ID)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fakeLedger reports fixed daily totals.
type fakeLedger struct {
	pnl    float64
	trades int
}

func (l *fakeLedger) Init(ctx context.Context) error                        { return nil }
func (l *fakeLedger) Append(ctx context.Context, t *models.TradeOutcome) error { return nil }
func (l *fakeLedger) TodayPnL(ctx context.Context, now time.Time) (float64, error) {
	return l.pnl, nil
}
func (l *fakeLedger) TodayTradeCount(ctx context.Context, now time.Time) (int, error) {
	return l.trades, nil
}
func (l *fakeLedger) Health(ctx context.Context) error { return nil }
func (l *fakeLedger) Close() error                     { return nil }

// fakeState is an in-memory StateStore.
type fakeState struct {
	lastNews time.Time
	enabled  bool
	enErr    error
}

func (s *fakeState) LastNewsSpike(ctx context.Context) (time.Time, error) { return s.lastNews, nil }
func (s *fakeState) SetLastNewsSpike(ctx context.Context, ts time.Time) error {
	s.lastNews = ts
	return nil
}
func (s *fakeState) AutoscanEnabled(ctx context.Context) (bool, error) { return s.enabled, s.enErr }
func (s *fakeState) SetAutoscanEnabled(ctx context.Context, enabled bool) error {
	s.enabled = enabled
	return nil
}
func (s *fakeState) Close() error { return nil }

// risingCandles makes a steadily rising series so long features win.
func risingCandles(symbol string, n int, start float64) []models.Candle {
	out := make([]models.Candle, n)
	price := start
	for i := range out {
		out[i] = models.Candle{
			OpenTime: time.Date(2025, 6, 1, 0, i, 0, 0, time.UTC),
			Symbol:   symbol,
			Open:     price,
			High:     price * 1.012,
			Low:      price * 0.999,
			Close:    price * 1.01,
			Volume:   1000,
		}
		price *= 1.01
	}
	return out
}

// gapUpCandles jumps price up every bar, leaving fresh value gaps so
// the long features score well above neutral.
func gapUpCandles(symbol string, n int, start float64) []models.Candle {
	out := make([]models.Candle, n)
	price := start
	for i := range out {
		out[i] = models.Candle{
			OpenTime: time.Date(2025, 6, 1, 0, i, 0, 0, time.UTC),
			Symbol:   symbol,
			Open:     price,
			High:     price + 1,
			Low:      price - 1,
			Close:    price + 0.5,
			Volume:   1000,
		}
		price += 3
	}
	return out
}

// bidHeavyBook tilts the imbalance long.
func bidHeavyBook(symbol string) models.OrderBook {
	return models.OrderBook{
		Symbol: symbol,
		Bids:   []models.BookLevel{{Price: 99, Size: 90}, {Price: 98, Size: 80}},
		Asks:   []models.BookLevel{{Price: 101, Size: 10}, {Price: 102, Size: 5}},
	}
}
