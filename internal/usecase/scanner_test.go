package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/services/fusion"
	"EdgePulse/internal/services/risk"
)

type testEngine struct {
	scanner *Scanner
	store   *memStore
	pub     *fakePublisher
	venue   *fakeVenue
	metrics *nopMetrics
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	log := testLogger(t)
	venue := newFakeVenue()
	store := newMemStore()
	pub := &fakePublisher{}
	metrics := &nopMetrics{}

	gate := risk.New(risk.Config{
		Mode:              risk.ModeHybrid,
		BreakerThreshold:  -3.5,
		MaxDailyTrades:    100,
		MaxSymbolSignals:  100,
		RRMin:             1.2,
		EdgeThreshold:     0.55,
		VolThrottleATRPct: 0.02,
	}, &fakeLedger{}, store, &fakeState{}, log)

	collector := NewCollector(venue, nil, log)
	evaluator := NewEvaluator(collector, fusion.New(fusion.DefaultWeights()),
		&fakePlanner{confidence: 0.85},
		&fakeSentiment{set: models.SentimentSet{News: 0.9, Whale: 0.9, OnChain: 0.9}},
		metrics, log, repository.TF15m, repository.TF1h, 30)

	return &testEngine{
		scanner: NewScanner(evaluator, gate, store, pub, metrics, log),
		store:   store,
		pub:     pub,
		venue:   venue,
		metrics: metrics,
	}
}

// strongSymbol sets up market data that clears the default gate.
func (e *testEngine) strongSymbol(symbol string) {
	e.venue.candles[symbol] = gapUpCandles(symbol, 30, 100)
	e.venue.books[symbol] = bidHeavyBook(symbol)
}

// weakSymbol sets up data whose edge stays below the default gate.
func (e *testEngine) weakSymbol(symbol string) {
	e.venue.candles[symbol] = risingCandles(symbol, 30, 100)
}

func TestScanEmitsGatedSignals(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")
	e.weakSymbol("BETAUSDT")

	res, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"ALPHAUSDT", "BETAUSDT"}, 3, ScanOptions{})
	require.NoError(t, err)

	require.Len(t, res.Emitted, 1)
	sig := res.Emitted[0]
	assert.Equal(t, "ALPHAUSDT", sig.Symbol)
	assert.Equal(t, models.SideLong, sig.Side)
	assert.Equal(t, models.StatusPending, sig.Status)
	assert.Greater(t, sig.RR, 1.2)

	// persisted and published
	assert.Equal(t, models.StatusPending, e.store.status(t, sig.ID))
	assert.Equal(t, []int64{sig.ID}, e.pub.published)

	// durations observed for the scan and each evaluation
	assert.Contains(t, e.metrics.latencyOps, "scan")
	assert.Contains(t, e.metrics.latencyOps, "evaluate")
}

func TestScanRanksByEdgeBeforeGating(t *testing.T) {
	e := newTestEngine(t)
	// both pass the gate, but ALPHAUSDT carries the stronger book
	e.strongSymbol("ALPHAUSDT")
	e.venue.candles["GAMMAUSDT"] = gapUpCandles("GAMMAUSDT", 30, 100)

	res, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"GAMMAUSDT", "ALPHAUSDT"}, 1, ScanOptions{})
	require.NoError(t, err)

	require.Len(t, res.Emitted, 1)
	assert.Equal(t, "ALPHAUSDT", res.Emitted[0].Symbol)
}

func TestScanIsolatesFailingSymbols(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")
	e.venue.failing["DOWNUSDT"] = true

	res, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"DOWNUSDT", "ALPHAUSDT"}, 3, ScanOptions{})
	require.NoError(t, err)

	require.Len(t, res.Emitted, 1)
	assert.Equal(t, "ALPHAUSDT", res.Emitted[0].Symbol)
}

func TestScanRelaxationEmitsOnLooserStep(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")

	schedule := models.NewRelaxationSchedule(
		models.Thresholds{RRMin: 0.90, EdgeTh: 0.50},
	)
	res, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"ALPHAUSDT"}, 3, ScanOptions{EdgeTh: 0.99, Schedule: schedule})
	require.NoError(t, err)

	require.Len(t, res.Emitted, 1)
	assert.Contains(t, res.Emitted[0].Reason, "relaxed 1x")
	assert.Equal(t, 1, e.metrics.relaxSteps)
}

func TestScanRelaxationExhaustsSilently(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")

	schedule := models.NewRelaxationSchedule(
		models.Thresholds{RRMin: 0.90, EdgeTh: 0.99},
		models.Thresholds{RRMin: 0.90, EdgeTh: 0.99},
		models.Thresholds{RRMin: 0.90, EdgeTh: 0.99},
	)
	res, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"ALPHAUSDT"}, 3, ScanOptions{EdgeTh: 0.99, Schedule: schedule})
	require.NoError(t, err)

	assert.Empty(t, res.Emitted)
	assert.Equal(t, 3, e.metrics.relaxSteps)
}

func TestScanReportsBlockedCandidates(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")

	res, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"ALPHAUSDT"}, 3, ScanOptions{EdgeTh: 0.99, IncludeBlocked: true})
	require.NoError(t, err)

	assert.Empty(t, res.Emitted)
	require.Len(t, res.Blocked, 1)
	assert.Equal(t, "ALPHAUSDT", res.Blocked[0].Symbol)
	assert.Contains(t, res.Blocked[0].Reason, "edge")
}

func TestScanPublishFailureDoesNotVoidSignal(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")
	e.pub.err = errors.New("broker unreachable")

	res, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"ALPHAUSDT"}, 3, ScanOptions{})
	require.NoError(t, err)

	require.Len(t, res.Emitted, 1)
	assert.Equal(t, models.StatusPending, e.store.status(t, res.Emitted[0].ID))
}

func TestScanPersistenceFailureAborts(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")
	e.store.createErr = errors.New("pg down")

	_, err := e.scanner.ScanAndRank(context.Background(),
		[]string{"ALPHAUSDT"}, 3, ScanOptions{})
	assert.Error(t, err)
}
