package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/services/fusion"
)

func TestSnapshotFallsBackToSecondaryVenue(t *testing.T) {
	primary := newFakeVenue()
	primary.failing["BTCUSDT"] = true
	secondary := newFakeVenue()
	secondary.candles["BTCUSDT"] = risingCandles("BTCUSDT", 10, 100)

	c := NewCollector(primary, secondary, testLogger(t))
	snap, err := c.Snapshot(context.Background(), "BTCUSDT", repository.TF15m, "", 10)
	require.NoError(t, err)
	assert.Len(t, snap.Candles, 10)
}

func TestSnapshotFailsWhenBothVenuesDown(t *testing.T) {
	primary := newFakeVenue()
	primary.failing["BTCUSDT"] = true
	secondary := newFakeVenue()
	secondary.failing["BTCUSDT"] = true

	c := NewCollector(primary, secondary, testLogger(t))
	_, err := c.Snapshot(context.Background(), "BTCUSDT", repository.TF15m, "", 10)
	assert.Error(t, err)
}

func TestSnapshotRejectsEmptySeries(t *testing.T) {
	venue := newFakeVenue()
	c := NewCollector(venue, nil, testLogger(t))

	_, err := c.Snapshot(context.Background(), "BTCUSDT", repository.TF15m, "", 10)
	assert.Error(t, err)
}

func TestSnapshotLastPriceFallsBackToClose(t *testing.T) {
	venue := newFakeVenue()
	venue.candles["BTCUSDT"] = risingCandles("BTCUSDT", 5, 100)
	// no ticker configured, the latest close must stand in

	c := NewCollector(venue, nil, testLogger(t))
	snap, err := c.Snapshot(context.Background(), "BTCUSDT", repository.TF15m, "", 5)
	require.NoError(t, err)
	assert.Equal(t, venue.candles["BTCUSDT"][4].Close, snap.LastPrice)
}

func TestSnapshotPrefersTickerPrice(t *testing.T) {
	venue := newFakeVenue()
	venue.candles["BTCUSDT"] = risingCandles("BTCUSDT", 5, 100)
	venue.tickers["BTCUSDT"] = models.Ticker24h{Symbol: "BTCUSDT", LastPrice: 123.45, QuoteVolume: 1e7}

	c := NewCollector(venue, nil, testLogger(t))
	snap, err := c.Snapshot(context.Background(), "BTCUSDT", repository.TF15m, "", 5)
	require.NoError(t, err)
	assert.Equal(t, 123.45, snap.LastPrice)
	assert.Equal(t, 1e7, snap.QuoteVolume24h)
}

func TestSnapshotCarriesConfirmSeries(t *testing.T) {
	venue := newFakeVenue()
	venue.candles["BTCUSDT"] = risingCandles("BTCUSDT", 5, 100)

	c := NewCollector(venue, nil, testLogger(t))
	snap, err := c.Snapshot(context.Background(), "BTCUSDT", repository.TF15m, repository.TF1h, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ConfirmCandles)
}

func TestEvaluateProducesDirectionalCandidate(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALPHAUSDT")

	c, err := e.scanner.evaluator.Evaluate(context.Background(), "ALPHAUSDT")
	require.NoError(t, err)

	assert.Equal(t, models.SideLong, c.Score.Side)
	assert.Greater(t, c.Score.Edge, 0.55)
	assert.Greater(t, c.RR, 0.0)
	assert.Greater(t, c.ATR, 0.0)
	assert.Greater(t, c.ATRPct, 0.0)
	assert.Contains(t, c.Reason, "FVG")
}

func TestEvaluatePlannerFailureSurfaces(t *testing.T) {
	log := testLogger(t)
	venue := newFakeVenue()
	venue.candles["BTCUSDT"] = risingCandles("BTCUSDT", 10, 100)

	ev := NewEvaluator(NewCollector(venue, nil, log), fusion.New(fusion.DefaultWeights()),
		&fakePlanner{err: assert.AnError},
		&fakeSentiment{set: models.SentimentSet{News: 0.5, Whale: 0.5, OnChain: 0.5}},
		&nopMetrics{}, log, repository.TF15m, "", 10)

	_, err := ev.Evaluate(context.Background(), "BTCUSDT")
	assert.Error(t, err)
}
