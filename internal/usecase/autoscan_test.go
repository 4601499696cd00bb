package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EdgePulse/internal/domain/models"
)

func newTestAutoscan(t *testing.T, e *testEngine, state *fakeState, cfg AutoscanConfig) *Autoscan {
	t.Helper()
	return NewAutoscan(e.venue, e.scanner, state, e.metrics, testLogger(t), cfg)
}

func TestAutoscanSkipsWhenDisabled(t *testing.T) {
	e := newTestEngine(t)
	a := newTestAutoscan(t, e, &fakeState{enabled: false}, DefaultAutoscanConfig())

	res, err := a.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Emitted)
	assert.Empty(t, e.pub.published)
}

func TestAutoscanEmitsFromVolumeBand(t *testing.T) {
	e := newTestEngine(t)
	e.strongSymbol("ALTUSDT")
	e.venue.all = []models.Ticker24h{
		{Symbol: "ALTUSDT", QuoteVolume: 5_000_000},
		{Symbol: "BTCUSDT", QuoteVolume: 900_000_000}, // major, excluded
		{Symbol: "TINYUSDT", QuoteVolume: 100_000},    // below the band
	}

	cfg := DefaultAutoscanConfig()
	cfg.RRMin = 0.90
	cfg.EdgeTh = 0.55
	a := newTestAutoscan(t, e, &fakeState{enabled: true}, cfg)

	res, err := a.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Emitted, 1)
	assert.Equal(t, "ALTUSDT", res.Emitted[0].Symbol)
}

func TestAutoscanExhaustsSilently(t *testing.T) {
	e := newTestEngine(t)
	// nothing ever lands inside the band, even fully relaxed
	e.venue.all = []models.Ticker24h{
		{Symbol: "TINYUSDT", QuoteVolume: 1},
	}
	a := newTestAutoscan(t, e, &fakeState{enabled: true}, DefaultAutoscanConfig())

	res, err := a.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Emitted)
}

func TestAutoscanUniverseFiltering(t *testing.T) {
	e := newTestEngine(t)
	cfg := DefaultAutoscanConfig()
	cfg.Exclude = []string{"SPAM"}
	a := newTestAutoscan(t, e, &fakeState{enabled: true}, cfg)

	tickers := []models.Ticker24h{
		{Symbol: "ALTUSDT", QuoteVolume: 10_000_000},
		{Symbol: "OTHERUSDT", QuoteVolume: 4_000_000},
		{Symbol: "ETHUSDT", QuoteVolume: 20_000_000},  // major
		{Symbol: "SPAMUSDT", QuoteVolume: 8_000_000},  // excluded by config
		{Symbol: "ALTBTC", QuoteVolume: 10_000_000},   // not a USDT pair
		{Symbol: "HUGEUSDT", QuoteVolume: 90_000_000}, // above the band
	}
	th := models.Thresholds{MinVolume: 3_000_000, MaxVolume: 60_000_000}

	got := a.buildUniverse(tickers, th)
	assert.Equal(t, []string{"ALTUSDT", "OTHERUSDT"}, got)
}

func TestAutoscanRelaxWidensBandAndHonorsFloors(t *testing.T) {
	e := newTestEngine(t)
	a := newTestAutoscan(t, e, &fakeState{enabled: true}, DefaultAutoscanConfig())

	th := models.Thresholds{
		RRMin: 0.90, EdgeTh: 0.55,
		MinVolume: 3_000_000, MaxVolume: 60_000_000,
	}
	for i := 0; i < 20; i++ {
		th = a.relax(th)
	}

	assert.Less(t, th.MinVolume, 3_000_000.0)
	assert.Greater(t, th.MaxVolume, 60_000_000.0)
	assert.Equal(t, 0.80, th.RRMin)
	assert.Equal(t, 0.50, th.EdgeTh)
}
