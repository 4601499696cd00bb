package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/service/ratelimit"
	"EdgePulse/pkg/config"
)

func TestFallbackSourceOnlyWhenConfigured(t *testing.T) {
	cfg := &config.Config{}
	lim := ratelimit.New()

	assert.Nil(t, fallbackSource(cfg, lim))

	cfg.Venue.FallbackURL = "https://api.bitget.com"
	cfg.Venue.RequestsPerSec = 10
	cfg.Venue.Burst = 20
	require.NotNil(t, fallbackSource(cfg, lim))
}

func TestConfirmTimeframeResolution(t *testing.T) {
	cfg := &config.Config{}
	cfg.Engine.Timeframe = "15m"

	cfg.Engine.ConfirmTimeframe = "1h"
	assert.Equal(t, repository.TF1h, confirmTimeframe(cfg))

	// empty and "none" disable the confirm series
	cfg.Engine.ConfirmTimeframe = ""
	assert.Equal(t, repository.Timeframe(""), confirmTimeframe(cfg))
	cfg.Engine.ConfirmTimeframe = "none"
	assert.Equal(t, repository.Timeframe(""), confirmTimeframe(cfg))

	// a confirm series equal to the base would double-count its candles
	cfg.Engine.ConfirmTimeframe = "15m"
	assert.Equal(t, repository.Timeframe(""), confirmTimeframe(cfg))

	// unknown values normalize to the default, which is the base here
	cfg.Engine.ConfirmTimeframe = "17m"
	assert.Equal(t, repository.Timeframe(""), confirmTimeframe(cfg))
}
