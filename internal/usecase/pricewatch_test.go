package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EdgePulse/internal/domain/models"
)

// replayStream serves a first read session that fails immediately: one
// buffered tick, one buffered error, both channels already closed. The
// second session is a clean shutdown.
type replayStream struct {
	reads      int
	reconnects int
	closed     bool
}

func (s *replayStream) Connect(ctx context.Context) error                     { return nil }
func (s *replayStream) Subscribe(ctx context.Context, symbols []string) error { return nil }
func (s *replayStream) Reconnect(ctx context.Context) error {
	s.reconnects++
	return nil
}
func (s *replayStream) Close() error      { s.closed = true; return nil }
func (s *replayStream) IsConnected() bool { return false }

func (s *replayStream) Read(ctx context.Context) (<-chan models.Ticker24h, <-chan error) {
	s.reads++
	ticks := make(chan models.Ticker24h, 1)
	errs := make(chan error, 1)
	if s.reads == 1 {
		ticks <- models.Ticker24h{Symbol: "BTCUSDT", LastPrice: 50000}
		errs <- errors.New("read: connection reset by peer")
	}
	close(ticks)
	close(errs)
	return ticks, errs
}

func TestPriceWatcherReconnectsAfterReadFailure(t *testing.T) {
	stream := &replayStream{}
	w := NewPriceWatcher(stream, &nopMetrics{}, testLogger(t), time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background(), []string{"BTCUSDT"}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not finish")
	}

	// The buffered error must be consumed even when the closed tick
	// channel wins the select race, so exactly one reconnect happens
	// before the clean second session ends the watcher.
	assert.Equal(t, 1, stream.reconnects)
	assert.Equal(t, 2, stream.reads)
}

func TestPriceWatcherStopsOnCleanClose(t *testing.T) {
	stream := &replayStream{reads: 1} // first session already consumed
	w := NewPriceWatcher(stream, &nopMetrics{}, testLogger(t), time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background(), nil) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not finish")
	}
	assert.Zero(t, stream.reconnects)
}
