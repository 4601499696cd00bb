package usecase

import (
	"context"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/pkg/logger"
)

// PriceWatcher keeps the live last-price gauges fresh from the venue
// WebSocket stream.
type PriceWatcher struct {
	stream         repository.PriceStream
	metrics        repository.Metrics
	logger         *logger.Logger
	reconnectDelay time.Duration
}

// NewPriceWatcher creates the watcher.
func NewPriceWatcher(stream repository.PriceStream, metrics repository.Metrics,
	log *logger.Logger, reconnectDelay time.Duration) *PriceWatcher {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &PriceWatcher{
		stream:         stream,
		metrics:        metrics,
		logger:         log,
		reconnectDelay: reconnectDelay,
	}
}

// Start connects, subscribes and consumes the stream until ctx ends.
// Stream errors trigger reconnects with a fixed delay.
func (w *PriceWatcher) Start(ctx context.Context, symbols []string) error {
	if err := w.stream.Connect(ctx); err != nil {
		return err
	}
	if err := w.stream.Subscribe(ctx, symbols); err != nil {
		return err
	}

	ticks, errs := w.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return w.stream.Close()
		case t, ok := <-ticks:
			if !ok {
				// The reader buffers its failure right before closing
				// both channels, and the closed tick channel can win
				// this select. The cause must still be drained from
				// errs or a transient error looks like a clean stop.
				if errs != nil {
					if err, pending := <-errs; pending {
						nt, ne, alive := w.reopen(ctx, err)
						if !alive {
							return w.stream.Close()
						}
						ticks, errs = nt, ne
						continue
					}
				}
				return nil
			}
			w.metrics.RecordLastPrice(t.Symbol, t.LastPrice)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			nt, ne, alive := w.reopen(ctx, err)
			if !alive {
				return w.stream.Close()
			}
			ticks, errs = nt, ne
		}
	}
}

// reopen waits out the delay and reconnects until it succeeds or ctx
// ends. alive is false only when ctx ended.
func (w *PriceWatcher) reopen(ctx context.Context, cause error) (<-chan models.Ticker24h, <-chan error, bool) {
	w.logger.Warn("price stream error, reconnecting", logger.Error(cause))
	w.metrics.RecordError("price_stream")

	for {
		select {
		case <-ctx.Done():
			return nil, nil, false
		case <-time.After(w.reconnectDelay):
		}
		if err := w.stream.Reconnect(ctx); err != nil {
			w.logger.Error("price stream reconnect failed", logger.Error(err))
			continue
		}
		ticks, errs := w.stream.Read(ctx)
		return ticks, errs, true
	}
}
