package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
)

// Stream implements PriceStream over the Binance mini-ticker feed.
type Stream struct {
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	symbols   []string
	connected bool
}

var _ repository.PriceStream = (*Stream)(nil)

// NewStream creates a Binance price stream.
func NewStream(websocketURL string, reconnectDelay, pingInterval time.Duration) *Stream {
	return &Stream{
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	return nil
}

// Subscribe subscribes to mini-ticker updates for symbols.
func (s *Stream) Subscribe(ctx context.Context, symbols []string) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance stream not connected")
	}
	s.symbols = symbols

	params := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		params = append(params, strings.ToLower(sym)+"@miniTicker")
	}
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("binance subscribe: %w", err)
	}
	return nil
}

type miniTicker struct {
	Event       string `json:"e"`
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	QuoteVolume string `json:"q"`
}

// Read streams ticker events and errors.
func (s *Stream) Read(ctx context.Context) (<-chan models.Ticker24h, <-chan error) {
	ticks := make(chan models.Ticker24h, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance stream read: %w", err)
					return
				}
				var m miniTicker
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore control frames
					continue
				}
				if m.Event != "24hrMiniTicker" {
					continue
				}
				tick := models.Ticker24h{
					Symbol:      m.Symbol,
					LastPrice:   parseFloat(m.Close),
					QuoteVolume: parseFloat(m.QuoteVolume),
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects, restoring subscriptions.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx, s.symbols)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
