package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	"EdgePulse/internal/domain/service"
	"EdgePulse/internal/service/ratelimit"
	xhttp "EdgePulse/pkg/http"
)

const limiterKey = "binance:rest"

// Client is a Binance spot REST client implementing MarketDataSource.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *xhttp.Client
	limiter   *ratelimit.Limiter
	burst     float64
	refill    float64
}

var _ service.MarketDataSource = (*Client)(nil)

// Config holds REST client settings.
type Config struct {
	BaseURL        string
	APIKey         string
	APISecret      string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// New creates a Binance REST client.
func New(cfg Config, limiter *ratelimit.Limiter) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		client:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter:   limiter,
		burst:     float64(cfg.Burst),
		refill:    cfg.RequestsPerSec,
	}
}

// HasAuth reports whether API credentials are configured.
func (c *Client) HasAuth() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

func (c *Client) allow() error {
	if c.limiter == nil {
		return nil
	}
	if !c.limiter.Allow(limiterKey, c.burst, c.refill) {
		return fmt.Errorf("binance: rate limit exceeded")
	}
	return nil
}

// Klines fetches OHLCV candles, oldest first.
func (c *Client) Klines(ctx context.Context, symbol string, tf repository.Timeframe, limit int) ([]models.Candle, error) {
	if err := c.allow(); err != nil {
		return nil, err
	}

	// Binance kline rows are positional arrays of mixed types.
	var raw [][]interface{}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {string(tf)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		openTime, ok := row[0].(float64)
		if !ok {
			continue
		}
		candles = append(candles, models.Candle{
			OpenTime: time.UnixMilli(int64(openTime)).UTC(),
			Symbol:   symbol,
			Open:     parseFloat(row[1]),
			High:     parseFloat(row[2]),
			Low:      parseFloat(row[3]),
			Close:    parseFloat(row[4]),
			Volume:   parseFloat(row[5]),
		})
	}
	return candles, nil
}

type depthResponse struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// Depth fetches an order book snapshot, best levels first.
func (c *Client) Depth(ctx context.Context, symbol string, limit int) (models.OrderBook, error) {
	if err := c.allow(); err != nil {
		return models.OrderBook{}, err
	}

	var resp depthResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/depth",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"limit":  {strconv.Itoa(limit)},
		},
	}, &resp)
	if err != nil {
		return models.OrderBook{}, fmt.Errorf("binance depth %s: %w", symbol, err)
	}

	book := models.OrderBook{Symbol: symbol}
	for _, lvl := range resp.Bids {
		if len(lvl) >= 2 {
			book.Bids = append(book.Bids, models.BookLevel{
				Price: parseFloat(lvl[0]),
				Size:  parseFloat(lvl[1]),
			})
		}
	}
	for _, lvl := range resp.Asks {
		if len(lvl) >= 2 {
			book.Asks = append(book.Asks, models.BookLevel{
				Price: parseFloat(lvl[0]),
				Size:  parseFloat(lvl[1]),
			})
		}
	}
	return book, nil
}

type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	QuoteVolume        string `json:"quoteVolume"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Ticker fetches 24h rolling stats for one symbol.
func (c *Client) Ticker(ctx context.Context, symbol string) (models.Ticker24h, error) {
	if err := c.allow(); err != nil {
		return models.Ticker24h{}, err
	}

	var resp tickerResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/ticker/24hr",
		QueryParams: map[string][]string{
			"symbol": {symbol},
		},
	}, &resp)
	if err != nil {
		return models.Ticker24h{}, fmt.Errorf("binance ticker %s: %w", symbol, err)
	}
	return toTicker(resp), nil
}

// AllTickers fetches 24h stats for every listed symbol. Used by the
// autoscan universe builder.
func (c *Client) AllTickers(ctx context.Context) ([]models.Ticker24h, error) {
	if err := c.allow(); err != nil {
		return nil, err
	}

	var resp []tickerResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/ticker/24hr",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("binance all tickers: %w", err)
	}

	out := make([]models.Ticker24h, 0, len(resp))
	for _, t := range resp {
		out = append(out, toTicker(t))
	}
	return out, nil
}

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

// Balances fetches account balances. Requires credentials.
func (c *Client) Balances(ctx context.Context) ([]models.Balance, error) {
	if !c.HasAuth() {
		return nil, fmt.Errorf("binance: credentials not configured")
	}
	if err := c.allow(); err != nil {
		return nil, err
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	query := "timestamp=" + ts
	sig := c.sign(query)

	var resp accountResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/account",
		Headers: map[string]string{
			"X-MBX-APIKEY": c.apiKey,
		},
		QueryParams: map[string][]string{
			"timestamp": {ts},
			"signature": {sig},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("binance account: %w", err)
	}

	out := make([]models.Balance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		out = append(out, models.Balance{
			Asset:  b.Asset,
			Free:   parseFloat(b.Free),
			Locked: parseFloat(b.Locked),
		})
	}
	return out, nil
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func toTicker(t tickerResponse) models.Ticker24h {
	return models.Ticker24h{
		Symbol:      t.Symbol,
		LastPrice:   parseFloat(t.LastPrice),
		QuoteVolume: parseFloat(t.QuoteVolume),
		PriceChange: parseFloat(t.PriceChangePercent),
	}
}

func parseFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
