package models

import "time"

// Candle represents an OHLCV record for feature extraction.
type Candle struct {
	OpenTime time.Time
	Symbol   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// BookLevel is a single price level of the order book.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a depth snapshot, best levels first.
type OrderBook struct {
	Symbol string
	Bids   []BookLevel
	Asks   []BookLevel
}

// Ticker24h is a rolling 24h statistics record for a symbol.
type Ticker24h struct {
	Symbol      string
	LastPrice   float64
	QuoteVolume float64
	PriceChange float64
}

// MarketSnapshot bundles everything the evaluator needs for one symbol.
// ConfirmCandles carry the higher-timeframe series when configured.
type MarketSnapshot struct {
	Symbol         string
	Candles        []Candle
	ConfirmCandles []Candle
	Book           OrderBook
	LastPrice      float64
	QuoteVolume24h float64
	Timestamp      time.Time
}

// Balance is a venue account balance entry.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}
