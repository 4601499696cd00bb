package models

import "time"

// FeatureSet holds per-symbol technical features in [0,1] unless noted.
type FeatureSet struct {
	Symbol   string
	ATR      float64 // absolute price units
	ATRPct   float64 // ATR relative to last price
	FVGLong  float64
	FVGShort float64
	OBI      float64
	RRCoeff  float64
}

// SentimentSet holds external sentiment scores in [0,1], 0.5 = neutral.
type SentimentSet struct {
	News    float64
	Whale   float64
	OnChain float64
}

// FusionWeights are the per-input weights of the edge fusion.
type FusionWeights struct {
	FVG     float64
	RR      float64
	OBI     float64
	News    float64
	Whale   float64
	OnChain float64
}

// FusionInputs feed the edge fusion. ConfirmFVGLong/Short are the
// higher-timeframe gap scores; ConfirmPresent gates the agreement bonus.
type FusionInputs struct {
	FVGLong  float64
	FVGShort float64
	RRCoeff  float64
	OBI      float64
	News     float64
	Whale    float64
	OnChain  float64

	ConfirmPresent  bool
	ConfirmFVGLong  float64
	ConfirmFVGShort float64
}

// EdgeScore is the fused directional conviction for a symbol.
type EdgeScore struct {
	Symbol    string
	Side      Side
	Edge      float64
	LongEdge  float64
	ShortEdge float64
	Timestamp time.Time
}
