package features

import (
	"math"

	"EdgePulse/internal/domain/models"
)

const atrEpsilon = 1e-6

// ATR computes the mean true range over the last period candle
// transitions. Returns 0 when fewer than two candles are available.
func ATR(candles []models.Candle, period int) float64 {
	if len(candles) < 2 || period < 1 {
		return 0
	}
	start := len(candles) - period
	if start < 1 {
		start = 1
	}
	sum := 0.0
	n := 0
	for i := start; i < len(candles); i++ {
		cur := candles[i]
		prevClose := candles[i-1].Close
		tr := cur.High - cur.Low
		if d := math.Abs(cur.High - prevClose); d > tr {
			tr = d
		}
		if d := math.Abs(cur.Low - prevClose); d > tr {
			tr = d
		}
		sum += tr
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// FVGScores derives long/short fair value gap scores from the three most
// recent candle transitions, normalized by ATR(14) and damped toward 0.5.
// Fewer than five candles yields the neutral pair (0.5, 0.5).
func FVGScores(candles []models.Candle) (long, short float64) {
	if len(candles) < 5 {
		return 0.5, 0.5
	}

	var maxUp, maxDown float64
	for i := len(candles) - 3; i < len(candles); i++ {
		prev := candles[i-1]
		cur := candles[i]
		if up := cur.Low - prev.High; up > maxUp {
			maxUp = up
		}
		if down := prev.Low - cur.High; down > maxDown {
			maxDown = down
		}
	}

	atr := ATR(candles, 14)
	long = damp(clamp01(maxUp / (atr + atrEpsilon)))
	short = damp(clamp01(maxDown / (atr + atrEpsilon)))
	return long, short
}

// OrderBookImbalance maps top-of-book size imbalance into [0,1].
// 0.5 means balanced or empty; above 0.5 favors bids.
func OrderBookImbalance(book models.OrderBook) float64 {
	const depth = 20

	var bids, asks float64
	for i, lvl := range book.Bids {
		if i >= depth {
			break
		}
		bids += lvl.Size
	}
	for i, lvl := range book.Asks {
		if i >= depth {
			break
		}
		asks += lvl.Size
	}
	if bids == 0 && asks == 0 {
		return 0.5
	}
	bias := (bids - asks) / (bids + asks + 1e-9)
	return clamp01(0.5 * (bias + 1))
}

// RiskReward returns the raw reward-to-risk ratio and its [0,1]
// coefficient (rr/3 clamped). Zero risk yields rr 0.
func RiskReward(entry, stop, target float64) (rr, coeff float64) {
	risk := math.Abs(entry - stop)
	if risk > 0 {
		rr = math.Abs(target-entry) / (risk + 1e-9)
	}
	return rr, clamp01(rr / 3)
}

// damp pulls a raw score toward the neutral midpoint.
func damp(raw float64) float64 {
	return 0.5 + (raw-0.5)*0.8
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
