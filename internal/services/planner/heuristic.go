package planner

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"EdgePulse/internal/domain/models"
)

// Heuristic produces an algorithmic trade plan from last price and
// volatility alone. Confidence and success are placeholder draws from
// a bounded range; the random source is injected for determinism.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic creates a heuristic planner with the given random source.
func NewHeuristic(rng *rand.Rand) *Heuristic {
	return &Heuristic{rng: rng}
}

// Plan derives entry, stop and targets from a volatility step
// clamped to [0.3%, 2%] of last price.
func (h *Heuristic) Plan(ctx context.Context, symbol string, side models.Side, last, volatility float64) (models.TradePlan, error) {
	step := 0.01
	if last > 0 {
		step = volatility / math.Max(last, 1e-9)
	}
	if step < 0.003 {
		step = 0.003
	}
	if step > 0.02 {
		step = 0.02
	}

	var plan models.TradePlan
	if side == models.SideLong {
		plan.Entry = last * (1 - 0.2*step)
		plan.Stop = last * (1 - 2.5*step)
		plan.TP1 = last * (1 + 1.2*step)
		plan.TP2 = last * (1 + 2.5*step)
		plan.TP3 = last * (1 + 4.0*step)
	} else {
		plan.Entry = last * (1 + 0.2*step)
		plan.Stop = last * (1 + 2.5*step)
		plan.TP1 = last * (1 - 1.2*step)
		plan.TP2 = last * (1 - 2.5*step)
		plan.TP3 = last * (1 - 4.0*step)
	}

	h.mu.Lock()
	plan.Confidence = 0.70 + 0.2*h.rng.Float64()
	plan.Success = 0.62 + 0.2*h.rng.Float64()
	h.mu.Unlock()

	return plan, nil
}
