package fusion

import (
	"time"

	"EdgePulse/internal/domain/models"
)

// mtfBonus is the edge adjustment applied when a higher-timeframe gap
// pair agrees or disagrees with the base direction.
const mtfBonus = 0.05

// DefaultWeights mirror the shipped configuration defaults.
func DefaultWeights() models.FusionWeights {
	return models.FusionWeights{
		FVG:     0.35,
		RR:      0.25,
		OBI:     0.15,
		News:    0.10,
		Whale:   0.10,
		OnChain: 0.05,
	}
}

// Scorer fuses feature and sentiment inputs into a directional edge.
type Scorer struct {
	weights models.FusionWeights
}

// New creates a scorer with the given weights.
func New(weights models.FusionWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Fuse computes long and short edges as weighted sums. The short edge
// uses the complements of the direction-symmetric inputs. Ties resolve
// to LONG. Edges are not clamped.
func (s *Scorer) Fuse(symbol string, in models.FusionInputs, now time.Time) models.EdgeScore {
	w := s.weights

	long := w.FVG*in.FVGLong +
		w.RR*in.RRCoeff +
		w.OBI*in.OBI +
		w.News*in.News +
		w.Whale*in.Whale +
		w.OnChain*in.OnChain

	short := w.FVG*in.FVGShort +
		w.RR*(1-in.RRCoeff) +
		w.OBI*(1-in.OBI) +
		w.News*(1-in.News) +
		w.Whale*(1-in.Whale) +
		w.OnChain*(1-in.OnChain)

	if in.ConfirmPresent {
		agree := (in.FVGLong > in.FVGShort && in.ConfirmFVGLong > in.ConfirmFVGShort) ||
			(in.FVGShort > in.FVGLong && in.ConfirmFVGShort > in.ConfirmFVGLong)
		if agree {
			long += mtfBonus
			short += mtfBonus
		} else {
			long -= mtfBonus
			short -= mtfBonus
		}
	}

	side := models.SideLong
	edge := long
	if short > long {
		side = models.SideShort
		edge = short
	}

	return models.EdgeScore{
		Symbol:    symbol,
		Side:      side,
		Edge:      edge,
		LongEdge:  long,
		ShortEdge: short,
		Timestamp: now,
	}
}
