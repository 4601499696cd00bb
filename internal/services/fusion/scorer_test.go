package fusion

import (
	"math"
	"testing"
	"time"

	"EdgePulse/internal/domain/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func neutralInputs() models.FusionInputs {
	return models.FusionInputs{
		FVGLong:  0.5,
		FVGShort: 0.5,
		RRCoeff:  0.5,
		OBI:      0.5,
		News:     0.5,
		Whale:    0.5,
		OnChain:  0.5,
	}
}

func TestFuseNeutralInputsTieToLong(t *testing.T) {
	s := New(DefaultWeights())
	score := s.Fuse("BTCUSDT", neutralInputs(), testNow)

	if score.Side != models.SideLong {
		t.Fatalf("tie must resolve LONG, got %s", score.Side)
	}
	if math.Abs(score.LongEdge-score.ShortEdge) > 1e-9 {
		t.Fatalf("neutral inputs must give equal edges, got %v vs %v",
			score.LongEdge, score.ShortEdge)
	}
	if math.Abs(score.Edge-0.5) > 1e-9 {
		t.Fatalf("neutral edge should be 0.5 with default weights, got %v", score.Edge)
	}
}

func TestFuseLongBias(t *testing.T) {
	s := New(DefaultWeights())
	in := neutralInputs()
	in.FVGLong = 0.9
	in.FVGShort = 0.1
	in.OBI = 0.8

	score := s.Fuse("ETHUSDT", in, testNow)
	if score.Side != models.SideLong {
		t.Fatalf("expected LONG, got %s", score.Side)
	}
	if score.Edge != score.LongEdge {
		t.Fatalf("edge must equal the winning side edge")
	}
	if score.LongEdge <= score.ShortEdge {
		t.Fatalf("long edge should dominate: %v vs %v", score.LongEdge, score.ShortEdge)
	}
}

func TestFuseShortBias(t *testing.T) {
	s := New(DefaultWeights())
	in := neutralInputs()
	in.FVGShort = 0.9
	in.FVGLong = 0.1
	in.News = 0.2
	in.Whale = 0.1

	score := s.Fuse("SOLUSDT", in, testNow)
	if score.Side != models.SideShort {
		t.Fatalf("expected SHORT, got %s", score.Side)
	}
	if score.Edge != score.ShortEdge {
		t.Fatalf("edge must equal the winning side edge")
	}
}

func TestFuseWeightedSumExact(t *testing.T) {
	s := New(models.FusionWeights{FVG: 1})
	in := neutralInputs()
	in.FVGLong = 0.7
	in.FVGShort = 0.2

	score := s.Fuse("XRPUSDT", in, testNow)
	if math.Abs(score.LongEdge-0.7) > 1e-9 || math.Abs(score.ShortEdge-0.2) > 1e-9 {
		t.Fatalf("unexpected edges %v %v", score.LongEdge, score.ShortEdge)
	}
}

func TestFuseMTFAgreementBonus(t *testing.T) {
	s := New(DefaultWeights())
	in := neutralInputs()
	in.FVGLong = 0.8
	in.FVGShort = 0.2

	base := s.Fuse("BTCUSDT", in, testNow)

	in.ConfirmPresent = true
	in.ConfirmFVGLong = 0.7
	in.ConfirmFVGShort = 0.3
	agreed := s.Fuse("BTCUSDT", in, testNow)

	if math.Abs(agreed.LongEdge-(base.LongEdge+0.05)) > 1e-9 {
		t.Fatalf("agreement must add 0.05 to long edge")
	}
	if math.Abs(agreed.ShortEdge-(base.ShortEdge+0.05)) > 1e-9 {
		t.Fatalf("agreement must add 0.05 to short edge")
	}

	in.ConfirmFVGLong = 0.3
	in.ConfirmFVGShort = 0.7
	opposed := s.Fuse("BTCUSDT", in, testNow)
	if math.Abs(opposed.LongEdge-(base.LongEdge-0.05)) > 1e-9 {
		t.Fatalf("disagreement must subtract 0.05 from long edge")
	}
}

func TestFuseNoClamping(t *testing.T) {
	s := New(models.FusionWeights{FVG: 2, RR: 2})
	in := neutralInputs()
	in.FVGLong = 1
	in.RRCoeff = 1

	score := s.Fuse("BTCUSDT", in, testNow)
	if score.LongEdge <= 1 {
		t.Fatalf("edges are unclamped, expected >1, got %v", score.LongEdge)
	}
}
