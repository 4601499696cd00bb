package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateRequestAcceptsUnclampedEdge(t *testing.T) {
	v := validator.New()

	// fused edges are unbounded above 1, the dry-run must accept them
	require.NoError(t, v.Struct(GateRequest{Symbol: "BTCUSDT", RR: 1.5, Edge: 1.05}))

	assert.Error(t, v.Struct(GateRequest{Symbol: "BTCUSDT", RR: 1.5, Edge: -0.1}))
	assert.Error(t, v.Struct(GateRequest{RR: 1.5, Edge: 0.7}))
}

func TestScanRequestAcceptsEdgeThresholdAboveOne(t *testing.T) {
	v := validator.New()

	require.NoError(t, v.Struct(ScanRequest{Symbols: []string{"BTCUSDT"}, Limit: 3, EdgeTh: 1.2}))
	assert.Error(t, v.Struct(ScanRequest{Symbols: []string{"BTCUSDT"}, Limit: 3, EdgeTh: -0.2}))
}
