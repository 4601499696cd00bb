package models

import "time"

// Side is the trade direction of a signal.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// SignalStatus is the lifecycle state of a signal.
// Approved and rejected are terminal.
type SignalStatus string

const (
	StatusPending  SignalStatus = "pending"
	StatusApproved SignalStatus = "approved"
	StatusRejected SignalStatus = "rejected"
)

// IsTerminal reports whether the status admits no further transitions.
func (s SignalStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// TradePlan holds entry, protective stop and profit targets.
type TradePlan struct {
	Entry      float64
	Stop       float64
	TP1        float64
	TP2        float64
	TP3        float64
	Confidence float64
	Success    float64
}

// Signal is a persisted trade candidate.
// AutoRef anchors the lifecycle timers; it equals CreatedAt unless a
// manual action rebased it.
type Signal struct {
	ID        int64
	Symbol    string
	Side      Side
	Plan      TradePlan
	RR        float64
	Edge      float64
	Reason    string
	Status    SignalStatus
	CreatedAt time.Time
	AutoRef   time.Time
	UpdatedAt time.Time
}

// Position is a paper position opened from an approved signal.
type Position struct {
	ID       int64
	SignalID int64
	Symbol   string
	Side     Side
	Qty      float64
	Entry    float64
	Stop     float64
	TP1      float64
	TP2      float64
	TP3      float64
	Closed   bool
	PnL      float64
	OpenedAt time.Time
}

// TradeOutcome is an append-only ledger row of a realized fill.
type TradeOutcome struct {
	SignalID int64
	Symbol   string
	Side     Side
	Qty      float64
	Price    float64
	PnL      float64
	Ts       time.Time
}

// GateDecision is the risk gate verdict for one candidate.
// Hints carry non-blocking advisories such as "VOL_THROTTLE".
type GateDecision struct {
	Allowed bool
	Reason  string
	Hints   []string
}

// Thresholds is one acceptance threshold set used by scans.
type Thresholds struct {
	RRMin     float64
	EdgeTh    float64
	MinVolume float64
	MaxVolume float64
}

// RelaxationSchedule yields successively looser threshold sets.
// Exhaustion terminates a scan's relaxation loop.
type RelaxationSchedule struct {
	steps []Thresholds
	idx   int
}

// NewRelaxationSchedule builds a schedule from explicit steps.
func NewRelaxationSchedule(steps ...Thresholds) *RelaxationSchedule {
	return &RelaxationSchedule{steps: steps}
}

// Next returns the next threshold set, or false when exhausted.
func (s *RelaxationSchedule) Next() (Thresholds, bool) {
	if s == nil || s.idx >= len(s.steps) {
		return Thresholds{}, false
	}
	t := s.steps[s.idx]
	s.idx++
	return t, true
}

// Len returns the number of remaining steps.
func (s *RelaxationSchedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.steps) - s.idx
}
