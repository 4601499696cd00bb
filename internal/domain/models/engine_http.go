package models

// Requests for engine HTTP endpoints. Defined in domain for consistency and reuse.

type EvaluateRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type ScanRequest struct {
	Symbols        []string `json:"symbols" validate:"required,min=1,dive,required"`
	Limit          int      `json:"limit" default:"3" validate:"gte=1,lte=50"`
	RRMin          float64  `json:"rr_min" validate:"gte=0"`
	EdgeTh         float64  `json:"edge_th" validate:"gte=0"`
	IncludeBlocked bool     `json:"include_blocked"`
}

type GateRequest struct {
	Symbol string  `query:"symbol" json:"symbol" validate:"required"`
	RR     float64 `query:"rr" json:"rr" validate:"gte=0"`
	Edge   float64 `query:"edge" json:"edge" validate:"gte=0"`
	ATRPct float64 `query:"atr_pct" json:"atr_pct" validate:"gte=0"`
}

type SignalsRequest struct {
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
	Status string `query:"status" json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

type SignalActionRequest struct {
	// ID targets a specific signal; zero acts on the most recent pending.
	ID int64 `json:"id" validate:"gte=0"`
}

type AutoscanRequest struct {
	Enabled bool `json:"enabled"`
}
