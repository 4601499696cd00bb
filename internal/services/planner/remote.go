package planner

import (
	"context"
	"fmt"
	"time"

	"EdgePulse/internal/domain/models"
	xhttp "EdgePulse/pkg/http"
)

// Remote calls an external planner service over HTTP.
type Remote struct {
	baseURL string
	client  *xhttp.Client
}

// NewRemote builds the planner HTTP client.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Remote{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type planRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Last       float64 `json:"last"`
	Volatility float64 `json:"volatility"`
}

// planResponse tolerates the alias keys historical planner services
// emit. Normalization to TradePlan happens here and nowhere else.
type planResponse struct {
	Action        string   `json:"action"`
	Entry         float64  `json:"entry"`
	SL            float64  `json:"sl"`
	TP1           float64  `json:"tp1"`
	TP2           float64  `json:"tp2"`
	TP3           float64  `json:"tp3"`
	Conf          *float64 `json:"conf"`
	Confidence    *float64 `json:"confidence"`
	Success       *float64 `json:"success"`
	SuccessChance *float64 `json:"success_chance"`
	Reason        string   `json:"reason"`
}

// Plan requests a plan from the remote service.
func (r *Remote) Plan(ctx context.Context, symbol string, side models.Side, last, volatility float64) (models.TradePlan, error) {
	if r.baseURL == "" {
		return models.TradePlan{}, fmt.Errorf("planner url not configured")
	}

	var resp planResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.baseURL + "/plan",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: planRequest{
			Symbol:     symbol,
			Side:       string(side),
			Last:       last,
			Volatility: volatility,
		},
	}, &resp)
	if err != nil {
		return models.TradePlan{}, fmt.Errorf("remote plan: %w", err)
	}

	plan := models.TradePlan{
		Entry: resp.Entry,
		Stop:  resp.SL,
		TP1:   resp.TP1,
		TP2:   resp.TP2,
		TP3:   resp.TP3,
	}
	plan.Confidence = pick(resp.Confidence, resp.Conf, 0.75)
	plan.Success = pick(resp.Success, resp.SuccessChance, 0.70)

	if plan.Entry <= 0 || plan.Stop <= 0 || plan.TP1 <= 0 {
		return models.TradePlan{}, fmt.Errorf("remote plan: non-positive price levels")
	}
	return plan, nil
}

func pick(primary, alias *float64, def float64) float64 {
	if primary != nil {
		return *primary
	}
	if alias != nil {
		return *alias
	}
	return def
}
