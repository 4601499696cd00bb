package planner

import (
	"context"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/service"
	"EdgePulse/pkg/logger"
)

// Service is the TradePlanner used by the evaluator: it prefers the
// remote planner and substitutes the heuristic transparently whenever
// the remote is unconfigured or fails.
type Service struct {
	remote    *Remote
	heuristic *Heuristic
	logger    *logger.Logger
}

var _ service.TradePlanner = (*Service)(nil)

// NewService wires the planner chain. remote may be nil.
func NewService(remote *Remote, heuristic *Heuristic, log *logger.Logger) *Service {
	return &Service{remote: remote, heuristic: heuristic, logger: log}
}

// Plan returns a trade plan for the candidate.
func (s *Service) Plan(ctx context.Context, symbol string, side models.Side, last, volatility float64) (models.TradePlan, error) {
	if s.remote != nil {
		plan, err := s.remote.Plan(ctx, symbol, side, last, volatility)
		if err == nil {
			return plan, nil
		}
		s.logger.Warn("remote planner failed, using heuristic",
			logger.String("symbol", symbol), logger.Error(err))
	}
	return s.heuristic.Plan(ctx, symbol, side, last, volatility)
}
