package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"EdgePulse/internal/domain/models"
	"EdgePulse/internal/domain/repository"
	icache "EdgePulse/internal/service/cache"
	"EdgePulse/internal/service/ratelimit"
	"EdgePulse/internal/services/risk"
	"EdgePulse/internal/usecase"
	xhttp "EdgePulse/pkg/http"
	xlogger "EdgePulse/pkg/logger"
)

const evaluateCacheTTL = 15 * time.Second

// EngineHandler exposes the signal engine over HTTP.
type EngineHandler struct {
	logger    *xlogger.Logger
	evaluator *usecase.Evaluator
	scanner   *usecase.Scanner
	lifecycle *usecase.Lifecycle
	gate      *risk.Gate
	store     repository.SignalStore
	ledger    repository.TradeLedger
	state     repository.StateStore
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
}

// NewEngineHandler wires the handler.
func NewEngineHandler(logger *xlogger.Logger, evaluator *usecase.Evaluator, scanner *usecase.Scanner,
	lifecycle *usecase.Lifecycle, gate *risk.Gate, store repository.SignalStore,
	ledger repository.TradeLedger, state repository.StateStore) *EngineHandler {
	return &EngineHandler{
		logger:    logger,
		evaluator: evaluator,
		scanner:   scanner,
		lifecycle: lifecycle,
		gate:      gate,
		store:     store,
		ledger:    ledger,
		state:     state,
		rl:        ratelimit.New(),
	}
}

// SetCache injects a response cache for evaluation reads.
func (h *EngineHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *EngineHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/evaluate", h.Evaluate)
	g.POST("/scan", h.Scan)
	g.GET("/gate", h.GateCheck)
	g.GET("/signals", h.Signals)
	g.POST("/signals/approve", h.ApproveSignal)
	g.POST("/signals/reject", h.RejectSignal)
	g.GET("/autoscan", h.AutoscanStatus)
	g.POST("/autoscan", h.SetAutoscan)
}

type candidateResponse struct {
	Symbol string           `json:"symbol"`
	Side   string           `json:"side"`
	Edge   float64          `json:"edge"`
	RR     float64          `json:"rr"`
	ATR    float64          `json:"atr"`
	ATRPct float64          `json:"atr_pct"`
	Last   float64          `json:"last"`
	Plan   models.TradePlan `json:"plan"`
	Reason string           `json:"reason"`
}

func toCandidateResponse(c *usecase.Candidate) candidateResponse {
	return candidateResponse{
		Symbol: c.Symbol,
		Side:   string(c.Score.Side),
		Edge:   c.Score.Edge,
		RR:     c.RR,
		ATR:    c.ATR,
		ATRPct: c.ATRPct,
		Last:   c.Last,
		Plan:   c.Plan,
		Reason: c.Reason,
	}
}

// Evaluate runs the analysis pipeline for one symbol without gating
// or persistence.
func (h *EngineHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := "evaluate:" + req.Symbol
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			var res candidateResponse
			if err := json.Unmarshal(b, &res); err == nil {
				return xhttp.SuccessResponse(c, res)
			}
		}
	}

	cand, err := h.evaluator.Evaluate(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("evaluate usecase error",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	res := toCandidateResponse(cand)

	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, evaluateCacheTTL); err != nil {
				h.logger.Warn("evaluate cache set failed", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

type scanResponse struct {
	Signals []*models.Signal           `json:"signals"`
	Blocked []usecase.BlockedCandidate `json:"blocked,omitempty"`
}

// Scan runs a full scan over the requested symbols and emits gated
// signals.
func (h *EngineHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":scan", 3, 1) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	res, err := h.scanner.ScanAndRank(c.Request().Context(), req.Symbols, req.Limit, usecase.ScanOptions{
		RRMin:          req.RRMin,
		EdgeTh:         req.EdgeTh,
		IncludeBlocked: req.IncludeBlocked,
	})
	if err != nil {
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, scanResponse{Signals: res.Emitted, Blocked: res.Blocked})
}

// GateCheck dry-runs the risk gate for explicit metrics, without
// creating anything.
func (h *EngineHandler) GateCheck(c echo.Context) error {
	req := &models.GateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	decision := h.gate.CanOpen(c.Request().Context(), req.Symbol, req.RR, req.Edge,
		risk.Options{ATRPct: req.ATRPct})
	return xhttp.SuccessResponse(c, decision)
}

// Signals lists recent signals, optionally filtered by status.
func (h *EngineHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.store.ListRecent(c.Request().Context(), models.SignalStatus(req.Status), req.Limit)
	if err != nil {
		h.logger.Error("signals list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// ApproveSignal approves a pending signal immediately.
func (h *EngineHandler) ApproveSignal(c echo.Context) error {
	return h.signalAction(c, h.lifecycle.Approve)
}

// RejectSignal rejects a pending signal immediately.
func (h *EngineHandler) RejectSignal(c echo.Context) error {
	return h.signalAction(c, h.lifecycle.Reject)
}

func (h *EngineHandler) signalAction(c echo.Context, act func(context.Context, int64) (*models.Signal, error)) error {
	req := &models.SignalActionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := act(c.Request().Context(), req.ID)
	switch {
	case errors.Is(err, usecase.ErrNoPending):
		return xhttp.NotFoundResponse(c, "no pending signal")
	case errors.Is(err, repository.ErrNotFound):
		return xhttp.NotFoundResponse(c, "signal not found")
	case errors.Is(err, repository.ErrNotPending):
		return xhttp.BadRequestResponse(c, "signal is not pending")
	case err != nil:
		h.logger.Error("signal action error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sig)
}

type autoscanStatusResponse struct {
	Enabled bool `json:"enabled"`
}

// AutoscanStatus reports the shared autoscan flag.
func (h *EngineHandler) AutoscanStatus(c echo.Context) error {
	enabled, err := h.state.AutoscanEnabled(c.Request().Context())
	if err != nil {
		h.logger.Error("autoscan flag read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, autoscanStatusResponse{Enabled: enabled})
}

// SetAutoscan flips the shared autoscan flag.
func (h *EngineHandler) SetAutoscan(c echo.Context) error {
	req := &models.AutoscanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.state.SetAutoscanEnabled(c.Request().Context(), req.Enabled); err != nil {
		h.logger.Error("autoscan flag write error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, autoscanStatusResponse{Enabled: req.Enabled})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health pings the backing stores.
func (h *EngineHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := "ok"
	if err := h.store.Health(ctx); err != nil {
		checks["signals"] = err.Error()
		status = "degraded"
	} else {
		checks["signals"] = "ok"
	}
	if err := h.ledger.Health(ctx); err != nil {
		checks["ledger"] = err.Error()
		status = "degraded"
	} else {
		checks["ledger"] = "ok"
	}
	return xhttp.SuccessResponse(c, healthResponse{Status: status, Checks: checks})
}
