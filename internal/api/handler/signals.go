package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/api/response"
	"github.com/quantfolio/quantfolio/internal/collector"
	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/metrics"
	"github.com/quantfolio/quantfolio/internal/storage/signal"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

const maxTickersPerRequest = 50

// GenerateSignalsRequest is the request body for generating signals.
type GenerateSignalsRequest struct {
	Tickers      []string `json:"tickers"`
	Strategy     string   `json:"strategy"`
	LookbackDays int      `json:"lookbackDays,omitempty"`
}

// SignalsHandler serves signal generation and retrieval.
type SignalsHandler struct {
	store           signal.Store
	provider        collector.Provider
	engine          *strategy.Engine
	strategies      *strategy.Registry
	metrics         *metrics.Registry
	logger          *zap.Logger
	defaultLookback int
}

// NewSignalsHandler creates a signals handler.
func NewSignalsHandler(
	store signal.Store,
	provider collector.Provider,
	engine *strategy.Engine,
	strategies *strategy.Registry,
	reg *metrics.Registry,
	logger *zap.Logger,
	defaultLookbackDays int,
) *SignalsHandler {
	if defaultLookbackDays <= 0 {
		defaultLookbackDays = 365
	}
	return &SignalsHandler{
		store:           store,
		provider:        provider,
		engine:          engine,
		strategies:      strategies,
		metrics:         reg,
		logger:          logger,
		defaultLookback: defaultLookbackDays,
	}
}

// Generate fetches history for the requested tickers and evaluates the
// strategy on each.
func (h *SignalsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateSignalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter, err))
		return
	}
	if len(req.Tickers) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter, fmt.Errorf("tickers cannot be empty")))
		return
	}
	if len(req.Tickers) > maxTickersPerRequest {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter,
				fmt.Errorf("at most %d tickers per request, got %d", maxTickersPerRequest, len(req.Tickers))))
		return
	}
	for _, ticker := range req.Tickers {
		if err := collector.ValidateTicker(ticker); err != nil {
			response.Error(w, http.StatusBadRequest, err)
			return
		}
	}

	cfg, err := h.strategies.Get(req.Strategy)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = h.defaultLookback
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookback)

	seriesByTicker := make(map[string]core.PriceSeries, len(req.Tickers))
	for _, ticker := range req.Tickers {
		series, err := h.provider.FetchDaily(r.Context(), ticker, start, end)
		if err != nil {
			h.metrics.RecordCollectorRequest(h.provider.Name(), "error")
			response.Error(w, response.StatusFor(err), err)
			return
		}
		h.metrics.RecordCollectorRequest(h.provider.Name(), "ok")
		seriesByTicker[ticker] = series
	}

	signals, err := h.engine.GenerateSignals(cfg, seriesByTicker)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	saved := make(map[string]core.Signal, len(signals))
	for ticker, sig := range signals {
		stored, err := h.store.Save(r.Context(), sig)
		if err != nil {
			h.logger.Warn("failed to persist signal",
				zap.String("ticker", ticker), zap.Error(err))
			stored = sig
		}
		h.metrics.RecordSignal(stored.Strategy, string(stored.Action))
		saved[ticker] = stored
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"strategy": cfg.Name,
		"signals":  saved,
	})
}

// List returns stored signals matching query parameters.
func (h *SignalsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := signal.ListFilter{
		Ticker:   q.Get("ticker"),
		Strategy: q.Get("strategy"),
		Limit:    50,
	}
	if action := q.Get("action"); action != "" {
		filter.Action = core.Action(action)
	}
	if from := q.Get("from"); from != "" {
		if t, err := parseQueryTime(from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := parseQueryTime(to); err == nil {
			filter.To = t
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	signals, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	count, _ := h.store.Count(r.Context(), filter)

	response.JSON(w, http.StatusOK, map[string]any{
		"signals": signals,
		"total":   count,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// GetByID returns a single stored signal.
func (h *SignalsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	sig, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, sig)
}

func parseQueryTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
