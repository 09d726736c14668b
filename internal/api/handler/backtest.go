package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/api/job"
	"github.com/quantfolio/quantfolio/internal/api/response"
	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/collector"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/metrics"
	"github.com/quantfolio/quantfolio/internal/storage/archive"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

const backtestTimeout = 5 * time.Minute

// BacktestRequest is the request body for starting a backtest job.
// Zero-valued cost fields fall back to the server's configured defaults.
type BacktestRequest struct {
	Ticker              string  `json:"ticker"`
	Strategy            string  `json:"strategy"`
	Start               string  `json:"start,omitempty"`
	End                 string  `json:"end,omitempty"`
	InitialCapital      float64 `json:"initialCapital,omitempty"`
	PositionSizePercent float64 `json:"positionSizePercent,omitempty"`
	Commission          float64 `json:"commission,omitempty"`
}

// BacktestHandler runs backtests as async jobs.
type BacktestHandler struct {
	jobs       *job.Store
	provider   collector.Provider
	strategies *strategy.Registry
	archive    *archive.Results
	metrics    *metrics.Registry
	logger     *zap.Logger
	defaults   config.BacktestConfig
}

// NewBacktestHandler creates a backtest handler. The archive may be nil,
// in which case results are only kept in the job store.
func NewBacktestHandler(
	jobs *job.Store,
	provider collector.Provider,
	strategies *strategy.Registry,
	results *archive.Results,
	reg *metrics.Registry,
	logger *zap.Logger,
	defaults config.BacktestConfig,
) *BacktestHandler {
	return &BacktestHandler{
		jobs:       jobs,
		provider:   provider,
		strategies: strategies,
		archive:    results,
		metrics:    reg,
		logger:     logger,
		defaults:   defaults,
	}
}

// Create starts a new backtest job and returns 202 with its ID.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter, err))
		return
	}
	if err := collector.ValidateTicker(req.Ticker); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := h.strategies.Get(req.Strategy)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	end := time.Now().UTC()
	if req.End != "" {
		if end, err = time.Parse(time.DateOnly, req.End); err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidParameter, fmt.Errorf("bad end date: %w", err)))
			return
		}
	}
	start := end.AddDate(0, 0, -h.defaults.LookbackDays)
	if req.Start != "" {
		if start, err = time.Parse(time.DateOnly, req.Start); err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidParameter, fmt.Errorf("bad start date: %w", err)))
			return
		}
	}
	if !end.After(start) {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter,
				fmt.Errorf("end %s must be after start %s",
					end.Format(time.DateOnly), start.Format(time.DateOnly))))
		return
	}

	run := backtest.RunConfig{
		Ticker:              req.Ticker,
		Strategy:            cfg,
		InitialCapital:      req.InitialCapital,
		PositionSizePercent: req.PositionSizePercent,
		Commission:          req.Commission,
	}
	if run.InitialCapital == 0 {
		run.InitialCapital = h.defaults.InitialCapital
	}
	if run.PositionSizePercent == 0 {
		run.PositionSizePercent = h.defaults.PositionSizePercent
	}
	if req.Commission == 0 {
		run.Commission = h.defaults.Commission
	}
	// Cheap validation before the job is enqueued; data-dependent
	// failures still surface via the job status.
	if run.InitialCapital <= 0 || run.PositionSizePercent < 0 || run.PositionSizePercent > 1 || run.Commission < 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter, fmt.Errorf("bad capital, position size or commission")))
		return
	}

	j := h.jobs.Create("backtest")
	h.metrics.SetJobsActive(h.jobs.Len())

	go h.run(j.ID, run, start, end)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"jobId":  j.ID,
		"status": j.Status,
	})
}

// run executes the backtest and updates the job as it progresses.
func (h *BacktestHandler) run(jobID string, run backtest.RunConfig, start, end time.Time) {
	h.jobs.Update(jobID, func(j *job.Job) { j.Status = job.StatusRunning })

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	began := time.Now()
	result, err := h.execute(ctx, jobID, run, start, end)
	duration := time.Since(began).Seconds()

	if err != nil {
		h.metrics.RecordBacktest("failed", duration)
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrComputationFault, err)
		})
		h.logger.Warn("backtest failed",
			zap.String("job", jobID),
			zap.String("ticker", run.Ticker),
			zap.Error(err),
		)
		return
	}

	h.metrics.RecordBacktest("completed", duration)
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = result
	})
}

func (h *BacktestHandler) execute(ctx context.Context, jobID string, run backtest.RunConfig, start, end time.Time) (*backtest.Result, error) {
	series, err := h.provider.FetchDaily(ctx, run.Ticker, start, end)
	if err != nil {
		h.metrics.RecordCollectorRequest(h.provider.Name(), "error")
		return nil, err
	}
	h.metrics.RecordCollectorRequest(h.provider.Name(), "ok")
	run.Bars = series.Bars

	sim, err := backtest.New(run, h.logger)
	if err != nil {
		return nil, err
	}
	result, err := sim.Run()
	if err != nil {
		return nil, err
	}
	result.ID = jobID

	if h.archive != nil {
		if err := h.archive.Save(ctx, result); err != nil {
			// Archival is best effort; the result still lives in the job.
			h.logger.Warn("failed to archive result",
				zap.String("job", jobID), zap.Error(err))
		}
	}
	return result, nil
}

// Get returns the status and, when complete, the result of a job.
func (h *BacktestHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	resp := map[string]any{
		"jobId":  j.ID,
		"status": j.Status,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// List returns all tracked jobs.
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()

	// Strip bulky results from the listing; fetch one job for details.
	summaries := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		summaries = append(summaries, map[string]any{
			"jobId":     j.ID,
			"status":    j.Status,
			"createdAt": j.CreatedAt,
			"updatedAt": j.UpdatedAt,
		})
	}
	response.JSON(w, http.StatusOK, map[string]any{"jobs": summaries})
}
