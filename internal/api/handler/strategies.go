package handler

import (
	"net/http"

	"github.com/quantfolio/quantfolio/internal/api/response"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

// StrategyInfo is the wire representation of a registered strategy.
type StrategyInfo struct {
	Name               string             `json:"name"`
	Description        string             `json:"description,omitempty"`
	Indicators         []string           `json:"indicators"`
	RebalanceFrequency strategy.Frequency `json:"rebalanceFrequency"`
	CombinationRule    strategy.Rule      `json:"combinationRule"`
}

// StrategiesHandler lists registered strategies.
type StrategiesHandler struct {
	strategies *strategy.Registry
}

// NewStrategiesHandler creates a strategies handler.
func NewStrategiesHandler(strategies *strategy.Registry) *StrategiesHandler {
	return &StrategiesHandler{strategies: strategies}
}

// List returns every registered strategy.
func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	configs := h.strategies.List()

	infos := make([]StrategyInfo, 0, len(configs))
	for _, cfg := range configs {
		names := make([]string, 0, len(cfg.Indicators))
		for _, ind := range cfg.Indicators {
			names = append(names, ind.Name())
		}
		infos = append(infos, StrategyInfo{
			Name:               cfg.Name,
			Description:        cfg.Description,
			Indicators:         names,
			RebalanceFrequency: cfg.RebalanceFrequency,
			CombinationRule:    cfg.CombinationRule,
		})
	}

	response.JSON(w, http.StatusOK, map[string]any{"strategies": infos})
}

// Get returns one strategy by name.
func (h *StrategiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.strategies.Get(r.PathValue("name"))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	names := make([]string, 0, len(cfg.Indicators))
	for _, ind := range cfg.Indicators {
		names = append(names, ind.Name())
	}
	response.JSON(w, http.StatusOK, StrategyInfo{
		Name:               cfg.Name,
		Description:        cfg.Description,
		Indicators:         names,
		RebalanceFrequency: cfg.RebalanceFrequency,
		CombinationRule:    cfg.CombinationRule,
	})
}
