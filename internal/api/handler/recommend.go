package handler

import (
	"encoding/json"
	"net/http"

	"github.com/quantfolio/quantfolio/internal/api/response"
	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

// RecommendRequest asks for a strategy suited to an investor profile.
type RecommendRequest struct {
	HorizonYears  int     `json:"horizonYears"`
	RiskTolerance string  `json:"riskTolerance"`
	PortfolioSize float64 `json:"portfolioSize"`
}

// RecommendHandler maps investor profiles to strategies.
type RecommendHandler struct{}

// NewRecommendHandler creates a recommend handler.
func NewRecommendHandler() *RecommendHandler {
	return &RecommendHandler{}
}

// Recommend returns the strategy recommendation for a profile.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParameter, err))
		return
	}

	rec, err := strategy.Select(req.HorizonYears, strategy.RiskTolerance(req.RiskTolerance), req.PortfolioSize)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, rec)
}
