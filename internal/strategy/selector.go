package strategy

import (
	"fmt"

	"github.com/quantfolio/quantfolio/internal/core"
)

// RiskTolerance buckets an investor's appetite for drawdowns.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// Recommendation is the selector's output.
type Recommendation struct {
	StrategyName       string    `json:"strategyName"`
	RebalanceFrequency Frequency `json:"rebalanceFrequency"`
	Confidence         float64   `json:"confidence"`
	Reasoning          string    `json:"reasoning"`
}

type selection struct {
	name       string
	cadence    Frequency
	confidence float64
}

// selectionTable maps (horizon, risk) to a strategy. This is
// configuration data, not a model: the cells are fixed.
var selectionTable = map[int]map[RiskTolerance]selection{
	1: {
		RiskLow:    {Conservative, Monthly, 0.85},
		RiskMedium: {MeanReversion, Weekly, 0.75},
		RiskHigh:   {Momentum, Daily, 0.70},
	},
	2: {
		RiskLow:    {Conservative, Monthly, 0.85},
		RiskMedium: {TrendFollowing, Weekly, 0.80},
		RiskHigh:   {Momentum, Daily, 0.70},
	},
	5: {
		RiskLow:    {Conservative, Monthly, 0.90},
		RiskMedium: {TrendFollowing, Monthly, 0.85},
		RiskHigh:   {TrendFollowing, Weekly, 0.75},
	},
}

// Select maps an investment profile to one of the built-in strategies
// and a rebalancing cadence. Pure lookup; rejects values outside the
// table rather than rounding them.
func Select(horizonYears int, risk RiskTolerance, portfolioSize float64) (Recommendation, error) {
	byRisk, ok := selectionTable[horizonYears]
	if !ok {
		return Recommendation{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("horizon must be 1, 2 or 5 years, got %d", horizonYears))
	}
	sel, ok := byRisk[risk]
	if !ok {
		return Recommendation{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("risk tolerance must be low, medium or high, got %q", risk))
	}
	if portfolioSize < 0 {
		return Recommendation{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("portfolio size cannot be negative, got %f", portfolioSize))
	}

	return Recommendation{
		StrategyName:       sel.name,
		RebalanceFrequency: sel.cadence,
		Confidence:         sel.confidence,
		Reasoning: fmt.Sprintf("%d-year horizon with %s risk tolerance maps to %s, rebalanced %s",
			horizonYears, risk, sel.name, sel.cadence),
	}, nil
}
