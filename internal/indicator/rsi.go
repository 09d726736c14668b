package indicator

import (
	"fmt"

	"github.com/quantfolio/quantfolio/internal/core"
)

func computeRSI(p RSIParams, series core.PriceSeries) *Result {
	closes := series.Closes()
	window := p.Period

	// RSI at bar i uses the window day-over-day deltas ending at i, so the
	// first value lands at bar index window.
	values := make([]float64, 0, len(closes)-window)
	for i := window; i < len(closes); i++ {
		var gains, losses float64
		for j := i - window + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}

		// Simple averaging of deltas, not Wilder's smoothing.
		avgGain := gains / float64(window)
		avgLoss := losses / float64(window)

		var rsi float64
		switch {
		case avgLoss == 0 && avgGain == 0:
			rsi = 50 // flat series, neutral
		case avgLoss == 0:
			rsi = 100
		default:
			rs := avgGain / avgLoss
			rsi = 100 - 100/(1+rs)
		}
		values = append(values, rsi)
	}

	actions := make([]core.Action, len(values))
	for j, rsi := range values {
		switch {
		case rsi < p.Oversold:
			actions[j] = core.ActionBuy
		case rsi > p.Overbought:
			actions[j] = core.ActionSell
		default:
			actions[j] = core.ActionHold
		}
	}

	r := &Result{
		Kind:         KindRSI,
		Values:       values,
		ValueOffset:  window,
		Actions:      actions,
		ActionOffset: window,
	}
	r.Explanation = rsiExplanation(p, r.LatestValue(), r.Latest())
	return r
}

func rsiExplanation(p RSIParams, rsi float64, action core.Action) string {
	switch action {
	case core.ActionBuy:
		return fmt.Sprintf("%s %.1f below oversold %.0f", p.Name(), rsi, p.Oversold)
	case core.ActionSell:
		return fmt.Sprintf("%s %.1f above overbought %.0f", p.Name(), rsi, p.Overbought)
	default:
		return fmt.Sprintf("%s %.1f in neutral range", p.Name(), rsi)
	}
}
