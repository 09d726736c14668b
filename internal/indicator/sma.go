package indicator

import (
	"fmt"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/mathkit"
)

func computeSMA(p SMAParams, series core.PriceSeries) *Result {
	closes := series.Closes()
	values := mathkit.RollingMean(closes, p.Period)
	offset := p.Period - 1

	actions := crossActions(closes, values, offset)

	r := &Result{
		Kind:         KindSMA,
		Values:       values,
		ValueOffset:  offset,
		Actions:      actions,
		ActionOffset: offset,
	}
	r.Explanation = lineExplanation(p.Name(), closes[len(closes)-1], r.LatestValue(), r.Latest())
	return r
}

func computeEMA(p EMAParams, series core.PriceSeries) *Result {
	closes := series.Closes()
	// No warm-up truncation: the smoothed series is as long as the input.
	values := mathkit.ExponentialSmoothing(closes, p.Period)

	actions := crossActions(closes, values, 0)

	r := &Result{
		Kind:         KindEMA,
		Values:       values,
		ValueOffset:  0,
		Actions:      actions,
		ActionOffset: 0,
	}
	r.Explanation = lineExplanation(p.Name(), closes[len(closes)-1], r.LatestValue(), r.Latest())
	return r
}

func lineExplanation(name string, close, line float64, action core.Action) string {
	switch action {
	case core.ActionBuy:
		return fmt.Sprintf("price %.2f crossed above %s %.2f", close, name, line)
	case core.ActionSell:
		return fmt.Sprintf("price %.2f crossed below %s %.2f", close, name, line)
	default:
		return fmt.Sprintf("price %.2f holding relative to %s %.2f", close, name, line)
	}
}
