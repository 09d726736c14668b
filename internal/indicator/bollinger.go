package indicator

import (
	"fmt"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/mathkit"
)

func computeBollinger(p BollingerParams, series core.PriceSeries) *Result {
	closes := series.Closes()
	middle := mathkit.RollingMean(closes, p.Period)
	offset := p.Period - 1

	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))
	for j, mid := range middle {
		i := offset + j
		sd := mathkit.StdDevAround(closes[i-p.Period+1:i+1], mid)
		upper[j] = mid + p.Multiplier*sd
		lower[j] = mid - p.Multiplier*sd
	}

	// Band touches, not crosses: a close at or beyond a band signals on
	// that bar directly.
	actions := make([]core.Action, len(middle))
	for j := range middle {
		close := closes[offset+j]
		switch {
		case close <= lower[j]:
			actions[j] = core.ActionBuy
		case close >= upper[j]:
			actions[j] = core.ActionSell
		default:
			actions[j] = core.ActionHold
		}
	}

	r := &Result{
		Kind:         KindBollinger,
		Values:       middle,
		ValueOffset:  offset,
		Upper:        upper,
		Lower:        lower,
		Actions:      actions,
		ActionOffset: offset,
	}

	lastClose := closes[len(closes)-1]
	switch r.Latest() {
	case core.ActionBuy:
		r.Explanation = fmt.Sprintf("price %.2f at or below lower band %.2f", lastClose, lower[len(lower)-1])
	case core.ActionSell:
		r.Explanation = fmt.Sprintf("price %.2f at or above upper band %.2f", lastClose, upper[len(upper)-1])
	default:
		r.Explanation = fmt.Sprintf("price %.2f inside bands [%.2f, %.2f]", lastClose, lower[len(lower)-1], upper[len(upper)-1])
	}
	return r
}
