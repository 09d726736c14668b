package indicator

import (
	"fmt"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/mathkit"
)

func computeMACD(p MACDParams, series core.PriceSeries) *Result {
	closes := series.Closes()

	emaFast := mathkit.ExponentialSmoothing(closes, p.Fast)
	emaSlow := mathkit.ExponentialSmoothing(closes, p.Slow)

	// Both EMAs span the full series, so the MACD line does too.
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}

	signalLine := mathkit.ExponentialSmoothing(macdLine, p.Signal)

	// The signal line only becomes valid after signal-1 extra bars, so the
	// histogram is that much shorter than the MACD line.
	histStart := p.Signal - 1
	histogram := make([]float64, 0, len(macdLine)-histStart)
	for i := histStart; i < len(macdLine); i++ {
		histogram = append(histogram, macdLine[i]-signalLine[i])
	}

	// Buy when the MACD line crosses above the signal line, i.e. the
	// histogram turns positive; sell on the reverse cross.
	actions := make([]core.Action, len(histogram))
	for j := range histogram {
		if j == 0 {
			actions[j] = core.ActionHold
			continue
		}
		prev, curr := histogram[j-1], histogram[j]
		switch {
		case prev <= 0 && curr > 0:
			actions[j] = core.ActionBuy
		case prev >= 0 && curr < 0:
			actions[j] = core.ActionSell
		default:
			actions[j] = core.ActionHold
		}
	}

	r := &Result{
		Kind:         KindMACD,
		Values:       macdLine,
		ValueOffset:  0,
		SignalLine:   signalLine,
		Histogram:    histogram,
		Actions:      actions,
		ActionOffset: histStart,
	}
	r.Explanation = macdExplanation(p, macdLine[len(macdLine)-1], signalLine[len(signalLine)-1], r.Latest())
	return r
}

func macdExplanation(p MACDParams, macd, signal float64, action core.Action) string {
	switch action {
	case core.ActionBuy:
		return fmt.Sprintf("%s line %.3f crossed above signal %.3f", p.Name(), macd, signal)
	case core.ActionSell:
		return fmt.Sprintf("%s line %.3f crossed below signal %.3f", p.Name(), macd, signal)
	default:
		return fmt.Sprintf("%s line %.3f tracking signal %.3f", p.Name(), macd, signal)
	}
}
