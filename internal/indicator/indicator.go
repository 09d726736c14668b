// Package indicator computes technical indicators over price series and
// derives per-bar buy/hold/sell actions from them.
package indicator

import (
	"fmt"

	"github.com/quantfolio/quantfolio/internal/core"
)

// Kind identifies an indicator. The set is closed: Compute dispatches by
// an exhaustive switch over the concrete parameter types, so an unknown
// kind can only come from a zero-value Config misuse.
type Kind string

const (
	KindSMA       Kind = "SMA"
	KindEMA       Kind = "EMA"
	KindRSI       Kind = "RSI"
	KindMACD      Kind = "MACD"
	KindBollinger Kind = "BOLLINGER"
)

// Config is the interface implemented by the per-indicator parameter
// structs. Parameters are validated once, at strategy construction time,
// not inside each computation call.
type Config interface {
	Kind() Kind
	// Name returns a stable human-readable identifier, e.g. "SMA(20)".
	Name() string
	// Validate returns ErrInvalidParameter for malformed parameters.
	// Out-of-range values are rejected, never clamped.
	Validate() error
	// MinBars returns the minimum series length the indicator needs to
	// produce its first valid value.
	MinBars() int
	// Window returns the dominant lookback used for warm-up sizing.
	Window() int
}

// Result holds an indicator's computed values over a suffix of the input
// series, plus the per-bar derived action.
type Result struct {
	Kind Kind

	// Values is the primary line (SMA, EMA, RSI, MACD line, Bollinger
	// middle band). Values[0] corresponds to series bar ValueOffset.
	Values      []float64
	ValueOffset int

	// SignalLine and Histogram are MACD-only. The histogram is shorter
	// than the MACD line by signalPeriod-1 bars.
	SignalLine []float64
	Histogram  []float64

	// Upper and Lower are Bollinger-only, aligned with Values.
	Upper []float64
	Lower []float64

	// Actions[0] corresponds to series bar ActionOffset. Cross-based
	// indicators need one prior bar, so ActionOffset may exceed
	// ValueOffset.
	Actions      []core.Action
	ActionOffset int

	// Explanation describes the latest bar's action deterministically.
	Explanation string
}

// Latest returns the action at the final bar, hold if none was computed.
func (r *Result) Latest() core.Action {
	if len(r.Actions) == 0 {
		return core.ActionHold
	}
	return r.Actions[len(r.Actions)-1]
}

// LatestValue returns the primary line's final value, 0 if empty.
func (r *Result) LatestValue() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[len(r.Values)-1]
}

// RecentActions returns up to n trailing actions, latest last.
func (r *Result) RecentActions(n int) []core.Action {
	if n <= 0 || len(r.Actions) == 0 {
		return nil
	}
	if n > len(r.Actions) {
		n = len(r.Actions)
	}
	return r.Actions[len(r.Actions)-n:]
}

// Compute evaluates the configured indicator over the series. It returns
// ErrInsufficientData when the series is shorter than the indicator's
// minimum window; it never returns partial output.
func Compute(cfg Config, series core.PriceSeries) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if series.Len() < cfg.MinBars() {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%s needs %d bars, have %d", cfg.Name(), cfg.MinBars(), series.Len()))
	}

	switch p := cfg.(type) {
	case SMAParams:
		return computeSMA(p, series), nil
	case EMAParams:
		return computeEMA(p, series), nil
	case RSIParams:
		return computeRSI(p, series), nil
	case MACDParams:
		return computeMACD(p, series), nil
	case BollingerParams:
		return computeBollinger(p, series), nil
	default:
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("unsupported indicator config %T", cfg))
	}
}

// crossActions derives the cross-rule actions for a price-vs-line
// indicator: buy on the bar where close crosses from at-or-below the line
// to above it, sell on the reverse cross, hold otherwise. line[0]
// corresponds to series bar offset.
func crossActions(closes []float64, line []float64, offset int) []core.Action {
	actions := make([]core.Action, len(line))
	for j := range line {
		i := offset + j
		if j == 0 {
			actions[j] = core.ActionHold // no prior bar to detect a cross
			continue
		}
		prevClose, currClose := closes[i-1], closes[i]
		prevLine, currLine := line[j-1], line[j]

		switch {
		case prevClose <= prevLine && currClose > currLine:
			actions[j] = core.ActionBuy
		case prevClose >= prevLine && currClose < currLine:
			actions[j] = core.ActionSell
		default:
			actions[j] = core.ActionHold
		}
	}
	return actions
}
