package indicator

import (
	"fmt"

	"github.com/quantfolio/quantfolio/internal/core"
)

// Default thresholds and periods shared by the built-in strategies.
const (
	DefaultRSIOverbought       = 70.0
	DefaultRSIOversold         = 30.0
	DefaultMACDFast            = 12
	DefaultMACDSlow            = 26
	DefaultMACDSignal          = 9
	DefaultBollingerWindow     = 20
	DefaultBollingerMultiplier = 2.0
)

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrInvalidParameter, fmt.Errorf(format, args...))
}

// SMAParams configures a simple moving average indicator.
type SMAParams struct {
	Period int `json:"window"`
}

func (p SMAParams) Kind() Kind   { return KindSMA }
func (p SMAParams) Name() string { return fmt.Sprintf("SMA(%d)", p.Period) }
func (p SMAParams) Window() int  { return p.Period }

// MinBars needs one bar beyond the window so a cross is detectable.
func (p SMAParams) MinBars() int { return p.Period + 1 }

func (p SMAParams) Validate() error {
	if p.Period <= 0 {
		return invalid("SMA window must be positive, got %d", p.Period)
	}
	return nil
}

// EMAParams configures an exponential moving average indicator.
type EMAParams struct {
	Period int `json:"window"`
}

func (p EMAParams) Kind() Kind   { return KindEMA }
func (p EMAParams) Name() string { return fmt.Sprintf("EMA(%d)", p.Period) }
func (p EMAParams) Window() int  { return p.Period }
func (p EMAParams) MinBars() int { return p.Period + 1 }

func (p EMAParams) Validate() error {
	if p.Period <= 0 {
		return invalid("EMA window must be positive, got %d", p.Period)
	}
	return nil
}

// RSIParams configures a relative strength index indicator. Gains and
// losses are simple averages of day-over-day deltas, not Wilder's
// exponential smoothing.
type RSIParams struct {
	Period     int     `json:"window"`
	Overbought float64 `json:"overbought"`
	Oversold   float64 `json:"oversold"`
}

func (p RSIParams) Kind() Kind   { return KindRSI }
func (p RSIParams) Name() string { return fmt.Sprintf("RSI(%d)", p.Period) }
func (p RSIParams) Window() int  { return p.Period }

// MinBars needs window deltas, which takes window+1 closes.
func (p RSIParams) MinBars() int { return p.Period + 1 }

func (p RSIParams) Validate() error {
	if p.Period <= 0 {
		return invalid("RSI window must be positive, got %d", p.Period)
	}
	if p.Oversold < 0 || p.Overbought > 100 || p.Oversold >= p.Overbought {
		return invalid("RSI thresholds must satisfy 0 <= oversold < overbought <= 100, got %.1f/%.1f",
			p.Oversold, p.Overbought)
	}
	return nil
}

// MACDParams configures a MACD indicator.
type MACDParams struct {
	Fast   int `json:"fastPeriod"`
	Slow   int `json:"slowPeriod"`
	Signal int `json:"signalPeriod"`
}

func (p MACDParams) Kind() Kind { return KindMACD }
func (p MACDParams) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", p.Fast, p.Slow, p.Signal)
}
func (p MACDParams) Window() int  { return p.Slow }
func (p MACDParams) MinBars() int { return p.Slow + p.Signal }

func (p MACDParams) Validate() error {
	if p.Fast <= 0 || p.Slow <= 0 || p.Signal <= 0 {
		return invalid("MACD periods must be positive, got %d/%d/%d", p.Fast, p.Slow, p.Signal)
	}
	if p.Fast >= p.Slow {
		return invalid("MACD fast period %d must be shorter than slow period %d", p.Fast, p.Slow)
	}
	return nil
}

// BollingerParams configures a Bollinger Bands indicator.
type BollingerParams struct {
	Period     int     `json:"window"`
	Multiplier float64 `json:"multiplier"`
}

func (p BollingerParams) Kind() Kind { return KindBollinger }
func (p BollingerParams) Name() string {
	return fmt.Sprintf("BOLL(%d,%.1f)", p.Period, p.Multiplier)
}
func (p BollingerParams) Window() int  { return p.Period }
func (p BollingerParams) MinBars() int { return p.Period }

func (p BollingerParams) Validate() error {
	if p.Period <= 0 {
		return invalid("Bollinger window must be positive, got %d", p.Period)
	}
	if p.Multiplier <= 0 {
		return invalid("Bollinger multiplier must be positive, got %f", p.Multiplier)
	}
	return nil
}
