package core

import (
	"sort"
	"time"
)

// Action represents a trading signal action
type Action string

const (
	ActionBuy  Action = "buy"
	ActionHold Action = "hold"
	ActionSell Action = "sell"
)

// IsValid reports whether the action is one of buy/hold/sell.
func (a Action) IsValid() bool {
	switch a {
	case ActionBuy, ActionHold, ActionSell:
		return true
	}
	return false
}

// PriceBar represents one daily OHLCV observation
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered sequence of bars for one ticker.
// Dates are strictly increasing; missing trading days are simply absent,
// never interpolated.
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

// NewPriceSeries builds a series from bars, sorting ascending by date and
// dropping duplicate dates. Collector output is treated as untrusted.
func NewPriceSeries(ticker string, bars []PriceBar) PriceSeries {
	sorted := make([]PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := sorted[:0]
	for i, b := range sorted {
		if i > 0 && b.Date.Equal(sorted[i-1].Date) {
			continue
		}
		deduped = append(deduped, b)
	}

	return PriceSeries{Ticker: ticker, Bars: deduped}
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes extracts the closing prices. Close is the canonical price for
// all indicator math and trade pricing.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Prefix returns a series view over bars [0..i]. The underlying array is
// shared; callers must not mutate bars.
func (s PriceSeries) Prefix(i int) PriceSeries {
	if i < 0 {
		return PriceSeries{Ticker: s.Ticker}
	}
	if i >= len(s.Bars) {
		i = len(s.Bars) - 1
	}
	return PriceSeries{Ticker: s.Ticker, Bars: s.Bars[:i+1]}
}

// IndicatorVote records one indicator's contribution to a combined signal.
type IndicatorVote struct {
	Indicator string  `json:"indicator"`
	Action    Action  `json:"action"`
	Value     float64 `json:"value"`
	Stability float64 `json:"stability"`
	Detail    string  `json:"detail,omitempty"`
}

// Signal represents a combined trading signal for one ticker
type Signal struct {
	ID          string          `json:"id,omitempty"`
	Ticker      string          `json:"ticker"`
	Action      Action          `json:"signal"`
	Confidence  float64         `json:"confidence"`
	Reason      string          `json:"reason"`
	Strategy    string          `json:"strategy"`
	Breakdown   []IndicatorVote `json:"breakdown,omitempty"`
	Price       float64         `json:"price"`
	GeneratedAt time.Time       `json:"timestamp"`
}
