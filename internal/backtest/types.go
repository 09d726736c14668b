// Package backtest replays a strategy day by day over historical bars
// and produces trade logs and performance metrics.
package backtest

import (
	"time"
)

// TradeType distinguishes entries from exits.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Trade is one append-only entry in a simulation's trade log.
// Field names are part of the wire contract.
type Trade struct {
	Date        time.Time `json:"date"`
	Type        TradeType `json:"type"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	Value       float64   `json:"value"`
	Commission  float64   `json:"commission"`
	RealizedPnL *float64  `json:"realizedPnL,omitempty"` // sells only
	Reason      string    `json:"reason,omitempty"`
}

// DailyValue records the portfolio state after one simulated bar,
// whether or not a trade occurred.
type DailyValue struct {
	Date           time.Time `json:"date"`
	Cash           float64   `json:"cash"`
	Shares         int64     `json:"shares"`
	Price          float64   `json:"price"`
	PortfolioValue float64   `json:"portfolioValue"`
}

// Metrics holds the end-of-run performance statistics. The JSON field
// names are consumed by the API layer and must not be renamed.
type Metrics struct {
	TotalReturn      float64 `json:"totalReturn"`
	CAGR             float64 `json:"cagr"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	WinRate          float64 `json:"winRate"`
	TotalTrades      int     `json:"totalTrades"`
	ProfitableTrades int     `json:"profitableTrades"`
	AverageReturn    float64 `json:"averageReturn"`
	FinalValue       float64 `json:"finalValue"`
	InitialCapital   float64 `json:"initialCapital"`
}

// Result is the immutable output of one completed simulation run.
type Result struct {
	ID           string       `json:"id,omitempty"`
	Ticker       string       `json:"ticker"`
	StrategyName string       `json:"strategyName"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      time.Time    `json:"endDate"`
	Metrics      Metrics      `json:"metrics"`
	Trades       []Trade      `json:"trades"`
	DailyValues  []DailyValue `json:"dailyValues,omitempty"`
}

// position tracks the single open position of a run. It is owned
// exclusively by its simulator; shares drop to zero on a full close.
type position struct {
	avgCost float64
	shares  int64
}

// increase extends the position at a weighted-average cost.
func (p *position) increase(price float64, shares int64) {
	if shares <= 0 {
		return
	}
	total := p.avgCost*float64(p.shares) + price*float64(shares)
	p.shares += shares
	p.avgCost = total / float64(p.shares)
}

// close realizes the whole position at price and returns the P&L.
// Partial exits are not supported.
func (p *position) close(price float64) (pnl float64, shares int64) {
	pnl = (price - p.avgCost) * float64(p.shares)
	shares = p.shares
	p.shares = 0
	p.avgCost = 0
	return pnl, shares
}

func (p *position) open() bool {
	return p.shares > 0
}
