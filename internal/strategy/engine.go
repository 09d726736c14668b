package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/indicator"
	"go.uber.org/zap"
)

// historyWindow is how many trailing bars of an indicator's own signal
// history feed its stability score.
const historyWindow = 10

// Engine evaluates strategies against price series. It holds no
// per-evaluation state: concurrent evaluations are safe.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a strategy engine.
func NewEngine(logger ...*zap.Logger) *Engine {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Engine{logger: l}
}

// Evaluate combines the strategy's indicator signals over the series into
// one decision. An indicator without enough history votes hold; it never
// aborts the evaluation. Invalid parameters are surfaced immediately.
func (e *Engine) Evaluate(cfg Config, series core.PriceSeries) (core.Signal, error) {
	if err := cfg.Validate(); err != nil {
		return core.Signal{}, err
	}
	if series.Len() == 0 {
		return core.Signal{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no bars for %s", series.Ticker))
	}

	votes := make([]core.IndicatorVote, 0, len(cfg.Indicators))
	counts := map[core.Action]int{}

	for _, ind := range cfg.Indicators {
		res, err := indicator.Compute(ind, series)
		if err != nil {
			if errors.Is(err, core.ErrInsufficientData) || errors.Is(err, core.ErrComputationFault) {
				e.logger.Debug("indicator unavailable, voting hold",
					zap.String("indicator", ind.Name()),
					zap.String("ticker", series.Ticker),
					zap.Error(err),
				)
				votes = append(votes, core.IndicatorVote{
					Indicator: ind.Name(),
					Action:    core.ActionHold,
					Detail:    "insufficient history",
				})
				counts[core.ActionHold]++
				continue
			}
			return core.Signal{}, err
		}

		latest := res.Latest()
		votes = append(votes, core.IndicatorVote{
			Indicator: ind.Name(),
			Action:    latest,
			Value:     res.LatestValue(),
			Stability: agreement(res.RecentActions(historyWindow), latest),
			Detail:    res.Explanation,
		})
		counts[latest]++
	}

	winner := majority(counts)

	var confidence float64
	for _, v := range votes {
		confidence += v.Stability
	}
	confidence /= float64(len(votes))

	lastBar := series.Bars[series.Len()-1]

	return core.Signal{
		Ticker:      series.Ticker,
		Action:      winner,
		Confidence:  confidence,
		Reason:      buildReason(winner, votes),
		Strategy:    cfg.Name,
		Breakdown:   votes,
		Price:       lastBar.Close,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// GenerateSignals evaluates one strategy across many tickers. Tickers
// whose series cannot be evaluated at all are skipped and logged; one bad
// ticker never blocks the rest.
func (e *Engine) GenerateSignals(cfg Config, seriesByTicker map[string]core.PriceSeries) (map[string]core.Signal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(seriesByTicker))
	for t := range seriesByTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	signals := make(map[string]core.Signal, len(tickers))
	for _, ticker := range tickers {
		sig, err := e.Evaluate(cfg, seriesByTicker[ticker])
		if err != nil {
			if errors.Is(err, core.ErrInvalidParameter) {
				return nil, err
			}
			e.logger.Warn("skipping ticker",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			continue
		}
		// The map key is the caller's identity for the series; it wins
		// over whatever ticker the series itself carries.
		sig.Ticker = ticker
		signals[ticker] = sig
	}
	return signals, nil
}

// majority applies the vote rule: the action with the strictly highest
// count wins. Every tie resolves to hold, including a strict buy/sell
// tie with no hold votes; hold is the conservative default.
func majority(counts map[core.Action]int) core.Action {
	buy, hold, sell := counts[core.ActionBuy], counts[core.ActionHold], counts[core.ActionSell]
	switch {
	case buy > sell && buy > hold:
		return core.ActionBuy
	case sell > buy && sell > hold:
		return core.ActionSell
	default:
		return core.ActionHold
	}
}

// agreement returns the fraction of the history that matches the latest
// action. An indicator that has been signaling the same thing for a
// while scores higher than one that just flipped.
func agreement(history []core.Action, latest core.Action) float64 {
	if len(history) == 0 {
		return 0
	}
	matches := 0
	for _, a := range history {
		if a == latest {
			matches++
		}
	}
	return float64(matches) / float64(len(history))
}

// buildReason concatenates the explanations of every indicator that
// independently produced the winning action, in config order. The text
// is deterministic for a given input.
func buildReason(winner core.Action, votes []core.IndicatorVote) string {
	var parts []string
	for _, v := range votes {
		if v.Action == winner && v.Detail != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", v.Indicator, v.Detail))
		}
	}
	if len(parts) == 0 {
		return "majority vote tied, defaulting to hold"
	}
	return strings.Join(parts, "; ")
}
