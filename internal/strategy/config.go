// Package strategy combines indicator signals into trading decisions.
package strategy

import (
	"fmt"
	"sync"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/indicator"
)

// Frequency is a rebalancing cadence.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// IsValid reports whether the frequency is a known cadence.
func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Rule is a signal combination rule.
type Rule string

// MajorityVote is the default combination rule: the action with the
// strictly highest vote count wins, and any tie resolves to hold.
const MajorityVote Rule = "majority"

// Built-in strategy names.
const (
	TrendFollowing = "trend_following"
	MeanReversion  = "mean_reversion"
	Momentum       = "momentum"
	Conservative   = "conservative"
)

// Config is a named bundle of indicator configurations plus a
// combination rule.
type Config struct {
	Name               string
	Description        string
	Indicators         []indicator.Config
	RebalanceFrequency Frequency
	CombinationRule    Rule
}

// Validate checks the strategy and every indicator it bundles.
func (c Config) Validate() error {
	if c.Name == "" {
		return core.WrapError(core.ErrInvalidParameter, fmt.Errorf("strategy name is empty"))
	}
	if len(c.Indicators) == 0 {
		return core.WrapError(core.ErrInvalidParameter, fmt.Errorf("strategy %q has no indicators", c.Name))
	}
	if !c.RebalanceFrequency.IsValid() {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("strategy %q has invalid rebalance frequency %q", c.Name, c.RebalanceFrequency))
	}
	for _, ind := range c.Indicators {
		if err := ind.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MaxWindow returns the largest indicator lookback, used for warm-up
// sizing by the backtest simulator.
func (c Config) MaxWindow() int {
	maxW := 0
	for _, ind := range c.Indicators {
		if w := ind.Window(); w > maxW {
			maxW = w
		}
	}
	return maxW
}

// Builtins returns the four fixed built-in strategies.
func Builtins() []Config {
	return []Config{
		{
			Name:        TrendFollowing,
			Description: "Ride established trends with a 20-day moving average pair confirmed by MACD",
			Indicators: []indicator.Config{
				indicator.SMAParams{Period: 20},
				indicator.EMAParams{Period: 20},
				indicator.MACDParams{Fast: indicator.DefaultMACDFast, Slow: indicator.DefaultMACDSlow, Signal: indicator.DefaultMACDSignal},
			},
			RebalanceFrequency: Weekly,
			CombinationRule:    MajorityVote,
		},
		{
			Name:        MeanReversion,
			Description: "Fade extremes with RSI and Bollinger Bands",
			Indicators: []indicator.Config{
				indicator.RSIParams{Period: 14, Overbought: indicator.DefaultRSIOverbought, Oversold: indicator.DefaultRSIOversold},
				indicator.BollingerParams{Period: indicator.DefaultBollingerWindow, Multiplier: indicator.DefaultBollingerMultiplier},
			},
			RebalanceFrequency: Daily,
			CombinationRule:    MajorityVote,
		},
		{
			Name:        Momentum,
			Description: "Chase strength with a fast EMA, RSI and MACD",
			Indicators: []indicator.Config{
				indicator.EMAParams{Period: 12},
				indicator.RSIParams{Period: 14, Overbought: indicator.DefaultRSIOverbought, Oversold: indicator.DefaultRSIOversold},
				indicator.MACDParams{Fast: indicator.DefaultMACDFast, Slow: indicator.DefaultMACDSlow, Signal: indicator.DefaultMACDSignal},
			},
			RebalanceFrequency: Daily,
			CombinationRule:    MajorityVote,
		},
		{
			Name:        Conservative,
			Description: "Slow moving averages and wide RSI thresholds for low turnover",
			Indicators: []indicator.Config{
				indicator.SMAParams{Period: 50},
				indicator.SMAParams{Period: 200},
				indicator.RSIParams{Period: 21, Overbought: 75, Oversold: 25},
			},
			RebalanceFrequency: Monthly,
			CombinationRule:    MajorityVote,
		},
	}
}

// Registry holds named strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Config
	order      []string
}

// NewRegistry creates a registry preloaded with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Config)}
	for _, cfg := range Builtins() {
		r.strategies[cfg.Name] = cfg
		r.order = append(r.order, cfg.Name)
	}
	return r
}

// Register adds a custom strategy after validating it.
func (r *Registry) Register(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[cfg.Name]; !exists {
		r.order = append(r.order, cfg.Name)
	}
	r.strategies[cfg.Name] = cfg
	return nil
}

// Deregister removes a strategy by name. Removing an unknown name is
// an error so that a typo in a disable list is noticed.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[name]; !ok {
		return core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("no such strategy: %s", name))
	}
	delete(r.strategies, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get retrieves a strategy by name. An unknown name is a hard error,
// never defaulted.
func (r *Registry) Get(name string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.strategies[name]
	if !ok {
		return Config{}, core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("no such strategy: %s", name))
	}
	return cfg, nil
}

// List returns all strategies in registration order.
func (r *Registry) List() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Config, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.strategies[name])
	}
	return result
}
