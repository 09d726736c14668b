package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/strategy"
	"go.uber.org/zap"
)

// warmupBuffer is added to the largest indicator window when sizing the
// warm-up period: cross detection needs at least one prior bar of
// indicator history before the first simulated day.
const warmupBuffer = 5

// DefaultPositionSize is the fraction of cash committed per entry when
// the run config leaves it unset.
const DefaultPositionSize = 0.5

// State is the simulator lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// RunConfig describes one simulation run.
type RunConfig struct {
	Ticker              string
	Bars                []core.PriceBar
	Strategy            strategy.Config
	InitialCapital      float64
	PositionSizePercent float64 // fraction of cash per entry, (0,1]
	Commission          float64 // flat per executed trade
}

// Simulator replays a strategy over one ticker's bars. Each Simulator is
// constructed fresh from its inputs and owns its cash/position/trade
// state exclusively; independent runs may execute in parallel.
type Simulator struct {
	cfg    RunConfig
	series core.PriceSeries
	engine *strategy.Engine
	logger *zap.Logger

	state       State
	warmupIndex int

	cash           float64
	pos            position
	trades         []Trade
	daily          []DailyValue
	realizedPnL    float64
	commissionPaid float64
}

// New validates the run configuration and prepares a simulator.
// Insufficient history is a fatal, non-retryable setup error: there are
// no partial backtests.
func New(cfg RunConfig, logger *zap.Logger) (*Simulator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return nil, err
	}
	if cfg.InitialCapital <= 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("initial capital must be positive, got %f", cfg.InitialCapital))
	}
	if cfg.PositionSizePercent == 0 {
		cfg.PositionSizePercent = DefaultPositionSize
	}
	if cfg.PositionSizePercent < 0 || cfg.PositionSizePercent > 1 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("position size must be in (0,1], got %f", cfg.PositionSizePercent))
	}
	if cfg.Commission < 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("commission cannot be negative, got %f", cfg.Commission))
	}

	series := core.NewPriceSeries(cfg.Ticker, cfg.Bars)

	warmup := cfg.Strategy.MaxWindow() + warmupBuffer
	if series.Len() < warmup {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("strategy %s needs %d warm-up bars, have %d",
				cfg.Strategy.Name, warmup, series.Len()))
	}

	return &Simulator{
		cfg:         cfg,
		series:      series,
		engine:      strategy.NewEngine(logger),
		logger:      logger,
		state:       StateIdle,
		warmupIndex: warmup - 1,
		cash:        cfg.InitialCapital,
	}, nil
}

// State returns the simulator lifecycle state.
func (s *Simulator) State() State {
	return s.state
}

// Run executes the simulation and computes the final metrics. It may be
// called once per simulator.
func (s *Simulator) Run() (*Result, error) {
	if s.state != StateIdle {
		return nil, core.WrapError(core.ErrComputationFault,
			fmt.Errorf("simulator already %s", s.state))
	}
	s.state = StateRunning

	for i := s.warmupIndex; i < s.series.Len(); i++ {
		s.simulateDay(i)
	}

	// Force-close any remaining position at the final bar's close.
	last := s.series.Bars[s.series.Len()-1]
	if s.pos.open() {
		s.sell(last, "End of backtest")
		// The final daily value was recorded before the forced close;
		// refresh it so the series ends flat.
		s.daily[len(s.daily)-1] = s.snapshot(last)
	}

	s.state = StateCompleted

	first := s.series.Bars[s.warmupIndex]
	result := &Result{
		Ticker:       s.cfg.Ticker,
		StrategyName: s.cfg.Strategy.Name,
		StartDate:    first.Date,
		EndDate:      last.Date,
		Metrics:      s.computeMetrics(),
		Trades:       s.trades,
		DailyValues:  s.daily,
	}
	return result, nil
}

// simulateDay advances the state machine by one bar. A computation error
// on a single day is logged and treated as hold; a multi-year run never
// aborts for one bad day.
func (s *Simulator) simulateDay(i int) {
	bar := s.series.Bars[i]

	action := core.ActionHold
	sig, err := s.engine.Evaluate(s.cfg.Strategy, s.series.Prefix(i))
	if err != nil {
		if errors.Is(err, core.ErrInvalidParameter) {
			// Parameters were validated at setup; reaching this is a bug,
			// but it still only costs one day.
			s.logger.Error("unexpected parameter error mid-run", zap.Error(err))
		} else {
			s.logger.Warn("skipping day",
				zap.String("ticker", s.cfg.Ticker),
				zap.Time("date", bar.Date),
				zap.Error(err),
			)
		}
	} else {
		action = sig.Action
	}

	switch action {
	case core.ActionBuy:
		if !s.pos.open() {
			s.buy(bar, sig.Reason)
		}
	case core.ActionSell:
		if s.pos.open() {
			s.sell(bar, sig.Reason)
		}
	}

	s.daily = append(s.daily, s.snapshot(bar))
}

// buy opens a position sized to PositionSizePercent of current cash,
// floored to whole shares. Insufficient cash is a silent no-op.
func (s *Simulator) buy(bar core.PriceBar, reason string) {
	if bar.Close <= 0 {
		return
	}
	positionValue := s.cash * s.cfg.PositionSizePercent
	shares := int64(math.Floor(positionValue / bar.Close))
	if shares <= 0 {
		return
	}
	cost := float64(shares)*bar.Close + s.cfg.Commission
	if cost > s.cash {
		shares = int64(math.Floor((s.cash - s.cfg.Commission) / bar.Close))
		if shares <= 0 {
			return
		}
		cost = float64(shares)*bar.Close + s.cfg.Commission
	}

	s.cash -= cost
	s.commissionPaid += s.cfg.Commission
	s.pos.increase(bar.Close, shares)

	s.trades = append(s.trades, Trade{
		Date:       bar.Date,
		Type:       TradeBuy,
		Price:      bar.Close,
		Quantity:   shares,
		Value:      float64(shares) * bar.Close,
		Commission: s.cfg.Commission,
		Reason:     reason,
	})
}

// sell closes the entire position; partial exits are not modeled.
func (s *Simulator) sell(bar core.PriceBar, reason string) {
	pnl, shares := s.pos.close(bar.Close)
	proceeds := float64(shares)*bar.Close - s.cfg.Commission

	s.cash += proceeds
	s.commissionPaid += s.cfg.Commission
	s.realizedPnL += pnl

	realized := pnl
	s.trades = append(s.trades, Trade{
		Date:        bar.Date,
		Type:        TradeSell,
		Price:       bar.Close,
		Quantity:    shares,
		Value:       float64(shares) * bar.Close,
		Commission:  s.cfg.Commission,
		RealizedPnL: &realized,
		Reason:      reason,
	})
}

func (s *Simulator) snapshot(bar core.PriceBar) DailyValue {
	return DailyValue{
		Date:           bar.Date,
		Cash:           s.cash,
		Shares:         s.pos.shares,
		Price:          bar.Close,
		PortfolioValue: s.cash + float64(s.pos.shares)*bar.Close,
	}
}
