package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/indicator"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

func bars(closes ...float64) []core.PriceBar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = core.PriceBar{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

// smaOnly is a minimal single-indicator strategy whose crosses are easy
// to place by hand.
func smaOnly() strategy.Config {
	return strategy.Config{
		Name:               "sma_only",
		Indicators:         []indicator.Config{indicator.SMAParams{Period: 2}},
		RebalanceFrequency: strategy.Daily,
		CombinationRule:    strategy.MajorityVote,
	}
}

func TestNew_SetupErrors(t *testing.T) {
	valid := bars(10, 10, 10, 10, 10, 10, 10, 10, 10, 10)

	cases := []struct {
		name string
		cfg  RunConfig
		want error
	}{
		{
			name: "zero capital",
			cfg:  RunConfig{Ticker: "TEST", Bars: valid, Strategy: smaOnly()},
			want: core.ErrInvalidParameter,
		},
		{
			name: "position size above one",
			cfg: RunConfig{Ticker: "TEST", Bars: valid, Strategy: smaOnly(),
				InitialCapital: 1000, PositionSizePercent: 1.5},
			want: core.ErrInvalidParameter,
		},
		{
			name: "negative commission",
			cfg: RunConfig{Ticker: "TEST", Bars: valid, Strategy: smaOnly(),
				InitialCapital: 1000, Commission: -1},
			want: core.ErrInvalidParameter,
		},
		{
			name: "not enough warm-up bars",
			cfg: RunConfig{Ticker: "TEST", Bars: bars(10, 10, 10), Strategy: smaOnly(),
				InitialCapital: 1000},
			want: core.ErrInsufficientData,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sim, err := New(tc.cfg, nil)
			if sim != nil {
				t.Fatal("expected nil simulator")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRun_BuyThenSell(t *testing.T) {
	// A dip at bar 6 followed by a jump at bar 7 crosses the 2-day mean
	// upward; the drop at bar 9 crosses it back down.
	sim, err := New(RunConfig{
		Ticker:         "TEST",
		Bars:           bars(10, 10, 10, 10, 10, 10, 9, 12, 12, 8),
		Strategy:       smaOnly(),
		InitialCapital: 1000,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run()
	if err != nil {
		t.Fatal(err)
	}
	if sim.State() != StateCompleted {
		t.Errorf("state = %s, want %s", sim.State(), StateCompleted)
	}

	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d: %+v", len(res.Trades), res.Trades)
	}
	buy, sell := res.Trades[0], res.Trades[1]
	if buy.Type != TradeBuy || buy.Price != 12 || buy.Quantity != 41 {
		t.Errorf("unexpected buy trade: %+v", buy)
	}
	if sell.Type != TradeSell || sell.Price != 8 || sell.Quantity != 41 {
		t.Errorf("unexpected sell trade: %+v", sell)
	}
	if sell.RealizedPnL == nil || math.Abs(*sell.RealizedPnL-(-164)) > 1e-9 {
		t.Errorf("sell pnl = %v, want -164", sell.RealizedPnL)
	}

	m := res.Metrics
	if math.Abs(m.FinalValue-836) > 1e-9 {
		t.Errorf("final value = %f, want 836", m.FinalValue)
	}
	if math.Abs(m.TotalReturn-(-0.164)) > 1e-9 {
		t.Errorf("total return = %f, want -0.164", m.TotalReturn)
	}
	if m.TotalTrades != 2 || m.ProfitableTrades != 0 || m.WinRate != 0 {
		t.Errorf("trade stats = %+v", m)
	}
	if math.Abs(m.MaxDrawdown-(-0.164)) > 1e-9 {
		t.Errorf("max drawdown = %f, want -0.164", m.MaxDrawdown)
	}
	if math.Abs(m.AverageReturn-(-0.164)) > 1e-9 {
		t.Errorf("average return = %f, want -0.164", m.AverageReturn)
	}
}

func TestRun_ForcedCloseAtEnd(t *testing.T) {
	// Same entry as above but the series keeps rising, so the open
	// position is liquidated at the final close.
	sim, err := New(RunConfig{
		Ticker:         "TEST",
		Bars:           bars(10, 10, 10, 10, 10, 10, 9, 12, 12, 14),
		Strategy:       smaOnly(),
		InitialCapital: 1000,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run()
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(res.Trades))
	}
	sell := res.Trades[1]
	if sell.Type != TradeSell || sell.Reason != "End of backtest" {
		t.Errorf("unexpected closing trade: %+v", sell)
	}
	if sell.RealizedPnL == nil || math.Abs(*sell.RealizedPnL-82) > 1e-9 {
		t.Errorf("closing pnl = %v, want 82", sell.RealizedPnL)
	}

	if math.Abs(res.Metrics.FinalValue-1082) > 1e-9 {
		t.Errorf("final value = %f, want 1082", res.Metrics.FinalValue)
	}
	if res.Metrics.WinRate != 1 {
		t.Errorf("win rate = %f, want 1", res.Metrics.WinRate)
	}

	// The forced close must be reflected in the last daily value.
	last := res.DailyValues[len(res.DailyValues)-1]
	if last.Shares != 0 || math.Abs(last.PortfolioValue-1082) > 1e-9 {
		t.Errorf("last daily value not refreshed after close: %+v", last)
	}
}

func TestRun_InsufficientCashIsNoOp(t *testing.T) {
	// Half of 5 dollars buys zero whole shares at 12, so the entry
	// signal executes nothing and no position ever opens.
	sim, err := New(RunConfig{
		Ticker:         "TEST",
		Bars:           bars(10, 10, 10, 10, 10, 10, 9, 12, 12, 8),
		Strategy:       smaOnly(),
		InitialCapital: 5,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades, got %+v", res.Trades)
	}
	if res.Metrics.FinalValue != 5 || res.Metrics.TotalReturn != 0 {
		t.Errorf("metrics = %+v, want untouched capital", res.Metrics)
	}
	if res.Metrics.WinRate != 0 || res.Metrics.AverageReturn != 0 {
		t.Errorf("expected zero trade metrics, got %+v", res.Metrics)
	}
}

func TestRun_CommissionReducesOversizedOrder(t *testing.T) {
	// A full-size entry at 12 would cost 996 plus 10 commission, more
	// than the 1000 on hand; the order shrinks to fit.
	sim, err := New(RunConfig{
		Ticker:              "TEST",
		Bars:                bars(10, 10, 10, 10, 10, 10, 9, 12, 12, 8),
		Strategy:            smaOnly(),
		InitialCapital:      1000,
		PositionSizePercent: 1.0,
		Commission:          10,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(res.Trades))
	}
	if res.Trades[0].Quantity != 82 {
		t.Errorf("buy quantity = %d, want 82", res.Trades[0].Quantity)
	}

	var commissions, realized float64
	for _, tr := range res.Trades {
		commissions += tr.Commission
		if tr.RealizedPnL != nil {
			realized += *tr.RealizedPnL
		}
	}
	m := res.Metrics
	diff := (m.FinalValue - m.InitialCapital) - (realized - commissions)
	if math.Abs(diff) > 1e-9 {
		t.Errorf("cash not conserved, residual %g", diff)
	}
}

func TestRun_FlatSeriesNeverTrades(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10
	}

	sim, err := New(RunConfig{
		Ticker:         "TEST",
		Bars:           bars(closes...),
		Strategy:       smaOnly(),
		InitialCapital: 1000,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades on a flat series, got %+v", res.Trades)
	}
	if res.Metrics.TotalReturn != 0 || res.Metrics.MaxDrawdown != 0 {
		t.Errorf("metrics = %+v, want zeroes", res.Metrics)
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	sim, err := New(RunConfig{
		Ticker:         "TEST",
		Bars:           bars(10, 10, 10, 10, 10, 10, 9, 12, 12, 8),
		Strategy:       smaOnly(),
		InitialCapital: 1000,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sim.State() != StateIdle {
		t.Errorf("state = %s, want %s", sim.State(), StateIdle)
	}

	if _, err := sim.Run(); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.Run(); !errors.Is(err, core.ErrComputationFault) {
		t.Errorf("second run error = %v, want %v", err, core.ErrComputationFault)
	}
}

// sawtoothBars builds a 300 bar series: a slow uptrend for 250 bars,
// then a decline, with a 20 bar sawtooth riding on top. Each sawtooth
// reset is a sharp one-bar jump that crosses the moving averages.
func sawtoothBars() []core.PriceBar {
	closes := make([]float64, 300)
	for i := range closes {
		var trend float64
		if i < 250 {
			trend = 100 + 0.4*float64(i)
		} else {
			trend = 199.6 - float64(i-249)
		}
		osc := 6 * (1 - 2*float64(i%20)/19)
		closes[i] = trend + osc
	}
	return bars(closes...)
}

func TestRun_TrendFollowingEndToEnd(t *testing.T) {
	cfg, err := strategy.NewRegistry().Get(strategy.TrendFollowing)
	if err != nil {
		t.Fatal(err)
	}

	series := sawtoothBars()
	sim, err := New(RunConfig{
		Ticker:              "TEST",
		Bars:                series,
		Strategy:            cfg,
		InitialCapital:      10000,
		PositionSizePercent: 0.5,
		Commission:          5,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := sim.Run()
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Trades) < 2 {
		t.Fatalf("expected at least one round trip, got %+v", res.Trades)
	}

	// At least one entry during the uptrend.
	peak := series[249].Date
	var boughtInUptrend bool
	for _, tr := range res.Trades {
		if tr.Type == TradeBuy && tr.Date.Before(peak) {
			boughtInUptrend = true
		}
	}
	if !boughtInUptrend {
		t.Error("expected a buy before the trend peak")
	}

	// Sells always liquidate the whole position.
	var held int64
	for _, tr := range res.Trades {
		switch tr.Type {
		case TradeBuy:
			held += tr.Quantity
		case TradeSell:
			if tr.Quantity != held {
				t.Errorf("partial sell: quantity %d with %d held", tr.Quantity, held)
			}
			held = 0
		}
	}

	last := res.Trades[len(res.Trades)-1]
	if last.Type != TradeSell {
		t.Errorf("last trade should close the position, got %+v", last)
	}

	m := res.Metrics
	if m.TotalReturn <= 0 {
		t.Errorf("total return = %f, want positive on a trending series", m.TotalReturn)
	}
	if m.TotalTrades != len(res.Trades) {
		t.Errorf("totalTrades = %d, want %d", m.TotalTrades, len(res.Trades))
	}
	if m.CAGR <= 0 {
		t.Errorf("cagr = %f, want positive", m.CAGR)
	}

	var commissions, realized float64
	for _, tr := range res.Trades {
		commissions += tr.Commission
		if tr.RealizedPnL != nil {
			realized += *tr.RealizedPnL
		}
	}
	diff := (m.FinalValue - m.InitialCapital) - (realized - commissions)
	if math.Abs(diff) > 1e-6 {
		t.Errorf("cash not conserved, residual %g", diff)
	}

	// Warm-up is the largest window plus the cross-detection buffer.
	if got, want := len(res.DailyValues), 300-30; got != want {
		t.Errorf("daily values = %d, want %d", got, want)
	}
	if !res.StartDate.Equal(series[30].Date) {
		t.Errorf("start date = %s, want %s", res.StartDate, series[30].Date)
	}
	if !res.EndDate.Equal(series[299].Date) {
		t.Errorf("end date = %s, want %s", res.EndDate, series[299].Date)
	}
}

func TestRun_NoLookAhead(t *testing.T) {
	series := sawtoothBars()

	run := func(b []core.PriceBar) *Result {
		cfg, err := strategy.NewRegistry().Get(strategy.TrendFollowing)
		if err != nil {
			t.Fatal(err)
		}
		sim, err := New(RunConfig{
			Ticker:         "TEST",
			Bars:           b,
			Strategy:       cfg,
			InitialCapital: 10000,
			Commission:     5,
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		res, err := sim.Run()
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	full := run(series)

	// Distorting bars after day 100 must not change any trade decided
	// on or before day 100.
	mutated := make([]core.PriceBar, len(series))
	copy(mutated, series)
	for i := 101; i < len(mutated); i++ {
		mutated[i].Close = 99999
		mutated[i].High = 99999
	}
	alt := run(mutated)

	cutoff := series[100].Date
	var before, altBefore []Trade
	for _, tr := range full.Trades {
		if !tr.Date.After(cutoff) {
			before = append(before, tr)
		}
	}
	for _, tr := range alt.Trades {
		if !tr.Date.After(cutoff) {
			altBefore = append(altBefore, tr)
		}
	}

	if len(before) != len(altBefore) {
		t.Fatalf("trade count before cutoff changed: %d vs %d", len(before), len(altBefore))
	}
	for i := range before {
		a, b := before[i], altBefore[i]
		if a.Type != b.Type || !a.Date.Equal(b.Date) || a.Price != b.Price || a.Quantity != b.Quantity {
			t.Errorf("trade %d diverged: %+v vs %+v", i, a, b)
		}
	}
}
