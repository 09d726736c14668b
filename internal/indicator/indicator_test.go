package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quantfolio/quantfolio/internal/core"
)

func seriesOf(closes ...float64) core.PriceSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = core.PriceBar{Date: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return core.NewPriceSeries("TEST", bars)
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestCompute_SMA_CrossSignals(t *testing.T) {
	// SMA(2): values [10, 10, 9.5, 10.5] at bars 1..4
	s := seriesOf(10, 10, 10, 9, 12)

	r, err := Compute(SMAParams{Period: 2}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	want := []float64{10, 10, 9.5, 10.5}
	if len(r.Values) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(r.Values))
	}
	for i, v := range want {
		if !almostEqual(r.Values[i], v, 1e-9) {
			t.Errorf("Values[%d] = %f, want %f", i, r.Values[i], v)
		}
	}

	wantActions := []core.Action{core.ActionHold, core.ActionHold, core.ActionSell, core.ActionBuy}
	for i, a := range wantActions {
		if r.Actions[i] != a {
			t.Errorf("Actions[%d] = %s, want %s", i, r.Actions[i], a)
		}
	}
	if r.Latest() != core.ActionBuy {
		t.Errorf("Latest() = %s, want buy", r.Latest())
	}
}

func TestCompute_SMA_FlatSeriesHolds(t *testing.T) {
	s := seriesOf(50, 50, 50, 50, 50, 50, 50, 50)

	r, err := Compute(SMAParams{Period: 3}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for i, v := range r.Values {
		if v != 50 {
			t.Errorf("Values[%d] = %f, want exactly 50", i, v)
		}
	}
	for i, a := range r.Actions {
		if a != core.ActionHold {
			t.Errorf("Actions[%d] = %s, want hold on flat data", i, a)
		}
	}
}

func TestCompute_EMA_FullLengthOutput(t *testing.T) {
	s := seriesOf(10, 11, 12, 13, 14, 15)

	r, err := Compute(EMAParams{Period: 3}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	// EMA output is as long as the input, seeded with the first close.
	if len(r.Values) != s.Len() {
		t.Fatalf("expected %d values, got %d", s.Len(), len(r.Values))
	}
	if r.Values[0] != 10 {
		t.Errorf("Values[0] = %f, want seed 10", r.Values[0])
	}
	if r.ValueOffset != 0 {
		t.Errorf("ValueOffset = %d, want 0", r.ValueOffset)
	}
}

func TestCompute_EMA_FlatSeriesHolds(t *testing.T) {
	s := seriesOf(50, 50, 50, 50, 50, 50)

	r, err := Compute(EMAParams{Period: 3}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for i, v := range r.Values {
		if v != 50 {
			t.Errorf("Values[%d] = %f, want exactly 50", i, v)
		}
	}
	for i, a := range r.Actions {
		if a != core.ActionHold {
			t.Errorf("Actions[%d] = %s, want hold", i, a)
		}
	}
}

func TestCompute_InsufficientData(t *testing.T) {
	s := seriesOf(10, 11, 12)

	_, err := Compute(SMAParams{Period: 3}, s) // needs window+1 = 4 bars
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	_, err = Compute(MACDParams{Fast: 12, Slow: 26, Signal: 9}, s)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for MACD, got %v", err)
	}
}

func TestCompute_InvalidParameter(t *testing.T) {
	s := seriesOf(10, 11, 12, 13, 14)

	cases := []Config{
		SMAParams{Period: -5},
		EMAParams{Period: 0},
		RSIParams{Period: 14, Overbought: 30, Oversold: 70}, // inverted
		MACDParams{Fast: 26, Slow: 12, Signal: 9},           // fast >= slow
		BollingerParams{Period: 20, Multiplier: 0},
	}
	for _, cfg := range cases {
		if _, err := Compute(cfg, s); !errors.Is(err, core.ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", cfg.Name(), err)
		}
	}
}

func TestResult_RecentActions(t *testing.T) {
	s := seriesOf(10, 10, 10, 9, 12, 13, 12, 14)

	r, err := Compute(SMAParams{Period: 2}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	recent := r.RecentActions(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(recent))
	}
	if recent[2] != r.Latest() {
		t.Error("last recent action should equal Latest()")
	}

	// Asking for more than available returns everything
	all := r.RecentActions(100)
	if len(all) != len(r.Actions) {
		t.Errorf("expected %d actions, got %d", len(r.Actions), len(all))
	}
}
