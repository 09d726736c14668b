package indicator

import (
	"math/rand"
	"testing"

	"github.com/quantfolio/quantfolio/internal/core"
)

func TestRSI_KnownValues(t *testing.T) {
	// Window 3. At bar 3 the deltas are [+1, +1, -1]: avgGain=2/3,
	// avgLoss=1/3, RS=2, RSI=66.67. At bar 4 deltas are [+1, -1, -1]:
	// RS=0.5, RSI=33.33.
	s := seriesOf(10, 11, 12, 11, 10)

	r, err := Compute(RSIParams{Period: 3, Overbought: 70, Oversold: 30}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if len(r.Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(r.Values))
	}
	if !almostEqual(r.Values[0], 100.0*2/3, 0.01) {
		t.Errorf("Values[0] = %f, want 66.67", r.Values[0])
	}
	if !almostEqual(r.Values[1], 100.0/3, 0.01) {
		t.Errorf("Values[1] = %f, want 33.33", r.Values[1])
	}
	if r.ValueOffset != 3 {
		t.Errorf("ValueOffset = %d, want 3", r.ValueOffset)
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	s := seriesOf(10, 11, 12, 13, 14, 15)

	r, err := Compute(RSIParams{Period: 3, Overbought: 70, Oversold: 30}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for i, v := range r.Values {
		if v != 100 {
			t.Errorf("Values[%d] = %f, want 100 for monotone gains", i, v)
		}
	}
	if r.Latest() != core.ActionSell {
		t.Errorf("Latest() = %s, want sell above overbought", r.Latest())
	}
}

func TestRSI_FlatSeriesIsNeutral(t *testing.T) {
	s := seriesOf(50, 50, 50, 50, 50)

	r, err := Compute(RSIParams{Period: 3, Overbought: 70, Oversold: 30}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for i, v := range r.Values {
		if v != 50 {
			t.Errorf("Values[%d] = %f, want neutral 50 when gains and losses are both zero", i, v)
		}
	}
	if r.Latest() != core.ActionHold {
		t.Errorf("Latest() = %s, want hold", r.Latest())
	}
}

func TestRSI_BoundsOnRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	closes := make([]float64, 200)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] + rng.Float64()*4 - 2
	}

	r, err := Compute(RSIParams{Period: 14, Overbought: 70, Oversold: 30}, seriesOf(closes...))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for i, v := range r.Values {
		if v < 0 || v > 100 {
			t.Errorf("Values[%d] = %f outside [0,100]", i, v)
		}
	}
}

func TestRSI_ThresholdSignals(t *testing.T) {
	// Persistent losses drive RSI to 0, which is below oversold.
	s := seriesOf(20, 19, 18, 17, 16, 15)

	r, err := Compute(RSIParams{Period: 3, Overbought: 70, Oversold: 30}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if r.Latest() != core.ActionBuy {
		t.Errorf("Latest() = %s, want buy below oversold", r.Latest())
	}
}
