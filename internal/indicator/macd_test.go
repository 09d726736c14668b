package indicator

import (
	"testing"

	"github.com/quantfolio/quantfolio/internal/core"
)

func TestMACD_SeriesLengths(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	s := seriesOf(closes...)

	p := MACDParams{Fast: 12, Slow: 26, Signal: 9}
	r, err := Compute(p, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if len(r.Values) != 60 {
		t.Errorf("macd line length = %d, want 60", len(r.Values))
	}
	if len(r.SignalLine) != 60 {
		t.Errorf("signal line length = %d, want 60", len(r.SignalLine))
	}
	// Histogram is shorter by signalPeriod-1
	if len(r.Histogram) != 60-(p.Signal-1) {
		t.Errorf("histogram length = %d, want %d", len(r.Histogram), 60-(p.Signal-1))
	}
	if r.ActionOffset != p.Signal-1 {
		t.Errorf("ActionOffset = %d, want %d", r.ActionOffset, p.Signal-1)
	}
}

func TestMACD_HistogramIsLineMinusSignal(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	s := seriesOf(closes...)

	p := MACDParams{Fast: 5, Slow: 10, Signal: 4}
	r, err := Compute(p, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for j, h := range r.Histogram {
		i := j + p.Signal - 1
		want := r.Values[i] - r.SignalLine[i]
		if !almostEqual(h, want, 1e-9) {
			t.Errorf("Histogram[%d] = %f, want %f", j, h, want)
		}
	}
}

func TestMACD_FlatSeriesHolds(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 75
	}

	r, err := Compute(MACDParams{Fast: 12, Slow: 26, Signal: 9}, seriesOf(closes...))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for i, a := range r.Actions {
		if a != core.ActionHold {
			t.Errorf("Actions[%d] = %s, want hold on flat data", i, a)
		}
	}
}

func TestMACD_CrossOnTrendReversal(t *testing.T) {
	// 40 declining bars followed by 40 rising bars: the MACD line must
	// cross above its signal line somewhere in the recovery.
	closes := make([]float64, 80)
	for i := 0; i < 40; i++ {
		closes[i] = 200 - float64(i)*2
	}
	for i := 40; i < 80; i++ {
		closes[i] = closes[39] + float64(i-39)*3
	}

	r, err := Compute(MACDParams{Fast: 12, Slow: 26, Signal: 9}, seriesOf(closes...))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	var sawBuy bool
	for j, a := range r.Actions {
		if a == core.ActionBuy && j+r.ActionOffset >= 40 {
			sawBuy = true
			break
		}
	}
	if !sawBuy {
		t.Error("expected a buy cross after the trend reversal")
	}
}
