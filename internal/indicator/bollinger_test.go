package indicator

import (
	"testing"

	"github.com/quantfolio/quantfolio/internal/core"
)

func TestBollinger_BandGeometry(t *testing.T) {
	s := seriesOf(10, 12, 14, 13, 15, 16, 14, 15)

	p := BollingerParams{Period: 5, Multiplier: 2}
	r, err := Compute(p, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if len(r.Values) != 4 || len(r.Upper) != 4 || len(r.Lower) != 4 {
		t.Fatalf("band lengths = %d/%d/%d, want 4 each", len(r.Values), len(r.Upper), len(r.Lower))
	}
	for j := range r.Values {
		if r.Upper[j] < r.Values[j] || r.Lower[j] > r.Values[j] {
			t.Errorf("bands inverted at %d: [%f, %f, %f]", j, r.Lower[j], r.Values[j], r.Upper[j])
		}
		spread := r.Upper[j] - r.Values[j]
		if !almostEqual(r.Values[j]-r.Lower[j], spread, 1e-9) {
			t.Errorf("bands asymmetric at %d", j)
		}
	}
}

func TestBollinger_SellAboveUpperBand(t *testing.T) {
	// Window [10,10,20]: middle 13.33, population sd 4.714. With
	// multiplier 1 the upper band is 18.05, so the close at 20 sells.
	s := seriesOf(10, 10, 20)

	r, err := Compute(BollingerParams{Period: 3, Multiplier: 1}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if r.Latest() != core.ActionSell {
		t.Errorf("Latest() = %s, want sell", r.Latest())
	}
}

func TestBollinger_BuyBelowLowerBand(t *testing.T) {
	// Window [10,10,2]: middle 7.33, population sd 3.77, lower band 3.56.
	s := seriesOf(10, 10, 2)

	r, err := Compute(BollingerParams{Period: 3, Multiplier: 1}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if r.Latest() != core.ActionBuy {
		t.Errorf("Latest() = %s, want buy", r.Latest())
	}
}

func TestBollinger_HoldInsideBands(t *testing.T) {
	s := seriesOf(10, 11, 9, 10, 11, 10)

	r, err := Compute(BollingerParams{Period: 5, Multiplier: 2}, s)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if r.Latest() != core.ActionHold {
		t.Errorf("Latest() = %s, want hold", r.Latest())
	}
}
