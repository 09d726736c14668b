package handler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/indicator"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

// fakeProvider serves a canned series for any ticker.
type fakeProvider struct {
	closes []float64
	err    error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchDaily(ctx context.Context, ticker string, start, end time.Time) (core.PriceSeries, error) {
	if f.err != nil {
		return core.PriceSeries{}, f.err
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.PriceBar, len(f.closes))
	for i, c := range f.closes {
		bars[i] = core.PriceBar{
			Date: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100,
		}
	}
	return core.NewPriceSeries(ticker, bars), nil
}

func flatCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 10
	}
	return out
}

// testRegistry returns a registry holding a minimal two-day moving
// average strategy named "sma_only" alongside the builtins.
func testRegistry(t *testing.T) *strategy.Registry {
	t.Helper()
	reg := strategy.NewRegistry()
	err := reg.Register(strategy.Config{
		Name:               "sma_only",
		Indicators:         []indicator.Config{indicator.SMAParams{Period: 2}},
		RebalanceFrequency: strategy.Daily,
		CombinationRule:    strategy.MajorityVote,
	})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func testLogger() *zap.Logger { return zap.NewNop() }
