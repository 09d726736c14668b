package collector

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/quantfolio/quantfolio/internal/core"
)

// Provider fetches daily price history for one ticker.
type Provider interface {
	// Name identifies the provider in logs and config.
	Name() string

	// FetchDaily returns daily bars for the ticker between start and end,
	// inclusive, sorted ascending by date.
	FetchDaily(ctx context.Context, ticker string, start, end time.Time) (core.PriceSeries, error)
}

// validTicker matches symbols like AAPL, MSFT, 0700.HK, 600519.SS
var validTicker = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// ValidateTicker checks that a ticker has a plausible symbol format
// before it is interpolated into a provider URL or file path.
func ValidateTicker(ticker string) error {
	if ticker == "" {
		return core.WrapError(core.ErrInvalidParameter, fmt.Errorf("ticker cannot be empty"))
	}
	if len(ticker) > 20 {
		return core.WrapError(core.ErrInvalidParameter, fmt.Errorf("ticker too long: %s", ticker))
	}
	if !validTicker.MatchString(ticker) {
		return core.WrapError(core.ErrInvalidParameter, fmt.Errorf("invalid ticker format: %s", ticker))
	}
	return nil
}
