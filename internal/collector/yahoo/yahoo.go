package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quantfolio/quantfolio/internal/collector"
	"github.com/quantfolio/quantfolio/internal/core"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client fetches daily history from the Yahoo Finance chart API.
type Client struct {
	http *resty.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the chart API endpoint. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(url)
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// New creates a Yahoo Finance client.
func New(opts ...Option) *Client {
	http := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(10 * time.Second).
		SetHeader("User-Agent", "quantfolio/1.0")

	c := &Client{http: http}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal ticker format to Yahoo format.
// Shanghai tickers use the .SS suffix there: 600519.SH -> 600519.SS
func toYahooSymbol(ticker string) string {
	if strings.HasSuffix(ticker, ".SH") {
		return strings.TrimSuffix(ticker, ".SH") + ".SS"
	}
	return ticker
}

// FetchDaily fetches daily bars between start and end, inclusive.
func (c *Client) FetchDaily(ctx context.Context, ticker string, start, end time.Time) (core.PriceSeries, error) {
	if err := collector.ValidateTicker(ticker); err != nil {
		return core.PriceSeries{}, err
	}
	if !end.After(start) {
		return core.PriceSeries{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("end %s must be after start %s", end.Format(time.DateOnly), start.Format(time.DateOnly)))
	}

	var result chartResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", toYahooSymbol(ticker)).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"period1":  fmt.Sprintf("%d", start.Unix()),
			"period2":  fmt.Sprintf("%d", end.Unix()),
		}).
		SetResult(&result).
		Get("/{symbol}")
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("fetching %s: %w", ticker, err))
	}
	if resp.IsError() {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("fetching %s: unexpected status %d", ticker, resp.StatusCode()))
	}
	if result.Chart.Error != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("yahoo error for %s: %s", ticker, result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("no chart data for %s", ticker))
	}

	r := result.Chart.Result[0]
	quote := r.Indicators.Quote[0]

	bars := make([]core.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		// Yahoo leaves holes for halted days and sometimes ships quote
		// arrays shorter than the timestamp list; skip incomplete bars.
		if i >= len(quote.Close) || i >= len(quote.Open) ||
			quote.Close[i] == nil || quote.Open[i] == nil {
			continue
		}
		bar := core.PriceBar{
			Date:  time.Unix(int64(ts), 0).UTC(),
			Open:  *quote.Open[i],
			Close: *quote.Close[i],
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = int64(*quote.Volume[i])
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("no usable bars for %s", ticker))
	}

	return core.NewPriceSeries(ticker, bars), nil
}

// Yahoo chart API response types.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int `json:"timestamp"`
	Indicators struct {
		Quote []quoteIndicator `json:"quote"`
	} `json:"indicators"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int     `json:"volume"`
}
