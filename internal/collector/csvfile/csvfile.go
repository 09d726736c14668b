// Package csvfile loads daily bars from CSV files, for offline backtests
// and fixtures. Expected columns: date,open,high,low,close,volume.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/quantfolio/quantfolio/internal/collector"
	"github.com/quantfolio/quantfolio/internal/core"
)

// Dir serves price history from a directory of <TICKER>.csv files.
type Dir struct {
	root string
}

// New creates a CSV provider rooted at dir.
func New(dir string) *Dir {
	return &Dir{root: dir}
}

func (d *Dir) Name() string {
	return "csvfile"
}

// FetchDaily loads <root>/<ticker>.csv and keeps bars inside [start, end].
func (d *Dir) FetchDaily(ctx context.Context, ticker string, start, end time.Time) (core.PriceSeries, error) {
	if err := collector.ValidateTicker(ticker); err != nil {
		return core.PriceSeries{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.PriceSeries{}, err
	}

	series, err := Load(filepath.Join(d.root, ticker+".csv"), ticker)
	if err != nil {
		return core.PriceSeries{}, err
	}

	bars := make([]core.PriceBar, 0, series.Len())
	for _, bar := range series.Bars {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("no bars for %s between %s and %s",
				ticker, start.Format(time.DateOnly), end.Format(time.DateOnly)))
	}
	return core.PriceSeries{Ticker: ticker, Bars: bars}, nil
}

// Load reads one CSV file into a price series. The header row names the
// columns; order does not matter and unknown columns are ignored.
func Load(path, ticker string) (core.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.PriceSeries{}, core.WrapError(core.ErrNoData, err)
		}
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("reading header of %s: %w", path, err))
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[required]; !ok {
			return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed,
				fmt.Errorf("%s: missing column %q", path, required))
		}
	}

	var bars []core.PriceBar
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed,
				fmt.Errorf("%s line %d: %w", path, line, err))
		}

		bar, err := parseBar(record, cols)
		if err != nil {
			return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed,
				fmt.Errorf("%s line %d: %w", path, line, err))
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return core.PriceSeries{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("%s has no data rows", path))
	}
	return core.NewPriceSeries(ticker, bars), nil
}

func parseBar(record []string, cols map[string]int) (core.PriceBar, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(record) {
			return "", fmt.Errorf("short record, missing %q", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	dateStr, err := field("date")
	if err != nil {
		return core.PriceBar{}, err
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return core.PriceBar{}, err
	}

	bar := core.PriceBar{Date: date}
	for name, dst := range map[string]*float64{
		"open":  &bar.Open,
		"high":  &bar.High,
		"low":   &bar.Low,
		"close": &bar.Close,
	} {
		s, err := field(name)
		if err != nil {
			return core.PriceBar{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return core.PriceBar{}, fmt.Errorf("bad %s value %q", name, s)
		}
		*dst = v
	}

	volStr, err := field("volume")
	if err != nil {
		return core.PriceBar{}, err
	}
	vol, err := strconv.ParseInt(volStr, 10, 64)
	if err != nil {
		return core.PriceBar{}, fmt.Errorf("bad volume value %q", volStr)
	}
	bar.Volume = vol

	return bar, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date value %q", s)
}
