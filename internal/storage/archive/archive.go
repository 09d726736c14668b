// Package archive persists completed backtest results to cold storage,
// either the local filesystem or an S3-compatible bucket.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/core"
)

// Storage is a flat key/value blob store.
type Storage interface {
	// Write stores data at the given path.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path.
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Results archives backtest results as JSON documents, keyed
// backtests/<ticker>/<id>.json.
type Results struct {
	store Storage
}

// NewResults creates a result archive over the given backend.
func NewResults(store Storage) *Results {
	return &Results{store: store}
}

func resultKey(ticker, id string) string {
	return path.Join("backtests", ticker, id+".json")
}

// Save archives one completed result. The result must carry its ID.
func (r *Results) Save(ctx context.Context, res *backtest.Result) error {
	if res == nil || res.ID == "" || res.Ticker == "" {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("result needs an id and a ticker to be archived"))
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.store.Write(ctx, resultKey(res.Ticker, res.ID), data)
}

// Load retrieves an archived result.
func (r *Results) Load(ctx context.Context, ticker, id string) (*backtest.Result, error) {
	data, err := r.store.Read(ctx, resultKey(ticker, id))
	if err != nil {
		return nil, err
	}
	var res backtest.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding archived result %s/%s: %w", ticker, id, err)
	}
	return &res, nil
}

// ListIDs returns the archived result IDs for a ticker.
func (r *Results) ListIDs(ctx context.Context, ticker string) ([]string, error) {
	paths, err := r.store.List(ctx, path.Join("backtests", ticker))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		name := path.Base(p)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
