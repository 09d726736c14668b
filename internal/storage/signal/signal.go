package signal

import (
	"context"
	"time"

	"github.com/quantfolio/quantfolio/internal/core"
)

// Store persists generated signals for later retrieval.
type Store interface {
	// Save persists a signal and assigns it an ID.
	Save(ctx context.Context, sig core.Signal) (core.Signal, error)

	// GetByID retrieves a signal by its ID.
	GetByID(ctx context.Context, id string) (*core.Signal, error)

	// List retrieves signals matching the filter, oldest first.
	List(ctx context.Context, filter ListFilter) ([]core.Signal, error)

	// Count returns the number of signals matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing signals.
type ListFilter struct {
	Ticker   string
	Strategy string
	Action   core.Action
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
