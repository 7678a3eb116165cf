package storage

import (
	"context"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
)

// Database defines the interface for persisting control history. The loop
// records every publish decision and the price curves behind each
// regeneration; the status server reads them back for operators.
type Database interface {
	// InsertDecision adds one publish decision.
	InsertDecision(ctx context.Context, d types.Decision) error

	// UpsertPriceSnapshot adds or replaces the price curves for a
	// regeneration timestamp.
	UpsertPriceSnapshot(ctx context.Context, snap types.PriceSnapshot) error

	// GetDecisionHistory retrieves decisions within [start, end).
	GetDecisionHistory(ctx context.Context, start, end time.Time) ([]types.Decision, error)

	// GetPriceHistory retrieves price snapshots within [start, end).
	GetPriceHistory(ctx context.Context, start, end time.Time) ([]types.PriceSnapshot, error)

	// GetLatestDecisionTime returns the timestamp of the newest decision, or
	// the zero time when none exist.
	GetLatestDecisionTime(ctx context.Context) (time.Time, error)

	// Close releases the underlying client.
	Close() error
}
