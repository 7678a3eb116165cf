package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
)

// MemoryProvider implements Database in process memory. It is the default
// provider for development installs and tests; history is lost on exit.
type MemoryProvider struct {
	mu        sync.Mutex
	decisions []types.Decision
	snapshots map[time.Time]types.PriceSnapshot
}

// NewMemory returns an empty in-memory database.
func NewMemory() *MemoryProvider {
	return &MemoryProvider{
		snapshots: make(map[time.Time]types.PriceSnapshot),
	}
}

// InsertDecision appends the decision.
func (m *MemoryProvider) InsertDecision(_ context.Context, d types.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, d)
	return nil
}

// UpsertPriceSnapshot stores the snapshot keyed by its timestamp.
func (m *MemoryProvider) UpsertPriceSnapshot(_ context.Context, snap types.PriceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.Timestamp.UTC()] = snap
	return nil
}

// GetDecisionHistory returns decisions within [start, end) ordered by time.
func (m *MemoryProvider) GetDecisionHistory(_ context.Context, start, end time.Time) ([]types.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Decision
	for _, d := range m.decisions {
		if !d.Timestamp.Before(start) && d.Timestamp.Before(end) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// GetPriceHistory returns snapshots within [start, end) ordered by time.
func (m *MemoryProvider) GetPriceHistory(_ context.Context, start, end time.Time) ([]types.PriceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.PriceSnapshot
	for _, snap := range m.snapshots {
		if !snap.Timestamp.Before(start) && snap.Timestamp.Before(end) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// GetLatestDecisionTime returns the newest decision timestamp.
func (m *MemoryProvider) GetLatestDecisionTime(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	for _, d := range m.decisions {
		if d.Timestamp.After(latest) {
			latest = d.Timestamp
		}
	}
	return latest, nil
}

// Close is a no-op for the in-memory provider.
func (m *MemoryProvider) Close() error {
	return nil
}

var _ Database = (*MemoryProvider)(nil)
