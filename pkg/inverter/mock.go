package inverter

import (
	"context"
	"sync"

	"github.com/gridflux/gridflux/pkg/types"
)

// Mock implements Sink and Sensors for tests and the default local setup.
// It records every publish and serves a configurable sensor snapshot.
type Mock struct {
	mu sync.Mutex

	Snapshot   types.SensorSnapshot
	ReadErr    error
	PublishErr error

	schedules []types.Schedule
	statuses  []string
}

// NewMock returns a Mock with all sensors unavailable.
func NewMock() *Mock {
	return &Mock{}
}

// PublishSchedule records the schedule.
func (m *Mock) PublishSchedule(ctx context.Context, s types.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.schedules = append(m.schedules, s)
	return nil
}

// PublishStatus records the status string.
func (m *Mock) PublishStatus(ctx context.Context, status string, attrs map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	return nil
}

// Read returns the configured snapshot.
func (m *Mock) Read(ctx context.Context) (types.SensorSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return types.SensorSnapshot{}, m.ReadErr
	}
	return m.Snapshot, nil
}

// SetSnapshot replaces the served snapshot.
func (m *Mock) SetSnapshot(s types.SensorSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshot = s
}

// Schedules returns a copy of every published schedule in order.
func (m *Mock) Schedules() []types.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Schedule, len(m.schedules))
	copy(out, m.schedules)
	return out
}

// LastSchedule returns the most recently published schedule.
func (m *Mock) LastSchedule() (types.Schedule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.schedules) == 0 {
		return types.Schedule{}, false
	}
	return m.schedules[len(m.schedules)-1], true
}

// PublishCount returns how many schedules were published.
func (m *Mock) PublishCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}

var (
	_ Sink    = (*Mock)(nil)
	_ Sensors = (*Mock)(nil)
)
