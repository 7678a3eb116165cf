package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolarTransition(t *testing.T) {
	t.Run("enters active on strong export", func(t *testing.T) {
		got := SolarTransition(SolarInactive, 2000, -1200, 1000, 200)
		assert.Equal(t, SolarActive, got)
	})

	t.Run("stays inactive inside band", func(t *testing.T) {
		got := SolarTransition(SolarInactive, 2000, -800, 1000, 200)
		assert.Equal(t, SolarInactive, got)
	})

	t.Run("leaves active on import above exit threshold", func(t *testing.T) {
		got := SolarTransition(SolarActive, 2000, 300, 1000, 200)
		assert.Equal(t, SolarInactive, got)
	})

	t.Run("leaves active on low solar floor", func(t *testing.T) {
		got := SolarTransition(SolarActive, 150, -1500, 1000, 200)
		assert.Equal(t, SolarInactive, got)
	})

	t.Run("stays active inside band", func(t *testing.T) {
		got := SolarTransition(SolarActive, 1200, -100, 1000, 200)
		assert.Equal(t, SolarActive, got)
	})
}

func TestSolarMonitorHysteresisTrace(t *testing.T) {
	// reference trace from the detector's behavioral contract:
	// entry=1000, exit=200
	readings := []struct {
		solar float64
		net   float64
	}{
		{0, 500}, {500, 200}, {2000, -1200}, {1500, -600}, {1200, -100}, {1000, 100}, {500, 300},
	}
	want := []SolarState{
		SolarInactive, SolarInactive, SolarActive, SolarActive, SolarActive, SolarActive, SolarInactive,
	}

	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := NewSolarMonitor(1000, 200)
	for i, r := range readings {
		got := m.Observe(ctx, now.Add(time.Duration(i)*time.Minute), f64(r.solar), f64(r.net))
		assert.Equal(t, want[i], got, "step %d (solar=%v net=%v)", i, r.solar, r.net)
	}

	// activation was stamped with the observation clock, step 2
	assert.Equal(t, now.Add(2*time.Minute), m.ActivatedAt())
}

func TestSolarMonitorMissingReadings(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := NewSolarMonitor(1000, 200)

	// drive into active
	require.Equal(t, SolarActive, m.Observe(ctx, now, f64(2000), f64(-1500)))

	// missing readings leave the state unchanged
	assert.Equal(t, SolarActive, m.Observe(ctx, now.Add(time.Minute), nil, f64(-1500)))
	assert.Equal(t, SolarActive, m.Observe(ctx, now.Add(2*time.Minute), f64(2000), nil))
	assert.Equal(t, SolarActive, m.State())

	assert.Equal(t, now, m.ActivatedAt())
}
