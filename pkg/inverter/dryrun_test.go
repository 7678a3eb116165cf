package inverter

import (
	"context"
	"testing"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunSinkSuppressesDelivery(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()
	dry := NewDryRunSink(mock)

	s := types.Schedule{
		Charge: []types.Period{{Start: time.Now(), DurationMinutes: 60, PowerWatts: 8000}},
	}

	require.NoError(t, dry.PublishSchedule(ctx, s))
	assert.Equal(t, 0, mock.PublishCount(), "dry run must not deliver schedules")

	// status still passes through
	require.NoError(t, dry.PublishStatus(ctx, "regime=load", nil))
	mock.mu.Lock()
	statuses := len(mock.statuses)
	mock.mu.Unlock()
	assert.Equal(t, 1, statuses)
}

func TestMockRecordsSchedules(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	_, ok := mock.LastSchedule()
	assert.False(t, ok)

	s := types.Schedule{
		Discharge: []types.Period{{Start: time.Now(), DurationMinutes: 30, PowerWatts: 4000}},
	}
	require.NoError(t, mock.PublishSchedule(ctx, s))

	last, ok := mock.LastSchedule()
	require.True(t, ok)
	assert.Len(t, last.Discharge, 1)
	assert.Equal(t, 1, mock.PublishCount())
}
