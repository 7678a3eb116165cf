package schedule

import (
	"testing"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChargeSchedule(t *testing.T) {
	now := time.Date(2026, 2, 3, 2, 0, 0, 0, time.Local)
	windows := []Window{
		{Start: now},
		{Start: now.Add(time.Hour), DurationMinutes: 30},
	}

	periods := BuildChargeSchedule(windows, 8000, 60)
	require.Len(t, periods, 2)
	assert.Equal(t, 60, periods[0].DurationMinutes, "zero duration takes the default")
	assert.Equal(t, 30, periods[1].DurationMinutes)
	assert.Equal(t, 8000, periods[0].PowerWatts)
	assert.Equal(t, 8000, periods[1].PowerWatts)
}

func TestBuildDischargeSchedule(t *testing.T) {
	now := time.Date(2026, 2, 3, 18, 0, 0, 0, time.Local)

	t.Run("per-period powers", func(t *testing.T) {
		windows := []Window{{Start: now}, {Start: now.Add(time.Hour)}}
		periods, err := BuildDischargeSchedule(windows, []int{8000, 5000}, 60)
		require.NoError(t, err)
		require.Len(t, periods, 2)
		assert.Equal(t, 8000, periods[0].PowerWatts)
		assert.Equal(t, 5000, periods[1].PowerWatts)
	})

	t.Run("length mismatch fails", func(t *testing.T) {
		windows := []Window{{Start: now}}
		_, err := BuildDischargeSchedule(windows, []int{8000, 5000}, 60)
		assert.Error(t, err)
	})
}

func TestMergeSchedules(t *testing.T) {
	day := time.Date(2026, 2, 3, 0, 0, 0, 0, time.Local)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	t.Run("discharge dropped on exact start tie", func(t *testing.T) {
		charge := []types.Period{
			{Start: at(2, 0), DurationMinutes: 60, PowerWatts: 8000},
			{Start: at(3, 0), DurationMinutes: 60, PowerWatts: 8000},
		}
		discharge := []types.Period{
			{Start: at(2, 0), DurationMinutes: 60, PowerWatts: 5000},
			{Start: at(18, 0), DurationMinutes: 60, PowerWatts: 5000},
		}

		s := MergeSchedules(charge, discharge)
		assert.Equal(t, charge, s.Charge, "charge entries pass through unchanged")
		require.Len(t, s.Discharge, 1)
		assert.Equal(t, "18:00", s.Discharge[0].StartKey())
	})

	t.Run("overlapping but unequal starts are both kept", func(t *testing.T) {
		// 02:00+120min overlaps 03:00, but merge only compares start keys
		charge := []types.Period{{Start: at(2, 0), DurationMinutes: 120, PowerWatts: 8000}}
		discharge := []types.Period{{Start: at(3, 0), DurationMinutes: 60, PowerWatts: 5000}}

		s := MergeSchedules(charge, discharge)
		assert.Len(t, s.Charge, 1)
		assert.Len(t, s.Discharge, 1)
	})

	t.Run("duplicate starts within a list are deduplicated", func(t *testing.T) {
		charge := []types.Period{
			{Start: at(2, 0), DurationMinutes: 60, PowerWatts: 8000},
			{Start: at(2, 0), DurationMinutes: 30, PowerWatts: 4000},
		}
		s := MergeSchedules(charge, nil)
		require.Len(t, s.Charge, 1)
		assert.Equal(t, 8000, s.Charge[0].PowerWatts, "first entry wins")
	})

	t.Run("periods come out in start order", func(t *testing.T) {
		// builders emit periods in price order, not time order
		charge := []types.Period{
			{Start: at(4, 0), DurationMinutes: 60, PowerWatts: 8000},
			{Start: at(2, 0), DurationMinutes: 60, PowerWatts: 8000},
		}
		discharge := []types.Period{
			{Start: at(19, 0), DurationMinutes: 60, PowerWatts: 5000},
			{Start: at(18, 0), DurationMinutes: 60, PowerWatts: 8000},
		}

		s := MergeSchedules(charge, discharge)
		require.Len(t, s.Charge, 2)
		assert.Equal(t, "02:00", s.Charge[0].StartKey())
		assert.Equal(t, "04:00", s.Charge[1].StartKey())
		require.Len(t, s.Discharge, 2)
		assert.Equal(t, "18:00", s.Discharge[0].StartKey())
		assert.Equal(t, "19:00", s.Discharge[1].StartKey())
	})

	t.Run("empty inputs", func(t *testing.T) {
		s := MergeSchedules(nil, nil)
		assert.True(t, s.Empty())
	})
}

func TestPassiveGapSchedule(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
	g := GapScheduler{FallbackDischargePowerWatts: 1000}

	s := g.PassiveGapSchedule(now)
	require.Len(t, s.Charge, 1)
	require.Len(t, s.Discharge, 1)

	assert.Equal(t, now.Add(time.Minute), s.Charge[0].Start)
	assert.Equal(t, 1, s.Charge[0].DurationMinutes)
	assert.Equal(t, 0, s.Charge[0].PowerWatts)

	assert.Equal(t, now.Add(2*time.Minute), s.Discharge[0].Start)
	assert.Equal(t, 60, s.Discharge[0].DurationMinutes)
	assert.Equal(t, 1000, s.Discharge[0].PowerWatts)
}
