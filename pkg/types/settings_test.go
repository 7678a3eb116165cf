package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultSettings().Validate())
	})

	t.Run("min discharge above max", func(t *testing.T) {
		s := DefaultSettings()
		s.MinDischargePower = s.MaxDischargePower + 1
		assert.Error(t, s.Validate())
	})

	t.Run("conservative below min soc", func(t *testing.T) {
		s := DefaultSettings()
		s.MinSOC = 40
		s.ConservativeSOC = 20
		assert.Error(t, s.Validate())
	})

	t.Run("monitor interval longer than update interval", func(t *testing.T) {
		s := DefaultSettings()
		s.MonitorInterval = time.Hour
		s.UpdateInterval = time.Minute
		assert.Error(t, s.Validate())
	})

	t.Run("zero top hours", func(t *testing.T) {
		s := DefaultSettings()
		s.TopChargeHours = 0
		assert.Error(t, s.Validate())
	})
}

func TestPeriod(t *testing.T) {
	start := time.Date(2026, 2, 3, 14, 30, 0, 0, time.Local)
	p := Period{Start: start, DurationMinutes: 60, PowerWatts: 5000}

	assert.Equal(t, "14:30", p.StartKey())
	assert.True(t, p.Active(start))
	assert.True(t, p.Active(start.Add(59*time.Minute)))
	assert.False(t, p.Active(start.Add(60*time.Minute)), "end is exclusive")
	assert.False(t, p.Active(start.Add(-time.Second)))
}

func TestPeriodWireFormat(t *testing.T) {
	start := time.Date(2026, 2, 3, 8, 15, 0, 0, time.Local)
	p := Period{Start: start, DurationMinutes: 30, PowerWatts: 2000}

	b, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"08:15","power":2000,"duration":30}`, string(b))

	var back Period
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, "08:15", back.StartKey())
	assert.Equal(t, 2000, back.PowerWatts)
	assert.Equal(t, 30, back.DurationMinutes)

	assert.Error(t, back.UnmarshalJSON([]byte(`{"start":"nope"}`)))
}

func TestRegimeJSON(t *testing.T) {
	for _, r := range []Regime{RegimeAdaptive, RegimeLoad, RegimeDischarge, RegimePassive} {
		b, err := r.MarshalJSON()
		require.NoError(t, err)

		var back Regime
		require.NoError(t, back.UnmarshalJSON(b))
		assert.Equal(t, r, back)
	}

	var r Regime
	assert.Error(t, r.UnmarshalJSON([]byte(`"bogus"`)))
}

func TestScheduleActive(t *testing.T) {
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.Local)
	s := Schedule{
		Charge: []Period{
			{Start: now.Add(-30 * time.Minute), DurationMinutes: 60, PowerWatts: 8000},
		},
		Discharge: []Period{
			{Start: now.Add(time.Hour), DurationMinutes: 60, PowerWatts: 4000},
		},
	}

	p, ok := s.ActiveCharge(now)
	require.True(t, ok)
	assert.Equal(t, 8000, p.PowerWatts)

	_, ok = s.ActiveDischarge(now)
	assert.False(t, ok)
}

func TestRegimeString(t *testing.T) {
	assert.Equal(t, "load", RegimeLoad.String())
	assert.Equal(t, "discharge", RegimeDischarge.String())
	assert.Equal(t, "adaptive", RegimeAdaptive.String())
	assert.Equal(t, "passive", RegimePassive.String())
}
