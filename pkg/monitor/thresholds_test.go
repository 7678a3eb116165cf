package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestIsExporting(t *testing.T) {
	assert.True(t, IsExporting(f64(-600), 500))
	assert.False(t, IsExporting(f64(-500), 500), "threshold itself does not trigger")
	assert.False(t, IsExporting(f64(-100), 500))
	assert.False(t, IsExporting(f64(300), 500))
	assert.False(t, IsExporting(nil, 500), "missing reading never triggers")

	assert.True(t, ShouldReduceDischarge(f64(-600), 500))
}

func TestIsEVCharging(t *testing.T) {
	assert.True(t, IsEVCharging(f64(1000), 500))
	assert.False(t, IsEVCharging(f64(500), 500))
	assert.False(t, IsEVCharging(f64(0), 500))
	assert.False(t, IsEVCharging(nil, 500))

	assert.True(t, ShouldPauseDischarge(f64(1000), 500))
}

func TestAdjustHouseLoad(t *testing.T) {
	t.Run("subtracts ev draw", func(t *testing.T) {
		got := AdjustHouseLoad(f64(3000), f64(1000))
		require.NotNil(t, got)
		assert.Equal(t, 2000.0, *got)
	})

	t.Run("floored at zero", func(t *testing.T) {
		got := AdjustHouseLoad(f64(500), f64(1000))
		require.NotNil(t, got)
		assert.Equal(t, 0.0, *got)
	})

	t.Run("missing ev reading leaves load unchanged", func(t *testing.T) {
		load := f64(3000)
		got := AdjustHouseLoad(load, nil)
		require.NotNil(t, got)
		assert.Equal(t, 3000.0, *got)
	})

	t.Run("missing house load stays missing", func(t *testing.T) {
		assert.Nil(t, AdjustHouseLoad(nil, f64(1000)))
	})
}
