package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanCharge(t *testing.T) {
	assert.True(t, CanCharge(50, 98))
	assert.False(t, CanCharge(98, 98))
	assert.False(t, CanCharge(100, 98))
}

func TestCanDischarge(t *testing.T) {
	t.Run("non-conservative", func(t *testing.T) {
		// true iff soc > minSOC
		assert.True(t, CanDischarge(11, 10, 30, false))
		assert.False(t, CanDischarge(10, 10, 30, false))
		assert.False(t, CanDischarge(5, 10, 30, false))
		// conservative threshold ignored
		assert.True(t, CanDischarge(20, 10, 30, false))
	})

	t.Run("conservative", func(t *testing.T) {
		// true iff soc > minSOC and soc >= conservativeSOC
		assert.True(t, CanDischarge(30, 10, 30, true))
		assert.True(t, CanDischarge(50, 10, 30, true))
		assert.False(t, CanDischarge(29, 10, 30, true))
		assert.False(t, CanDischarge(10, 10, 30, true))
	})
}

func TestShouldTargetEndOfDay(t *testing.T) {
	eod := time.Date(2026, 2, 3, 18, 0, 0, 0, time.Local)

	before := time.Date(2026, 2, 3, 17, 59, 0, 0, time.Local)
	at := time.Date(2026, 2, 3, 18, 0, 0, 0, time.Local)
	after := time.Date(2026, 2, 3, 22, 30, 0, 0, time.Local)

	assert.False(t, ShouldTargetEndOfDay(before, eod, 30))
	assert.True(t, ShouldTargetEndOfDay(at, eod, 30))
	assert.True(t, ShouldTargetEndOfDay(after, eod, 30))

	// only time of day matters, the date is ignored
	nextDay := time.Date(2026, 2, 4, 19, 0, 0, 0, time.Local)
	assert.True(t, ShouldTargetEndOfDay(nextDay, eod, 30))
}
