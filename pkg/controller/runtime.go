package controller

import (
	"time"

	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/types"
)

// runtimeState is the loop's process-lifetime mutable record. It is created
// once at startup, owned exclusively by the loop goroutine, and never
// persisted. There is no locking: exactly one writer, one reader.
type runtimeState struct {
	// schedule is the current price-driven schedule and its generation time.
	schedule    types.Schedule
	generatedAt time.Time

	// ranges are the bands the schedule was generated from.
	ranges types.PriceRanges

	// appliedDischargeW is the discharge power currently applied to the
	// active period, including any reduce/adaptive overrides.
	appliedDischargeW int

	lastPublishedAt    time.Time
	lastAdaptiveAdjust time.Time
	lastRegime         types.Regime

	// paused is set while a pause override has cleared the discharge list,
	// so the override is published on transitions instead of every tick.
	paused bool
	// reduced is the same latch for the reduce override.
	reduced bool
	// passive is the same latch for the passive-solar gap schedule.
	passive bool

	// warnOnce tracks per-condition sensor warnings so they log once, not
	// every tick.
	warnOnce *log.Once
}

func newRuntimeState() *runtimeState {
	return &runtimeState{
		lastRegime: types.RegimeAdaptive,
		warnOnce:   log.NewOnce(),
	}
}

// regenCooldownElapsed reports whether enough time has passed since the last
// regeneration for an early trigger.
func (s *runtimeState) regenCooldownElapsed(now time.Time, cooldown time.Duration) bool {
	return s.generatedAt.IsZero() || now.Sub(s.generatedAt) >= cooldown
}
