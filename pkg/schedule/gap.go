package schedule

import (
	"time"

	"github.com/gridflux/gridflux/pkg/types"
)

// GapScheduler produces the minimal safety schedule used while excess solar
// puts the system in passive mode: a brief zero-watt charge window so the
// inverter self-consumes photovoltaic production without battery
// interference, followed by a fallback discharge window.
type GapScheduler struct {
	// FallbackDischargePowerWatts is the power of the fallback discharge
	// period published behind the gap.
	FallbackDischargePowerWatts int
}

// PassiveGapSchedule returns a fixed two-period schedule anchored to now: a
// 1-minute 0 W charge period at now+1min and a 60-minute fallback discharge
// period at now+2min.
func (g GapScheduler) PassiveGapSchedule(now time.Time) types.Schedule {
	return types.Schedule{
		Charge: []types.Period{{
			Start:           now.Add(time.Minute),
			DurationMinutes: 1,
			PowerWatts:      0,
		}},
		Discharge: []types.Period{{
			Start:           now.Add(2 * time.Minute),
			DurationMinutes: 60,
			PowerWatts:      g.FallbackDischargePowerWatts,
		}},
	}
}
