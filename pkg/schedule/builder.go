package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
)

// Window is a bare period input: a start and an optional duration. A zero
// duration takes the builder's default.
type Window struct {
	Start           time.Time
	DurationMinutes int
}

// BuildChargeSchedule maps windows to full charge periods at a single fixed
// power.
func BuildChargeSchedule(windows []Window, powerWatts, defaultDurationMinutes int) []types.Period {
	periods := make([]types.Period, 0, len(windows))
	for _, w := range windows {
		duration := w.DurationMinutes
		if duration <= 0 {
			duration = defaultDurationMinutes
		}
		periods = append(periods, types.Period{
			Start:           w.Start,
			DurationMinutes: duration,
			PowerWatts:      powerWatts,
		})
	}
	return periods
}

// BuildDischargeSchedule maps windows to discharge periods with a power per
// window. The two lists must be the same length.
func BuildDischargeSchedule(windows []Window, powerWatts []int, defaultDurationMinutes int) ([]types.Period, error) {
	if len(windows) != len(powerWatts) {
		return nil, fmt.Errorf("got %d windows but %d power values", len(windows), len(powerWatts))
	}
	periods := make([]types.Period, 0, len(windows))
	for i, w := range windows {
		duration := w.DurationMinutes
		if duration <= 0 {
			duration = defaultDurationMinutes
		}
		periods = append(periods, types.Period{
			Start:           w.Start,
			DurationMinutes: duration,
			PowerWatts:      powerWatts[i],
		})
	}
	return periods, nil
}

// MergeSchedules combines charge and discharge period lists into one
// schedule ordered by start time. Charge periods pass through unchanged; a
// discharge period whose start key exactly equals a charge period's start
// key is dropped (charge wins the tie). Equality is on the "HH:MM" start key
// only; periods with different starts but overlapping durations are both
// emitted.
func MergeSchedules(charge, discharge []types.Period) types.Schedule {
	var s types.Schedule

	chargeStarts := make(map[string]bool, len(charge))
	for _, p := range charge {
		if chargeStarts[p.StartKey()] {
			continue
		}
		chargeStarts[p.StartKey()] = true
		s.Charge = append(s.Charge, p)
	}

	dischargeStarts := make(map[string]bool, len(discharge))
	for _, p := range discharge {
		key := p.StartKey()
		if chargeStarts[key] || dischargeStarts[key] {
			continue
		}
		dischargeStarts[key] = true
		s.Discharge = append(s.Discharge, p)
	}

	sort.Slice(s.Charge, func(i, j int) bool { return s.Charge[i].Start.Before(s.Charge[j].Start) })
	sort.Slice(s.Discharge, func(i, j int) bool { return s.Discharge[i].Start.Before(s.Discharge[j].Start) })

	return s
}
