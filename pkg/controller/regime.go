package controller

import (
	"time"

	"github.com/gridflux/gridflux/pkg/types"
)

const (
	// eveningStartHour opens the overnight-wait window: while in the load
	// regime after this hour we compare evening prices against the coming
	// night before charging.
	eveningStartHour = 20
	// nightEndHour closes the overnight window on the following day.
	nightEndHour = 6
)

// regimeInput is everything the resolver needs for one classification.
type regimeInput struct {
	importPrice *float64
	exportPrice *float64
	ranges      types.PriceRanges
	// chargingPriceThreshold below which the grid serves the house directly.
	// Zero disables the passive band.
	chargingPriceThreshold float64
}

// regimeRule pairs a predicate with its outcome. Rules are evaluated
// top-down; the first match wins, which keeps the priority order auditable
// and each rule independently testable.
type regimeRule struct {
	name    string
	applies func(in regimeInput) bool
	regime  types.Regime
}

var regimeRules = []regimeRule{
	{
		name: "import price in load band",
		applies: func(in regimeInput) bool {
			return in.ranges.Load != nil && in.importPrice != nil && in.ranges.Load.Contains(*in.importPrice)
		},
		regime: types.RegimeLoad,
	},
	{
		name: "export price in discharge band",
		applies: func(in regimeInput) bool {
			return in.ranges.Discharge != nil && in.exportPrice != nil && in.ranges.Discharge.Contains(*in.exportPrice)
		},
		regime: types.RegimeDischarge,
	},
	{
		name: "import price below charging threshold",
		applies: func(in regimeInput) bool {
			return in.chargingPriceThreshold > 0 && in.importPrice != nil && *in.importPrice < in.chargingPriceThreshold
		},
		regime: types.RegimePassive,
	},
}

// resolveRegime classifies the current price situation. Anything no rule
// claims is adaptive: discharge just enough to net grid flow toward zero.
func resolveRegime(in regimeInput) types.Regime {
	for _, rule := range regimeRules {
		if rule.applies(in) {
			return rule.regime
		}
	}
	return types.RegimeAdaptive
}

// demoteForOvernightWait demotes a load classification to adaptive when the
// remaining evening (>= 20:00 today) averages more expensive than the coming
// night (< 06:00 tomorrow) by more than waitThreshold. Charging then waits
// for the cheaper overnight window.
func demoteForOvernightWait(regime types.Regime, importCurve []types.PriceSlot, now time.Time, waitThreshold float64) types.Regime {
	if regime != types.RegimeLoad || now.Hour() < eveningStartHour {
		return regime
	}

	eveningStart := time.Date(now.Year(), now.Month(), now.Day(), eveningStartHour, 0, 0, 0, now.Location())
	nightStart := eveningStart.Add(time.Duration(24-eveningStartHour) * time.Hour)
	nightEnd := nightStart.Add(nightEndHour * time.Hour)

	eveningAvg, eveningOK := averagePrice(importCurve, eveningStart, nightStart)
	nightAvg, nightOK := averagePrice(importCurve, nightStart, nightEnd)
	if !eveningOK || !nightOK {
		return regime
	}

	if eveningAvg-nightAvg > waitThreshold {
		return types.RegimeAdaptive
	}
	return regime
}

// averagePrice averages the slots starting within [from, to).
func averagePrice(curve []types.PriceSlot, from, to time.Time) (float64, bool) {
	var sum float64
	var count int
	for _, slot := range curve {
		if !slot.Start.Before(from) && slot.Start.Before(to) {
			sum += slot.Price
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
