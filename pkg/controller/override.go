package controller

import (
	"math"

	"github.com/gridflux/gridflux/pkg/monitor"
	"github.com/gridflux/gridflux/pkg/types"
)

const (
	// gridExportReduceThresholdW is the fixed export level above which
	// active discharge power is halved.
	gridExportReduceThresholdW = 500

	// adaptiveSnapStepW snaps adaptive power targets; changes smaller than
	// one step are ignored as sensor noise.
	adaptiveSnapStepW = 100

	// adaptiveSOCCapThreshold is the SOC at or below which the adaptive
	// target is capped at half the maximum discharge power.
	adaptiveSOCCapThreshold = 50
)

// overrideKind is the outcome of the active-discharge override decision.
type overrideKind int

const (
	overrideNone overrideKind = iota
	overridePause
	overrideReduce
)

// overrideInput is one tick's worth of inputs for the decision.
type overrideInput struct {
	regime   types.Regime
	soc      *float64
	gridW    *float64
	evW      *float64
	settings types.Settings
}

// overrideRule pairs a predicate with an outcome and a reason, evaluated
// top-down. Pause rules come first: pausing always beats reducing.
type overrideRule struct {
	reason  string
	applies func(in overrideInput) bool
	kind    overrideKind
}

var overrideRules = []overrideRule{
	{
		reason: "ev charging above threshold",
		applies: func(in overrideInput) bool {
			return in.settings.EVIntegration && monitor.ShouldPauseDischarge(in.evW, in.settings.EVChargeThreshold)
		},
		kind: overridePause,
	},
	{
		reason: "soc at or below minimum",
		applies: func(in overrideInput) bool {
			return in.soc != nil && !monitor.CanDischarge(*in.soc, in.settings.MinSOC, in.settings.ConservativeSOC, false)
		},
		kind: overridePause,
	},
	{
		reason: "soc below conservative reserve outside discharge regime",
		applies: func(in overrideInput) bool {
			return in.regime != types.RegimeDischarge && in.soc != nil &&
				!monitor.CanDischarge(*in.soc, in.settings.MinSOC, in.settings.ConservativeSOC, true)
		},
		kind: overridePause,
	},
	{
		reason: "grid export above threshold",
		applies: func(in overrideInput) bool {
			return monitor.ShouldReduceDischarge(in.gridW, gridExportReduceThresholdW)
		},
		kind: overrideReduce,
	},
}

// resolveOverride returns the highest-priority override for the tick plus
// its reason.
func resolveOverride(in overrideInput) (overrideKind, string) {
	for _, rule := range overrideRules {
		if rule.applies(in) {
			return rule.kind, rule.reason
		}
	}
	return overrideNone, ""
}

// reducedPower halves p, floored at the minimum discharge power.
func reducedPower(p, minDischargePower int) int {
	reduced := p / 2
	if reduced < minDischargePower {
		reduced = minDischargePower
	}
	return reduced
}

// adaptiveTarget computes the new discharge power for the adaptive regime:
// the applied power shifted by the live grid flow so net grid power heads
// toward zero, snapped to 100 W. It returns false when the change is below
// one snap step, leaving the applied power alone.
func adaptiveTarget(appliedW int, gridW float64, soc *float64, settings types.Settings) (int, bool) {
	target := float64(appliedW) + gridW
	snapped := int(math.Round(target/adaptiveSnapStepW)) * adaptiveSnapStepW

	if soc != nil && *soc <= adaptiveSOCCapThreshold {
		socCap := settings.MaxDischargePower / 2
		if snapped > socCap {
			snapped = socCap
		}
	}
	if snapped > settings.MaxDischargePower {
		snapped = settings.MaxDischargePower
	}
	if snapped < settings.MinDischargePower {
		snapped = settings.MinDischargePower
	}

	if abs(snapped-appliedW) < adaptiveSnapStepW {
		return appliedW, false
	}
	return snapped, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
