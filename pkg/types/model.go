package types

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	CurrentDecisionVersion = 1
	CurrentPriceVersion    = 1
)

// PriceSlot represents one interval of a forecast price curve as delivered
// by the upstream price feed.
type PriceSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Price float64   `json:"price"`
}

// PricePoint is a slot selected by the analyzer. Index is the slot's
// position in the original ordered curve and is the tie-break key, so ranks
// are stable across repeated selection on identical input.
type PricePoint struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
	// Raw holds the original entry (a float or a PriceSlot).
	Raw any `json:"-"`
}

// PriceRange is an inclusive price band.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether p falls within the band, boundaries included.
func (r PriceRange) Contains(p float64) bool {
	return p >= r.Min && p <= r.Max
}

// PriceRanges holds the bands derived from the forecast curves. Discharge is
// nil when the priciest export slots don't clear the load band by the
// configured profit margin.
type PriceRanges struct {
	Load      *PriceRange `json:"load,omitempty"`
	Discharge *PriceRange `json:"discharge,omitempty"`
}

// Period is a single charge or discharge window.
type Period struct {
	Start           time.Time `json:"-"`
	DurationMinutes int       `json:"duration"`
	PowerWatts      int       `json:"power"`
}

// StartKey returns the local "HH:MM" start used as the period's identity on
// the wire and for merge deduplication.
func (p Period) StartKey() string {
	return p.Start.Format("15:04")
}

// End returns the exclusive end of the period.
func (p Period) End() time.Time {
	return p.Start.Add(time.Duration(p.DurationMinutes) * time.Minute)
}

// Active reports whether now falls within [Start, Start+Duration).
func (p Period) Active(now time.Time) bool {
	return !now.Before(p.Start) && now.Before(p.End())
}

// periodWire is the command-sink representation of a Period.
type periodWire struct {
	Start    string `json:"start"`
	Power    int    `json:"power"`
	Duration int    `json:"duration"`
}

// MarshalJSON emits the inverter wire shape with the local "HH:MM" start.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(periodWire{
		Start:    p.StartKey(),
		Power:    p.PowerWatts,
		Duration: p.DurationMinutes,
	})
}

// UnmarshalJSON parses the wire shape back. The wire carries only the
// wall-clock start, so Start comes back with a zero date; history readers
// render the start key and never compare full timestamps.
func (p *Period) UnmarshalJSON(b []byte) error {
	var w periodWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	start, err := time.ParseInLocation("15:04", w.Start, time.Local)
	if err != nil {
		return fmt.Errorf("invalid period start %q: %w", w.Start, err)
	}
	p.Start = start
	p.PowerWatts = w.Power
	p.DurationMinutes = w.Duration
	return nil
}

// Schedule is the full set of charge and discharge windows delivered to the
// inverter. Within each list no two periods share a StartKey; interval
// overlap between the lists is not prevented.
type Schedule struct {
	Charge    []Period `json:"charge"`
	Discharge []Period `json:"discharge"`
}

// Empty reports whether the schedule contains no periods at all.
func (s Schedule) Empty() bool {
	return len(s.Charge) == 0 && len(s.Discharge) == 0
}

// ActiveCharge returns the charge period containing now, if any.
func (s Schedule) ActiveCharge(now time.Time) (Period, bool) {
	for _, p := range s.Charge {
		if p.Active(now) {
			return p, true
		}
	}
	return Period{}, false
}

// ActiveDischarge returns the discharge period containing now, if any.
func (s Schedule) ActiveDischarge(now time.Time) (Period, bool) {
	for _, p := range s.Discharge {
		if p.Active(now) {
			return p, true
		}
	}
	return Period{}, false
}

// Regime classifies the current price situation.
type Regime int

const (
	// RegimeAdaptive discharges just enough to net grid flow toward zero.
	RegimeAdaptive Regime = iota
	// RegimeLoad charges the battery, the import price is cheap.
	RegimeLoad
	// RegimeDischarge uses stored energy, the export price is expensive.
	RegimeDischarge
	// RegimePassive does nothing and lets the grid serve the house.
	RegimePassive
)

func (r Regime) String() string {
	switch r {
	case RegimeAdaptive:
		return "adaptive"
	case RegimeLoad:
		return "load"
	case RegimeDischarge:
		return "discharge"
	case RegimePassive:
		return "passive"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the regime name rather than the enum value.
func (r Regime) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON parses a regime name.
func (r *Regime) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "adaptive":
		*r = RegimeAdaptive
	case "load":
		*r = RegimeLoad
	case "discharge":
		*r = RegimeDischarge
	case "passive":
		*r = RegimePassive
	default:
		return fmt.Errorf("unknown regime %q", name)
	}
	return nil
}

// SensorSnapshot is one monitoring tick's worth of readings. A nil field
// means the sensor was unavailable; callers must treat that as a first-class
// state, never an error.
type SensorSnapshot struct {
	BatterySOC   *float64 `json:"batterySOC,omitempty"`
	GridPowerW   *float64 `json:"gridPowerW,omitempty"`
	SolarPowerW  *float64 `json:"solarPowerW,omitempty"`
	HouseLoadW   *float64 `json:"houseLoadW,omitempty"`
	EVChargerW   *float64 `json:"evChargerW,omitempty"`
	TemperatureC *float64 `json:"temperatureC,omitempty"`
}

// DecisionKind describes why a schedule (or override) was published.
type DecisionKind string

const (
	DecisionRegenerate     DecisionKind = "regenerate"
	DecisionEmptyFallback  DecisionKind = "emptyFallback"
	DecisionPauseOverride  DecisionKind = "pauseOverride"
	DecisionReduceOverride DecisionKind = "reduceOverride"
	DecisionAdaptiveAdjust DecisionKind = "adaptiveAdjust"
	DecisionPassiveGap     DecisionKind = "passiveGap"
)

// Decision records one publish made by the control loop.
type Decision struct {
	Timestamp time.Time    `json:"timestamp"`
	Kind      DecisionKind `json:"kind"`
	Regime    Regime       `json:"regime"`
	Schedule  Schedule     `json:"schedule"`
	Reason    string       `json:"reason,omitempty"`
	DryRun    bool         `json:"dryRun,omitempty"`
}

// PriceSnapshot records the forecast curves used for one schedule
// regeneration.
type PriceSnapshot struct {
	Timestamp time.Time   `json:"timestamp"`
	Import    []PriceSlot `json:"import"`
	Export    []PriceSlot `json:"export"`
}

// Status is the operator-facing snapshot exposed over HTTP and MQTT.
type Status struct {
	Timestamp    time.Time `json:"timestamp"`
	Regime       Regime    `json:"regime"`
	Schedule     Schedule  `json:"schedule"`
	GeneratedAt  time.Time `json:"generatedAt"`
	ActivePowerW int       `json:"activePowerW"`
	PauseReason  string    `json:"pauseReason,omitempty"`
	ReduceReason string    `json:"reduceReason,omitempty"`
	PassiveSolar bool      `json:"passiveSolar"`
	BatterySOC   *float64  `json:"batterySOC,omitempty"`
	GridPowerW   *float64  `json:"gridPowerW,omitempty"`
	SolarPowerW  *float64  `json:"solarPowerW,omitempty"`
}
