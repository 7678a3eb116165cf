package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/gridflux/gridflux/pkg/log"
)

// lowSolarFloorWatts forces passive mode off whenever solar production drops
// below it, regardless of the net flow.
const lowSolarFloorWatts = 200

// SolarState is the hysteresis state of the passive-solar detector.
type SolarState int

const (
	// SolarInactive means no excess solar, normal price-driven operation.
	SolarInactive SolarState = iota
	// SolarActive means excess solar was detected and the loop defers to the
	// passive gap schedule.
	SolarActive
)

func (s SolarState) String() string {
	if s == SolarActive {
		return "active"
	}
	return "inactive"
}

// SolarTransition is the pure transition function of the detector. Net power
// is signed: positive imports, negative exports. The state enters Active
// when the house exports more than entryThreshold and leaves it when the
// house imports more than exitThreshold or solar falls under the low-solar
// floor. Readings inside the hysteresis band leave the state unchanged.
func SolarTransition(state SolarState, solarPowerW, netPowerW, entryThresholdW, exitThresholdW float64) SolarState {
	switch state {
	case SolarInactive:
		if netPowerW < -entryThresholdW {
			return SolarActive
		}
	case SolarActive:
		if netPowerW > exitThresholdW || solarPowerW < lowSolarFloorWatts {
			return SolarInactive
		}
	}
	return state
}

// SolarMonitor owns the hysteresis state across ticks. It is used by a
// single loop thread and holds no locks. There is no external reset; the
// state persists for the monitor's lifetime.
type SolarMonitor struct {
	entryThresholdW float64
	exitThresholdW  float64

	state       SolarState
	activatedAt time.Time
	once        *log.Once
}

// NewSolarMonitor returns an Inactive monitor with the given thresholds.
func NewSolarMonitor(entryThresholdW, exitThresholdW float64) *SolarMonitor {
	return &SolarMonitor{
		entryThresholdW: entryThresholdW,
		exitThresholdW:  exitThresholdW,
		once:            log.NewOnce(),
	}
}

// Observe feeds one tick's readings into the detector and returns the
// resulting state. now stamps the activation time on an Inactive to Active
// transition. Missing readings leave the state unchanged and are logged once
// rather than raised.
func (m *SolarMonitor) Observe(ctx context.Context, now time.Time, solarPowerW, netPowerW *float64) SolarState {
	if solarPowerW == nil || netPowerW == nil {
		m.once.WarnOnce(ctx, "solarSensors", "solar or net power unavailable, keeping solar state",
			slog.String("state", m.state.String()),
		)
		return m.state
	}
	m.once.Clear("solarSensors")

	next := SolarTransition(m.state, *solarPowerW, *netPowerW, m.entryThresholdW, m.exitThresholdW)
	if next != m.state {
		log.Ctx(ctx).InfoContext(ctx, "passive solar state changed",
			slog.String("from", m.state.String()),
			slog.String("to", next.String()),
			slog.Float64("solarW", *solarPowerW),
			slog.Float64("netW", *netPowerW),
		)
		if next == SolarActive {
			m.activatedAt = now
		}
	}
	m.state = next
	return m.state
}

// State returns the current state without feeding a reading.
func (m *SolarMonitor) State() SolarState {
	return m.state
}

// ActivatedAt returns when the monitor last entered Active.
func (m *SolarMonitor) ActivatedAt() time.Time {
	return m.activatedAt
}
