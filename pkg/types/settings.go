package types

import (
	"fmt"
	"time"
)

// Settings is the static configuration for one run of the control loop. It
// is assembled from flags at startup and never mutated afterwards.
type Settings struct {
	DryRun bool `json:"dryRun"`

	// Power limits (W)
	MaxChargePower    int `json:"maxChargePower"`
	MaxDischargePower int `json:"maxDischargePower"`
	MinDischargePower int `json:"minDischargePower"`
	MinScaledPower    int `json:"minScaledPower"`
	// FallbackDischargePower is the discharge power used by the passive-solar
	// gap schedule.
	FallbackDischargePower int `json:"fallbackDischargePower"`

	// SOC thresholds (%)
	MinSOC          float64 `json:"minSOC"`
	ConservativeSOC float64 `json:"conservativeSOC"`
	TargetEodSOC    float64 `json:"targetEodSOC"`
	MaxSOC          float64 `json:"maxSOC"`

	// Timing
	UpdateInterval        time.Duration `json:"updateInterval"`
	MonitorInterval       time.Duration `json:"monitorInterval"`
	AdaptivePowerGrace    time.Duration `json:"adaptivePowerGrace"`
	ScheduleRegenCooldown time.Duration `json:"scheduleRegenCooldown"`
	DefaultPeriodMinutes  int           `json:"defaultPeriodMinutes"`

	// Heuristics
	// ChargingPriceThreshold demotes to passive when the import price is
	// below it. Zero disables the passive band.
	ChargingPriceThreshold float64 `json:"chargingPriceThreshold"`
	TopChargeHours         float64 `json:"topChargeHours"`
	TopDischargeHours      float64 `json:"topDischargeHours"`
	MinProfitThreshold     float64 `json:"minProfitThreshold"`
	OvernightWaitThreshold float64 `json:"overnightWaitThreshold"`

	// Sensor thresholds (W)
	EVChargeThreshold   float64 `json:"evChargeThreshold"`
	SolarEntryThreshold float64 `json:"solarEntryThreshold"`
	SolarExitThreshold  float64 `json:"solarExitThreshold"`

	// Feature toggles
	TemperatureDischarge bool `json:"temperatureDischarge"`
	EVIntegration        bool `json:"evIntegration"`
	PassiveSolar         bool `json:"passiveSolar"`
}

// DefaultSettings returns settings suitable for a typical 10 kWh home
// battery on a 15-minute tariff.
func DefaultSettings() Settings {
	return Settings{
		MaxChargePower:         8000,
		MaxDischargePower:      8000,
		MinDischargePower:      500,
		MinScaledPower:         2000,
		FallbackDischargePower: 1000,
		MinSOC:                 10,
		ConservativeSOC:        30,
		TargetEodSOC:           30,
		MaxSOC:                 98,
		UpdateInterval:         30 * time.Minute,
		MonitorInterval:        time.Minute,
		AdaptivePowerGrace:     2 * time.Minute,
		ScheduleRegenCooldown:  10 * time.Minute,
		DefaultPeriodMinutes:   60,
		TopChargeHours:         3,
		TopDischargeHours:      2,
		MinProfitThreshold:     0.05,
		OvernightWaitThreshold: 0.02,
		EVChargeThreshold:      500,
		SolarEntryThreshold:    1000,
		SolarExitThreshold:     200,
	}
}

// Validate checks the cross-field constraints that would otherwise surface
// as confusing behavior deep in the loop.
func (s Settings) Validate() error {
	if s.MaxChargePower <= 0 {
		return fmt.Errorf("maxChargePower must be positive, got %d", s.MaxChargePower)
	}
	if s.MaxDischargePower <= 0 {
		return fmt.Errorf("maxDischargePower must be positive, got %d", s.MaxDischargePower)
	}
	if s.MinDischargePower <= 0 || s.MinDischargePower > s.MaxDischargePower {
		return fmt.Errorf("minDischargePower must be in (0, %d], got %d", s.MaxDischargePower, s.MinDischargePower)
	}
	if s.MinScaledPower <= 0 || s.MinScaledPower > s.MaxDischargePower {
		return fmt.Errorf("minScaledPower must be in (0, %d], got %d", s.MaxDischargePower, s.MinScaledPower)
	}
	if s.MinSOC < 0 || s.MinSOC >= 100 {
		return fmt.Errorf("minSOC must be in [0, 100), got %v", s.MinSOC)
	}
	if s.ConservativeSOC < s.MinSOC {
		return fmt.Errorf("conservativeSOC (%v) must not be below minSOC (%v)", s.ConservativeSOC, s.MinSOC)
	}
	if s.MaxSOC <= s.MinSOC || s.MaxSOC > 100 {
		return fmt.Errorf("maxSOC must be in (%v, 100], got %v", s.MinSOC, s.MaxSOC)
	}
	if s.UpdateInterval <= 0 || s.MonitorInterval <= 0 {
		return fmt.Errorf("updateInterval and monitorInterval must be positive")
	}
	if s.MonitorInterval > s.UpdateInterval {
		return fmt.Errorf("monitorInterval (%s) must not exceed updateInterval (%s)", s.MonitorInterval, s.UpdateInterval)
	}
	if s.TopChargeHours <= 0 || s.TopDischargeHours <= 0 {
		return fmt.Errorf("topChargeHours and topDischargeHours must be positive")
	}
	if s.DefaultPeriodMinutes <= 0 {
		return fmt.Errorf("defaultPeriodMinutes must be positive, got %d", s.DefaultPeriodMinutes)
	}
	return nil
}
