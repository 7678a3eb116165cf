package controller

import (
	"fmt"

	"github.com/gridflux/gridflux/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// ConfiguredSettings registers the control-loop flags and returns the
// settings finalized by lflag. The returned pointer is stable; the struct is
// filled in once lflag.Configure runs and never mutated afterwards.
func ConfiguredSettings() *types.Settings {
	defaults := types.DefaultSettings()
	settings := &types.Settings{}

	dryRun := lflag.Bool("dry-run", false, "Log intended schedules without delivering them")

	maxChargePower := defaults.MaxChargePower
	lflag.JSON(&maxChargePower, "max-charge-power", maxChargePower, "Maximum charge power (W)")
	maxDischargePower := defaults.MaxDischargePower
	lflag.JSON(&maxDischargePower, "max-discharge-power", maxDischargePower, "Maximum discharge power (W)")
	minDischargePower := defaults.MinDischargePower
	lflag.JSON(&minDischargePower, "min-discharge-power", minDischargePower, "Minimum discharge power (W)")
	minScaledPower := defaults.MinScaledPower
	lflag.JSON(&minScaledPower, "min-scaled-power", minScaledPower, "Minimum rank-scaled discharge power (W)")
	fallbackDischargePower := defaults.FallbackDischargePower
	lflag.JSON(&fallbackDischargePower, "fallback-discharge-power", fallbackDischargePower, "Fallback discharge power for the solar gap schedule (W)")

	minSOC := defaults.MinSOC
	lflag.JSON(&minSOC, "min-soc", minSOC, "Minimum battery SOC (%)")
	conservativeSOC := defaults.ConservativeSOC
	lflag.JSON(&conservativeSOC, "conservative-soc", conservativeSOC, "Conservative reserve SOC (%)")
	targetEodSOC := defaults.TargetEodSOC
	lflag.JSON(&targetEodSOC, "target-eod-soc", targetEodSOC, "Target end-of-day SOC (%)")
	maxSOC := defaults.MaxSOC
	lflag.JSON(&maxSOC, "max-soc", maxSOC, "Maximum battery SOC (%)")

	updateInterval := lflag.Duration("update-interval", defaults.UpdateInterval, "Full schedule regeneration interval")
	monitorInterval := lflag.Duration("monitor-interval", defaults.MonitorInterval, "Monitoring tick interval")
	adaptiveGrace := lflag.Duration("adaptive-power-grace", defaults.AdaptivePowerGrace, "Minimum time between adaptive power adjustments")
	regenCooldown := lflag.Duration("schedule-regen-cooldown", defaults.ScheduleRegenCooldown, "Minimum time between early schedule regenerations")
	defaultPeriodMinutes := defaults.DefaultPeriodMinutes
	lflag.JSON(&defaultPeriodMinutes, "default-period-minutes", defaultPeriodMinutes, "Default period duration (minutes)")

	chargingPriceThreshold := float64(0)
	lflag.JSON(&chargingPriceThreshold, "charging-price-threshold", chargingPriceThreshold, "Import price under which the grid serves the house (0 disables)")
	topChargeHours := defaults.TopChargeHours
	lflag.JSON(&topChargeHours, "top-charge-hours", topChargeHours, "Hours of cheapest slots to charge in")
	topDischargeHours := defaults.TopDischargeHours
	lflag.JSON(&topDischargeHours, "top-discharge-hours", topDischargeHours, "Hours of priciest slots to discharge in")
	minProfitThreshold := defaults.MinProfitThreshold
	lflag.JSON(&minProfitThreshold, "min-profit-threshold", minProfitThreshold, "Minimum spread between discharge and load bands")
	overnightWaitThreshold := defaults.OvernightWaitThreshold
	lflag.JSON(&overnightWaitThreshold, "overnight-wait-threshold", overnightWaitThreshold, "Evening-over-night average price delta that defers charging")

	evChargeThreshold := defaults.EVChargeThreshold
	lflag.JSON(&evChargeThreshold, "ev-charge-threshold", evChargeThreshold, "EV charger power above which discharge pauses (W)")
	solarEntryThreshold := defaults.SolarEntryThreshold
	lflag.JSON(&solarEntryThreshold, "solar-entry-threshold", solarEntryThreshold, "Grid export above which passive solar activates (W)")
	solarExitThreshold := defaults.SolarExitThreshold
	lflag.JSON(&solarExitThreshold, "solar-exit-threshold", solarExitThreshold, "Grid import above which passive solar deactivates (W)")

	temperatureDischarge := lflag.Bool("temperature-discharge", false, "Shorten discharge periods in freezing weather")
	evIntegration := lflag.Bool("ev-integration", false, "Pause discharge while the EV charges")
	passiveSolar := lflag.Bool("passive-solar", false, "Defer to the gap schedule on excess solar")

	lflag.Do(func() {
		*settings = types.Settings{
			DryRun:                 *dryRun,
			MaxChargePower:         maxChargePower,
			MaxDischargePower:      maxDischargePower,
			MinDischargePower:      minDischargePower,
			MinScaledPower:         minScaledPower,
			FallbackDischargePower: fallbackDischargePower,
			MinSOC:                 minSOC,
			ConservativeSOC:        conservativeSOC,
			TargetEodSOC:           targetEodSOC,
			MaxSOC:                 maxSOC,
			UpdateInterval:         *updateInterval,
			MonitorInterval:        *monitorInterval,
			AdaptivePowerGrace:     *adaptiveGrace,
			ScheduleRegenCooldown:  *regenCooldown,
			DefaultPeriodMinutes:   defaultPeriodMinutes,
			ChargingPriceThreshold: chargingPriceThreshold,
			TopChargeHours:         topChargeHours,
			TopDischargeHours:      topDischargeHours,
			MinProfitThreshold:     minProfitThreshold,
			OvernightWaitThreshold: overnightWaitThreshold,
			EVChargeThreshold:      evChargeThreshold,
			SolarEntryThreshold:    solarEntryThreshold,
			SolarExitThreshold:     solarExitThreshold,
			TemperatureDischarge:   *temperatureDischarge,
			EVIntegration:          *evIntegration,
			PassiveSolar:           *passiveSolar,
		}
		if err := settings.Validate(); err != nil {
			panic(fmt.Sprintf("invalid settings: %v", err))
		}
	})

	return settings
}
