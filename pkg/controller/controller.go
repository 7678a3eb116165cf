package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gridflux/gridflux/pkg/inverter"
	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/monitor"
	"github.com/gridflux/gridflux/pkg/power"
	"github.com/gridflux/gridflux/pkg/prices"
	"github.com/gridflux/gridflux/pkg/schedule"
	"github.com/gridflux/gridflux/pkg/storage"
	"github.com/gridflux/gridflux/pkg/telemetry"
	"github.com/gridflux/gridflux/pkg/types"
)

// coldDischargeMinMinutes floors the shortened discharge duration used in
// freezing weather.
const coldDischargeMinMinutes = 15

// Orchestrator runs the two cadences of the control loop on one goroutine:
// full schedule regeneration every update interval and the shorter
// monitoring tick in between. All collaborator calls are synchronous;
// shutdown is observed between ticks, never mid-tick.
type Orchestrator struct {
	settings types.Settings
	feed     *prices.CachedFeed
	sink     inverter.Sink
	sensors  inverter.Sensors
	db       storage.Database
	tele     *telemetry.Publisher
	solar    *monitor.SolarMonitor
	gap      schedule.GapScheduler

	state   *runtimeState
	regenCh chan struct{}
	status  atomic.Pointer[types.Status]

	// now is swappable for tests.
	now func() time.Time
}

// New assembles the orchestrator. The sink should already be wrapped in a
// dry-run decorator when settings.DryRun is set.
func New(settings types.Settings, feed prices.Feed, sink inverter.Sink, sensors inverter.Sensors, db storage.Database, tele *telemetry.Publisher) *Orchestrator {
	return &Orchestrator{
		settings: settings,
		feed:     prices.NewCachedFeed(feed),
		sink:     sink,
		sensors:  sensors,
		db:       db,
		tele:     tele,
		solar:    monitor.NewSolarMonitor(settings.SolarEntryThreshold, settings.SolarExitThreshold),
		gap:      schedule.GapScheduler{FallbackDischargePowerWatts: settings.FallbackDischargePower},
		state:    newRuntimeState(),
		regenCh:  make(chan struct{}, 1),
		now:      time.Now,
	}
}

// TriggerRegenerate requests a full regeneration from outside the loop. The
// request is non-blocking and coalesces with a pending one; the loop picks
// it up at the top of its next iteration, keeping the runtime state
// single-writer.
func (o *Orchestrator) TriggerRegenerate() {
	select {
	case o.regenCh <- struct{}{}:
	default:
	}
}

// Status returns the latest operator snapshot, or nil before the first tick.
func (o *Orchestrator) Status() *types.Status {
	return o.status.Load()
}

// CurrentSchedule returns the current price-driven schedule. Only valid to
// call from HTTP handlers through the published Status; the loop goroutine
// owns the live state.
func (o *Orchestrator) CurrentSchedule() types.Schedule {
	if s := o.status.Load(); s != nil {
		return s.Schedule
	}
	return types.Schedule{}
}

// Run executes the control loop until ctx is canceled. Once running no
// condition terminates the loop; every tick is guarded, logged and survived.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	log.Ctx(ctx).InfoContext(ctx, "control loop starting",
		slog.Duration("updateInterval", o.settings.UpdateInterval),
		slog.Duration("monitorInterval", o.settings.MonitorInterval),
		slog.Bool("dryRun", o.settings.DryRun),
	)

	// initial full regeneration before the first sleep
	if err := o.regenerate(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "initial regeneration failed", slog.Any("error", err))
	}

	timer := time.NewTimer(o.settings.MonitorInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).InfoContext(ctx, "control loop shutting down")
			return nil
		case <-o.regenCh:
			if err := o.regenerate(ctx); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "triggered regeneration failed", slog.Any("error", err))
			}
		case <-timer.C:
			now := o.now()
			if now.Sub(o.state.generatedAt) >= o.settings.UpdateInterval {
				if err := o.regenerate(ctx); err != nil {
					log.Ctx(ctx).ErrorContext(ctx, "regeneration failed", slog.Any("error", err))
				}
			} else {
				if err := o.Tick(ctx); err != nil {
					log.Ctx(ctx).ErrorContext(ctx, "monitoring tick failed", slog.Any("error", err))
				}
			}
		}
		timer.Reset(o.settings.MonitorInterval)
	}
}

// regenerate performs a full schedule regeneration: read curves, derive
// bands, select slots, scale powers, build, merge, publish, record.
func (o *Orchestrator) regenerate(ctx context.Context) error {
	now := o.now()

	importCurve, importErr := o.feed.GetImportPrices(ctx)
	exportCurve, exportErr := o.feed.GetExportPrices(ctx)
	if len(importCurve) == 0 && len(exportCurve) == 0 {
		// no data at all: publish an empty schedule so the battery idles
		log.Ctx(ctx).WarnContext(ctx, "no price data, publishing empty schedule",
			slog.Any("importError", importErr),
			slog.Any("exportError", exportErr),
		)
		empty := types.Schedule{}
		o.publish(ctx, empty, types.DecisionEmptyFallback, "no price data")
		o.state.schedule = empty
		o.state.generatedAt = now
		o.state.ranges = types.PriceRanges{}
		o.updateStatus(ctx, types.RegimeAdaptive, types.SensorSnapshot{})
		return nil
	}

	interval := prices.DetectIntervalMinutes(importCurve)
	topXCharge := prices.TopXFromHours(o.settings.TopChargeHours, interval)
	topXDischarge := prices.TopXFromHours(o.settings.TopDischargeHours, interval)

	ranges, err := prices.CalculatePriceRanges(importCurve, exportCurve, topXCharge, topXDischarge, o.settings.MinProfitThreshold)
	if err != nil {
		return fmt.Errorf("failed to calculate price ranges: %w", err)
	}

	cheapest, err := prices.SelectCheapest(importCurve, topXCharge)
	if err != nil {
		return fmt.Errorf("failed to select charge slots: %w", err)
	}

	snapshot := o.readSensors(ctx)
	dischargeDuration := o.dischargeDuration(ctx, interval, snapshot.TemperatureC)

	chargeWindows := make([]schedule.Window, 0, len(cheapest))
	for _, point := range cheapest {
		slot, ok := point.Raw.(types.PriceSlot)
		if !ok {
			continue
		}
		chargeWindows = append(chargeWindows, schedule.Window{Start: slot.Start, DurationMinutes: interval})
	}
	chargePeriods := schedule.BuildChargeSchedule(chargeWindows, o.settings.MaxChargePower, interval)

	var dischargePeriods []types.Period
	if ranges.Discharge != nil {
		priciest, err := prices.SelectMostExpensive(exportCurve, topXDischarge)
		if err != nil {
			return fmt.Errorf("failed to select discharge slots: %w", err)
		}
		dischargeWindows := make([]schedule.Window, 0, len(priciest))
		powers := make([]int, 0, len(priciest))
		for i, point := range priciest {
			slot, ok := point.Raw.(types.PriceSlot)
			if !ok {
				continue
			}
			p, err := power.RankScaledPower(i+1, topXDischarge, o.settings.MaxDischargePower, o.settings.MinScaledPower)
			if err != nil {
				return fmt.Errorf("failed to scale discharge power: %w", err)
			}
			dischargeWindows = append(dischargeWindows, schedule.Window{Start: slot.Start, DurationMinutes: dischargeDuration})
			powers = append(powers, p)
		}
		dischargePeriods, err = schedule.BuildDischargeSchedule(dischargeWindows, powers, dischargeDuration)
		if err != nil {
			return fmt.Errorf("failed to build discharge schedule: %w", err)
		}
	}

	merged := schedule.MergeSchedules(chargePeriods, dischargePeriods)
	o.publish(ctx, merged, types.DecisionRegenerate, "scheduled regeneration")

	o.state.schedule = merged
	o.state.generatedAt = now
	o.state.ranges = ranges
	o.state.paused = false
	o.state.reduced = false
	// the publish replaced any gap schedule on the inverter; drop the
	// passive latch so the next tick republishes it while solar is active
	o.state.passive = false
	if p, ok := merged.ActiveDischarge(now); ok {
		o.state.appliedDischargeW = p.PowerWatts
	} else {
		o.state.appliedDischargeW = 0
	}

	if o.db != nil {
		if err := o.db.UpsertPriceSnapshot(ctx, types.PriceSnapshot{Timestamp: now, Import: importCurve, Export: exportCurve}); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to record price snapshot", slog.Any("error", err))
		}
	}

	regime := o.classify(ctx, importCurve, exportCurve, now)
	o.state.lastRegime = regime
	o.updateStatus(ctx, regime, snapshot)

	log.Ctx(ctx).InfoContext(ctx, "schedule regenerated",
		slog.Int("chargePeriods", len(merged.Charge)),
		slog.Int("dischargePeriods", len(merged.Discharge)),
		slog.Int("intervalMinutes", interval),
		slog.String("regime", regime.String()),
	)
	return nil
}

// Tick runs one monitoring pass: read sensors, re-classify the regime, apply
// overrides, trim power, defer to passive solar.
func (o *Orchestrator) Tick(ctx context.Context) error {
	now := o.now()
	snapshot := o.readSensors(ctx)

	importCurve, _ := o.feed.GetImportPrices(ctx)
	exportCurve, _ := o.feed.GetExportPrices(ctx)

	regime := o.classify(ctx, importCurve, exportCurve, now)
	prevRegime := o.state.lastRegime
	o.state.lastRegime = regime
	defer o.updateStatus(ctx, regime, snapshot)

	// early regeneration: the regime just turned cheap, nothing is charging
	// yet and the cooldown allows it
	if regime == types.RegimeLoad && prevRegime != types.RegimeLoad {
		if _, active := o.state.schedule.ActiveCharge(now); !active &&
			o.state.regenCooldownElapsed(now, o.settings.ScheduleRegenCooldown) {
			log.Ctx(ctx).InfoContext(ctx, "regime became load, regenerating early")
			return o.regenerate(ctx)
		}
	}

	// passive solar preempts all price-driven output for the tick
	if o.settings.PassiveSolar {
		if o.solar.Observe(ctx, now, snapshot.SolarPowerW, snapshot.GridPowerW) == monitor.SolarActive {
			if !o.state.passive {
				gap := o.gap.PassiveGapSchedule(now)
				o.publish(ctx, gap, types.DecisionPassiveGap, "excess solar, passive mode")
				o.state.passive = true
			}
			return nil
		}
		if o.state.passive {
			// leaving passive mode, restore the price-driven schedule
			o.state.passive = false
			o.publish(ctx, o.state.schedule, types.DecisionRegenerate, "passive solar ended")
		}
	}

	activePeriod, dischargeActive := o.state.schedule.ActiveDischarge(now)
	if !dischargeActive {
		o.clearOverrideLatches(ctx)
		return nil
	}
	if o.state.appliedDischargeW == 0 {
		o.state.appliedDischargeW = activePeriod.PowerWatts
	}

	kind, reason := resolveOverride(overrideInput{
		regime:   regime,
		soc:      snapshot.BatterySOC,
		gridW:    snapshot.GridPowerW,
		evW:      snapshot.EVChargerW,
		settings: o.settings,
	})

	switch kind {
	case overridePause:
		if !o.state.paused {
			log.Ctx(ctx).InfoContext(ctx, "pausing active discharge", slog.String("reason", reason))
			o.publish(ctx, types.Schedule{Charge: o.state.schedule.Charge}, types.DecisionPauseOverride, reason)
			o.state.paused = true
			o.state.reduced = false
		}
		return nil
	case overrideReduce:
		if !o.state.reduced {
			o.applyReduce(ctx, now, reason)
		}
		return nil
	}

	o.clearOverrideLatches(ctx)
	return o.adaptiveTrim(ctx, now, regime, snapshot, exportCurve)
}

// clearOverrideLatches restores the price-driven schedule after a pause or
// reduce condition ends.
func (o *Orchestrator) clearOverrideLatches(ctx context.Context) {
	if o.state.paused || o.state.reduced {
		log.Ctx(ctx).InfoContext(ctx, "override cleared, restoring schedule")
		o.publish(ctx, o.state.schedule, types.DecisionRegenerate, "override cleared")
		o.state.paused = false
		o.state.reduced = false
		if p, ok := o.state.schedule.ActiveDischarge(o.now()); ok {
			o.state.appliedDischargeW = p.PowerWatts
		}
	}
}

// applyReduce halves every active discharge period's power, floored at the
// minimum discharge power, and publishes the override.
func (o *Orchestrator) applyReduce(ctx context.Context, now time.Time, reason string) {
	discharge := make([]types.Period, len(o.state.schedule.Discharge))
	copy(discharge, o.state.schedule.Discharge)
	for i := range discharge {
		if discharge[i].Active(now) {
			discharge[i].PowerWatts = reducedPower(discharge[i].PowerWatts, o.settings.MinDischargePower)
			o.state.appliedDischargeW = discharge[i].PowerWatts
		}
	}
	log.Ctx(ctx).InfoContext(ctx, "reducing active discharge",
		slog.String("reason", reason),
		slog.Int("appliedW", o.state.appliedDischargeW),
	)
	o.publish(ctx, types.Schedule{Charge: o.state.schedule.Charge, Discharge: discharge}, types.DecisionReduceOverride, reason)
	o.state.reduced = true
}

// adaptiveTrim recomputes the active discharge power when neither paused nor
// reduced and publishes an override if the target changed.
func (o *Orchestrator) adaptiveTrim(ctx context.Context, now time.Time, regime types.Regime, snapshot types.SensorSnapshot, exportCurve []types.PriceSlot) error {
	target := o.state.appliedDischargeW
	changed := false

	switch regime {
	case types.RegimeDischarge:
		interval := prices.DetectIntervalMinutes(exportCurve)
		topX := prices.TopXFromHours(o.settings.TopDischargeHours, interval)
		rank, ok := prices.CurrentRank(exportCurve, topX, now, true)
		if !ok {
			return nil
		}
		p, err := power.RankScaledPower(rank, topX, o.settings.MaxDischargePower, o.settings.MinScaledPower)
		if err != nil {
			return fmt.Errorf("failed to scale discharge power for rank %d: %w", rank, err)
		}
		if p != target {
			target = p
			changed = true
		}
	case types.RegimeAdaptive:
		if snapshot.GridPowerW == nil {
			o.state.warnOnce.WarnOnce(ctx, "gridPower", "grid power unavailable, skipping adaptive trim")
			return nil
		}
		o.state.warnOnce.Clear("gridPower")
		if now.Sub(o.state.lastAdaptiveAdjust) < o.settings.AdaptivePowerGrace {
			return nil
		}
		target, changed = adaptiveTarget(o.state.appliedDischargeW, *snapshot.GridPowerW, snapshot.BatterySOC, o.settings)
	default:
		return nil
	}

	if !changed {
		return nil
	}

	discharge := make([]types.Period, len(o.state.schedule.Discharge))
	copy(discharge, o.state.schedule.Discharge)
	for i := range discharge {
		if discharge[i].Active(now) {
			discharge[i].PowerWatts = target
		}
	}
	log.Ctx(ctx).InfoContext(ctx, "adjusting active discharge power",
		slog.String("regime", regime.String()),
		slog.Int("fromW", o.state.appliedDischargeW),
		slog.Int("toW", target),
	)
	o.publish(ctx, types.Schedule{Charge: o.state.schedule.Charge, Discharge: discharge}, types.DecisionAdaptiveAdjust, "power trim")
	o.state.appliedDischargeW = target
	o.state.lastAdaptiveAdjust = now
	return nil
}

// classify resolves the regime for now from the curves and bands, including
// the overnight-wait demotion.
func (o *Orchestrator) classify(ctx context.Context, importCurve, exportCurve []types.PriceSlot, now time.Time) types.Regime {
	var importPrice, exportPrice *float64
	if slot, _, ok := prices.CurrentEntry(importCurve, now, prices.DetectIntervalMinutes(importCurve)); ok {
		importPrice = &slot.Price
	}
	if slot, _, ok := prices.CurrentEntry(exportCurve, now, prices.DetectIntervalMinutes(exportCurve)); ok {
		exportPrice = &slot.Price
	}

	regime := resolveRegime(regimeInput{
		importPrice:            importPrice,
		exportPrice:            exportPrice,
		ranges:                 o.state.ranges,
		chargingPriceThreshold: o.settings.ChargingPriceThreshold,
	})
	return demoteForOvernightWait(regime, importCurve, now, o.settings.OvernightWaitThreshold)
}

// dischargeDuration returns the discharge period duration for one slot,
// shortened in freezing weather to keep reserve for heating load.
func (o *Orchestrator) dischargeDuration(ctx context.Context, intervalMinutes int, temperatureC *float64) int {
	if !o.settings.TemperatureDischarge {
		return intervalMinutes
	}
	if temperatureC == nil {
		o.state.warnOnce.WarnOnce(ctx, "temperature", "temperature unavailable, using full discharge duration")
		return intervalMinutes
	}
	o.state.warnOnce.Clear("temperature")
	if *temperatureC >= 0 {
		return intervalMinutes
	}
	half := intervalMinutes / 2
	if half < coldDischargeMinMinutes {
		half = coldDischargeMinMinutes
	}
	if half > intervalMinutes {
		half = intervalMinutes
	}
	return half
}

// readSensors reads the live snapshot, tolerating failure as an empty
// snapshot with a warn-once log.
func (o *Orchestrator) readSensors(ctx context.Context) types.SensorSnapshot {
	snapshot, err := o.sensors.Read(ctx)
	if err != nil {
		o.state.warnOnce.WarnOnce(ctx, "sensorRead", "sensor read failed", slog.Any("error", err))
		return types.SensorSnapshot{}
	}
	o.state.warnOnce.Clear("sensorRead")
	return snapshot
}

// publish delivers a schedule to the command sink and records the decision.
// Failures degrade gracefully; the loop proceeds to its next tick.
func (o *Orchestrator) publish(ctx context.Context, s types.Schedule, kind types.DecisionKind, reason string) {
	now := o.now()
	if err := o.sink.PublishSchedule(ctx, s); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to publish schedule", slog.Any("error", err), slog.String("kind", string(kind)))
	} else {
		o.state.lastPublishedAt = now
	}
	if err := o.sink.PublishStatus(ctx, fmt.Sprintf("%s: %s", kind, reason), map[string]any{
		"chargePeriods":    len(s.Charge),
		"dischargePeriods": len(s.Discharge),
		"regime":           o.state.lastRegime.String(),
	}); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to publish status", slog.Any("error", err))
	}
	if o.tele != nil {
		o.tele.PublishSchedule(ctx, s)
	}
	if o.db != nil {
		if err := o.db.InsertDecision(ctx, types.Decision{
			Timestamp: now,
			Kind:      kind,
			Regime:    o.state.lastRegime,
			Schedule:  s,
			Reason:    reason,
			DryRun:    o.settings.DryRun,
		}); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to record decision", slog.Any("error", err))
		}
	}
}

// updateStatus refreshes the operator snapshot and pushes telemetry.
func (o *Orchestrator) updateStatus(ctx context.Context, regime types.Regime, snapshot types.SensorSnapshot) {
	status := &types.Status{
		Timestamp:    o.now(),
		Regime:       regime,
		Schedule:     o.state.schedule,
		GeneratedAt:  o.state.generatedAt,
		ActivePowerW: o.state.appliedDischargeW,
		PassiveSolar: o.state.passive,
		BatterySOC:   snapshot.BatterySOC,
		GridPowerW:   snapshot.GridPowerW,
		SolarPowerW:  snapshot.SolarPowerW,
	}
	if o.state.paused {
		status.PauseReason = "discharge paused"
	}
	if o.state.reduced {
		status.ReduceReason = "discharge reduced"
	}
	o.status.Store(status)
	if o.tele != nil {
		o.tele.PublishStatus(ctx, *status)
	}
}
