package inverter

import (
	"context"
	"log/slog"

	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/types"
)

// DryRunSink logs intended schedules without delivering them. Status
// publishes still pass through so operator telemetry keeps working during a
// dry run.
type DryRunSink struct {
	wrapped Sink
}

// NewDryRunSink wraps sink so schedule publishes are suppressed.
func NewDryRunSink(sink Sink) *DryRunSink {
	return &DryRunSink{wrapped: sink}
}

// PublishSchedule logs the schedule and returns without delivering it.
func (d *DryRunSink) PublishSchedule(ctx context.Context, s types.Schedule) error {
	log.Ctx(ctx).InfoContext(ctx, "dry run, schedule not delivered",
		slog.Int("chargePeriods", len(s.Charge)),
		slog.Int("dischargePeriods", len(s.Discharge)),
		slog.Any("schedule", s),
	)
	return nil
}

// PublishStatus forwards to the wrapped sink.
func (d *DryRunSink) PublishStatus(ctx context.Context, status string, attrs map[string]any) error {
	return d.wrapped.PublishStatus(ctx, status, attrs)
}

var _ Sink = (*DryRunSink)(nil)
