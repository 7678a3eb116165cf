package inverter

import (
	"context"

	"github.com/gridflux/gridflux/pkg/types"
)

// Sink delivers schedules and operator status to an inverter-control
// collaborator. Implementations wrap a vendor cloud or local API;
// authentication, wire format and retries live behind this interface, not in
// the control loop.
type Sink interface {
	// PublishSchedule delivers a full or override schedule.
	PublishSchedule(ctx context.Context, s types.Schedule) error

	// PublishStatus delivers a human-readable status string plus structured
	// attributes for operator telemetry.
	PublishStatus(ctx context.Context, status string, attrs map[string]any) error
}

// Sensors reads the live scalar sensors. Any reading may be unavailable,
// reported as a nil field of the snapshot rather than an error.
type Sensors interface {
	Read(ctx context.Context) (types.SensorSnapshot, error)
}
