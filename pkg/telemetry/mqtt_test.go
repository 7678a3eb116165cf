package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherIsNoop(t *testing.T) {
	ctx := context.Background()
	p := &Publisher{}

	assert.False(t, p.Enabled())
	require.NoError(t, p.Connect(ctx))
	// no client, no panic
	p.PublishStatus(ctx, types.Status{})
	p.PublishSchedule(ctx, types.Schedule{})
	p.Close(ctx)
}

func TestTopics(t *testing.T) {
	p := &Publisher{baseTopic: "gridflux"}
	assert.Equal(t, "gridflux/status", p.StatusTopic())
	assert.Equal(t, "gridflux/schedule", p.ScheduleTopic())
	assert.Equal(t, "gridflux/bridge/state", bridgeStateTopic("gridflux"))
}

func TestStatusPayloadShape(t *testing.T) {
	soc := 55.0
	status := types.Status{
		Timestamp:    time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		Regime:       types.RegimeDischarge,
		ActivePowerW: 4000,
		ReduceReason: "grid export above threshold",
		BatterySOC:   &soc,
	}

	payload, err := json.Marshal(status)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "discharge", decoded["regime"], "regime serializes as its name")
	assert.Equal(t, float64(4000), decoded["activePowerW"])
	assert.Equal(t, 55.0, decoded["batterySOC"])
	_, hasPause := decoded["pauseReason"]
	assert.False(t, hasPause, "empty reasons are omitted")
}
