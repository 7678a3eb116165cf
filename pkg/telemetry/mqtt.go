package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/types"
	"github.com/levenlabs/go-lflag"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"

	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Publisher pushes operator telemetry to an MQTT broker: a retained status
// JSON per tick and the schedule JSON on every publish. It is optional; with
// no broker configured every method is a no-op.
type Publisher struct {
	client    mqtt.Client
	baseTopic string
}

// Configured sets up the MQTT publisher based on flags. An empty broker host
// disables telemetry entirely.
func Configured() *Publisher {
	host := lflag.String("mqtt-host", "", "MQTT broker host (empty disables telemetry)")
	port := 1883
	lflag.JSON(&port, "mqtt-port", port, "MQTT broker port")
	username := lflag.String("mqtt-username", "", "MQTT username")
	password := lflag.String("mqtt-password", "", "MQTT password")
	baseTopic := lflag.String("mqtt-base-topic", "gridflux", "Base topic for telemetry")

	p := &Publisher{}

	lflag.Do(func() {
		if *host == "" {
			return
		}
		p.baseTopic = *baseTopic

		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s:%d", *host, port))
		opts.SetClientID(fmt.Sprintf("gridflux_%d", rand.IntN(1000)))
		if *username != "" && *password != "" {
			opts.SetUsername(*username)
			opts.SetPassword(*password)
		}
		opts.WillEnabled = true
		opts.WillPayload = []byte(payloadOffline)
		opts.WillRetained = true
		opts.WillTopic = bridgeStateTopic(*baseTopic)
		opts.WillQos = 0

		p.client = mqtt.NewClient(opts)
	})

	return p
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

// StatusTopic is the retained per-tick status topic.
func (p *Publisher) StatusTopic() string {
	return fmt.Sprintf("%s/status", p.baseTopic)
}

// ScheduleTopic carries the most recently published schedule.
func (p *Publisher) ScheduleTopic() string {
	return fmt.Sprintf("%s/schedule", p.baseTopic)
}

// Enabled reports whether a broker was configured.
func (p *Publisher) Enabled() bool {
	return p.client != nil
}

// Connect dials the broker and announces the bridge as online. Connection
// failure is non-fatal; the control loop runs without telemetry.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to mqtt broker")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	p.publish(ctx, bridgeStateTopic(p.baseTopic), []byte(payloadOnline), true)
	return nil
}

// PublishStatus pushes the retained status JSON.
func (p *Publisher) PublishStatus(ctx context.Context, status types.Status) {
	if p.client == nil {
		return
	}
	payload, err := json.Marshal(status)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to marshal status", slog.Any("error", err))
		return
	}
	p.publish(ctx, p.StatusTopic(), payload, true)
}

// PublishSchedule pushes the schedule JSON.
func (p *Publisher) PublishSchedule(ctx context.Context, s types.Schedule) {
	if p.client == nil {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to marshal schedule", slog.Any("error", err))
		return
	}
	p.publish(ctx, p.ScheduleTopic(), payload, true)
}

func (p *Publisher) publish(ctx context.Context, topic string, payload []byte, retained bool) {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Ctx(ctx).WarnContext(ctx, "mqtt publish timed out", slog.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "mqtt publish failed", slog.String("topic", topic), slog.Any("error", err))
	}
}

// Close announces the bridge as offline and disconnects.
func (p *Publisher) Close(ctx context.Context) {
	if p.client == nil || !p.client.IsConnected() {
		return
	}
	p.publish(ctx, bridgeStateTopic(p.baseTopic), []byte(payloadOffline), true)
	p.client.Disconnect(250)
}
