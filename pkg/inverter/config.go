package inverter

import (
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Configured sets up the inverter sink and sensor reader based on flags.
// Vendor cloud adapters register additional providers here; the default mock
// keeps a development install runnable without hardware.
func Configured() (Sink, Sensors) {
	provider := lflag.String("inverter-provider", "mock", "Inverter provider to use (available: mock)")

	var sink struct{ Sink }
	var sensors struct{ Sensors }

	lflag.Do(func() {
		switch *provider {
		case "mock":
			m := NewMock()
			sink.Sink = m
			sensors.Sensors = m
		default:
			panic(fmt.Sprintf("unknown inverter provider: %s", *provider))
		}
	})

	return &sink, &sensors
}
