package prices

import (
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Configured sets up the price feed based on flags. The mock feed is the
// default so a development install runs without an upstream API.
func Configured() Feed {
	provider := lflag.String("price-provider", "mock", "Price feed to use (available: mock, awattar)")

	var f struct{ Feed }

	aw := configuredAwattar()

	lflag.Do(func() {
		switch *provider {
		case "mock":
			f.Feed = &MockFeed{}
		case "awattar":
			if err := aw.Validate(); err != nil {
				panic(fmt.Sprintf("awattar validation failed: %v", err))
			}
			f.Feed = aw
		default:
			panic(fmt.Sprintf("unknown price provider: %s", *provider))
		}
	})

	return &f
}
