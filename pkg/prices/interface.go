package prices

import (
	"context"

	"github.com/gridflux/gridflux/pkg/types"
)

// Feed defines the interface for the upstream price forecast. The curves are
// ordered by start and ideally cover today and tomorrow, keyed by import and
// export tariffs separately. The feed is a trusted external collaborator;
// this package does not validate or acquire forecasts itself.
type Feed interface {
	// GetImportPrices returns the forecast import (buy) price curve.
	GetImportPrices(ctx context.Context) ([]types.PriceSlot, error)

	// GetExportPrices returns the forecast export (sell) price curve.
	GetExportPrices(ctx context.Context) ([]types.PriceSlot, error)
}
