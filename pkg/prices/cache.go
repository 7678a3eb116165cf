package prices

import (
	"context"
	"log/slog"

	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/types"
)

// CachedFeed wraps a Feed and retains the last non-empty curves so a failed
// or empty read degrades to stale data instead of an empty schedule. The
// control loop owns the instance; there is no locking because there is
// exactly one caller.
type CachedFeed struct {
	feed Feed

	lastImport []types.PriceSlot
	lastExport []types.PriceSlot
}

// NewCachedFeed wraps feed with a last-known-good cache.
func NewCachedFeed(feed Feed) *CachedFeed {
	return &CachedFeed{feed: feed}
}

// GetImportPrices returns the feed's import curve, falling back to the last
// successful read when the feed fails or returns nothing.
func (c *CachedFeed) GetImportPrices(ctx context.Context) ([]types.PriceSlot, error) {
	curve, err := c.feed.GetImportPrices(ctx)
	if err != nil || len(curve) == 0 {
		if len(c.lastImport) > 0 {
			log.Ctx(ctx).WarnContext(ctx, "import price read failed, using cached curve",
				slog.Int("cachedSlots", len(c.lastImport)),
				slog.Any("error", err),
			)
			return c.lastImport, nil
		}
		return nil, err
	}
	c.lastImport = curve
	return curve, nil
}

// GetExportPrices returns the feed's export curve with the same fallback
// behavior as GetImportPrices.
func (c *CachedFeed) GetExportPrices(ctx context.Context) ([]types.PriceSlot, error) {
	curve, err := c.feed.GetExportPrices(ctx)
	if err != nil || len(curve) == 0 {
		if len(c.lastExport) > 0 {
			log.Ctx(ctx).WarnContext(ctx, "export price read failed, using cached curve",
				slog.Int("cachedSlots", len(c.lastExport)),
				slog.Any("error", err),
			)
			return c.lastExport, nil
		}
		return nil, err
	}
	c.lastExport = curve
	return curve, nil
}

var _ Feed = (*CachedFeed)(nil)
