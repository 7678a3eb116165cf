package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// fetchCacheWindow is how long one fetched curve is reused before the API is
// asked again. Day-ahead curves only change once per hour at most.
const fetchCacheWindow = 5 * time.Minute

// Awattar implements Feed against the aWATTar market data API. The API
// serves day-ahead hourly market prices in EUR/MWh; import and export curves
// are derived from the same market curve with a per-kWh surcharge and fee.
type Awattar struct {
	apiURL string
	// importSurcharge is added to the market price for the import curve
	// (grid fees, taxes), in the same unit as the returned curve (per kWh).
	importSurcharge float64
	// exportFee is subtracted from the market price for the export curve.
	exportFee float64
	client    *http.Client

	mu            sync.Mutex
	lastFetchTime time.Time
	cachedCurve   []types.PriceSlot
}

// configuredAwattar sets up flags for the aWATTar feed and returns the
// instance.
func configuredAwattar() *Awattar {
	a := &Awattar{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	apiURL := lflag.String("awattar-api-url", "https://api.awattar.de/v1/marketdata", "URL for the aWATTar market data API")
	importSurcharge := float64(0)
	lflag.JSON(&importSurcharge, "awattar-import-surcharge", importSurcharge, "Surcharge added to the market price for imports (per kWh)")
	exportFee := float64(0)
	lflag.JSON(&exportFee, "awattar-export-fee", exportFee, "Fee subtracted from the market price for exports (per kWh)")

	lflag.Do(func() {
		a.apiURL = *apiURL
		a.importSurcharge = importSurcharge
		a.exportFee = exportFee
	})

	return a
}

// Validate ensures the configuration is valid.
func (a *Awattar) Validate() error {
	if a.apiURL == "" {
		return fmt.Errorf("awattar-api-url is required")
	}
	if _, err := url.Parse(a.apiURL); err != nil {
		return fmt.Errorf("failed to parse awattar url (%s): %w", a.apiURL, err)
	}
	return nil
}

// marketEntry is one slot of the aWATTar response.
type marketEntry struct {
	StartTimestamp int64 `json:"start_timestamp"`
	EndTimestamp   int64 `json:"end_timestamp"`
	// Marketprice is in EUR/MWh.
	Marketprice float64 `json:"marketprice"`
}

type marketResponse struct {
	Data []marketEntry `json:"data"`
}

// GetImportPrices returns the market curve with the import surcharge applied.
func (a *Awattar) GetImportPrices(ctx context.Context) ([]types.PriceSlot, error) {
	curve, err := a.fetchCurve(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.PriceSlot, len(curve))
	for i, slot := range curve {
		slot.Price += a.importSurcharge
		out[i] = slot
	}
	return out, nil
}

// GetExportPrices returns the market curve with the export fee subtracted.
func (a *Awattar) GetExportPrices(ctx context.Context) ([]types.PriceSlot, error) {
	curve, err := a.fetchCurve(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.PriceSlot, len(curve))
	for i, slot := range curve {
		slot.Price -= a.exportFee
		out[i] = slot
	}
	return out, nil
}

// fetchCurve retrieves the raw market curve, reusing the last fetch within
// the cache window.
func (a *Awattar) fetchCurve(ctx context.Context) ([]types.PriceSlot, error) {
	now := time.Now()

	a.mu.Lock()
	if !a.lastFetchTime.IsZero() && now.Sub(a.lastFetchTime) < fetchCacheWindow {
		curve := a.cachedCurve
		a.mu.Unlock()
		return curve, nil
	}
	a.mu.Unlock()

	log.Ctx(ctx).DebugContext(ctx, "fetching awattar market data", slog.String("url", a.apiURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create awattar request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch awattar market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("awattar api returned %d: %s", resp.StatusCode, body)
	}

	var parsed marketResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode awattar response: %w", err)
	}

	curve := make([]types.PriceSlot, 0, len(parsed.Data))
	for _, e := range parsed.Data {
		curve = append(curve, types.PriceSlot{
			Start: time.UnixMilli(e.StartTimestamp),
			End:   time.UnixMilli(e.EndTimestamp),
			// EUR/MWh to EUR/kWh
			Price: e.Marketprice / 1000,
		})
	}

	a.mu.Lock()
	a.cachedCurve = curve
	a.lastFetchTime = now
	a.mu.Unlock()

	return curve, nil
}

var _ Feed = (*Awattar)(nil)
