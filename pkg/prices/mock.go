package prices

import (
	"context"
	"sync"

	"github.com/gridflux/gridflux/pkg/types"
)

// MockFeed is a Feed backed by fixed curves, used in tests and by the mock
// inverter setup.
type MockFeed struct {
	mu sync.Mutex

	Import []types.PriceSlot
	Export []types.PriceSlot

	ImportErr error
	ExportErr error

	importCalls int
	exportCalls int
}

// GetImportPrices returns the configured import curve or error.
func (m *MockFeed) GetImportPrices(ctx context.Context) ([]types.PriceSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.importCalls++
	if m.ImportErr != nil {
		return nil, m.ImportErr
	}
	return m.Import, nil
}

// GetExportPrices returns the configured export curve or error.
func (m *MockFeed) GetExportPrices(ctx context.Context) ([]types.PriceSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exportCalls++
	if m.ExportErr != nil {
		return nil, m.ExportErr
	}
	return m.Export, nil
}

// ImportCalls returns how many times GetImportPrices was called.
func (m *MockFeed) ImportCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.importCalls
}

var _ Feed = (*MockFeed)(nil)
