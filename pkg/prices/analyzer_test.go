package prices

import (
	"testing"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotCurve(start time.Time, intervalMinutes int, prices ...float64) []types.PriceSlot {
	curve := make([]types.PriceSlot, len(prices))
	for i, p := range prices {
		s := start.Add(time.Duration(i*intervalMinutes) * time.Minute)
		curve[i] = types.PriceSlot{
			Start: s,
			End:   s.Add(time.Duration(intervalMinutes) * time.Minute),
			Price: p,
		}
	}
	return curve
}

func TestSelectCheapest(t *testing.T) {
	t.Run("floats sorted by price then index", func(t *testing.T) {
		got, err := SelectCheapest([]float64{0.30, 0.10, 0.20, 0.10}, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		// ties (0.10 at index 1 and 3) break by ascending original index
		assert.Equal(t, 1, got[0].Index)
		assert.Equal(t, 3, got[1].Index)
		assert.Equal(t, 2, got[2].Index)
	})

	t.Run("returns min(topX, len) entries", func(t *testing.T) {
		got, err := SelectCheapest([]float64{0.3, 0.1}, 10)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("topX zero returns empty without error", func(t *testing.T) {
		got, err := SelectCheapest([]float64{0.3, 0.1}, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("idempotent on identical input", func(t *testing.T) {
		in := []float64{0.5, 0.2, 0.2, 0.9, 0.1}
		first, err := SelectCheapest(in, 4)
		require.NoError(t, err)
		second, err := SelectCheapest(in, 4)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("non-decreasing prefix of full sort", func(t *testing.T) {
		in := []float64{0.7, 0.1, 0.4, 0.4, 0.2}
		got, err := SelectCheapest(in, 4)
		require.NoError(t, err)
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, got[i-1].Price, got[i].Price)
		}
	})

	t.Run("slot records", func(t *testing.T) {
		curve := slotCurve(time.Now(), 15, 0.10, 0.20, 0.05)
		got, err := SelectCheapest(curve, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[0].Index)
		assert.Equal(t, 0, got[1].Index)
	})

	t.Run("unsupported entry type", func(t *testing.T) {
		_, err := SelectCheapest([]any{0.1, "not a price"}, 2)
		assert.Error(t, err)
	})

	t.Run("unsupported sequence type", func(t *testing.T) {
		_, err := SelectCheapest("bogus", 2)
		assert.Error(t, err)
	})
}

func TestSelectMostExpensive(t *testing.T) {
	got, err := SelectMostExpensive([]float64{0.30, 0.10, 0.30, 0.20}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Index, "price desc, ties by ascending index")
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, 3, got[2].Index)
}

func TestCalculatePriceRanges(t *testing.T) {
	now := time.Now()

	t.Run("profitable discharge band kept", func(t *testing.T) {
		importCurve := slotCurve(now, 60, 0.10, 0.12, 0.30, 0.40)
		exportCurve := slotCurve(now, 60, 0.08, 0.10, 0.28, 0.38)

		ranges, err := CalculatePriceRanges(importCurve, exportCurve, 2, 2, 0.05)
		require.NoError(t, err)
		require.NotNil(t, ranges.Load)
		assert.Equal(t, 0.10, ranges.Load.Min)
		assert.Equal(t, 0.12, ranges.Load.Max)
		require.NotNil(t, ranges.Discharge)
		assert.Equal(t, 0.28, ranges.Discharge.Min)
		assert.Equal(t, 0.38, ranges.Discharge.Max)
	})

	t.Run("unprofitable discharge band collapses fully", func(t *testing.T) {
		importCurve := slotCurve(now, 60, 0.10, 0.12, 0.13, 0.14)
		exportCurve := slotCurve(now, 60, 0.10, 0.11, 0.13, 0.14)

		ranges, err := CalculatePriceRanges(importCurve, exportCurve, 2, 2, 0.05)
		require.NoError(t, err)
		require.NotNil(t, ranges.Load, "load band survives the collapse")
		assert.Nil(t, ranges.Discharge)
	})

	t.Run("empty curves yield no bands", func(t *testing.T) {
		ranges, err := CalculatePriceRanges(nil, nil, 2, 2, 0.05)
		require.NoError(t, err)
		assert.Nil(t, ranges.Load)
		assert.Nil(t, ranges.Discharge)
	})
}

func TestDetectIntervalMinutes(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 15, DetectIntervalMinutes(slotCurve(now, 15, 1, 2, 3, 4)))
	assert.Equal(t, 60, DetectIntervalMinutes(slotCurve(now, 60, 1, 2, 3)))
	assert.Equal(t, 60, DetectIntervalMinutes(nil), "short curves default to 60")
}

func TestTopXFromHours(t *testing.T) {
	assert.Equal(t, 12, TopXFromHours(3, 15))
	assert.Equal(t, 3, TopXFromHours(3, 60))
	assert.Equal(t, 2, TopXFromHours(0.5, 15))
}

func TestCurrentEntry(t *testing.T) {
	now := time.Date(2026, 2, 3, 10, 20, 0, 0, time.Local)
	curve := slotCurve(now.Truncate(time.Hour), 15, 0.1, 0.2, 0.3, 0.4)

	slot, idx, ok := CurrentEntry(curve, now, 15)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 0.2, slot.Price)

	_, _, ok = CurrentEntry(curve, now.Add(2*time.Hour), 15)
	assert.False(t, ok)
}

func TestCurrentRank(t *testing.T) {
	start := time.Date(2026, 2, 3, 10, 0, 0, 0, time.Local)
	curve := slotCurve(start, 15, 0.30, 0.10, 0.20, 0.40)

	t.Run("cheapest rank", func(t *testing.T) {
		rank, ok := CurrentRank(curve, 2, start.Add(16*time.Minute), false)
		require.True(t, ok)
		assert.Equal(t, 1, rank, "cheapest slot is rank 1")
	})

	t.Run("priciest rank", func(t *testing.T) {
		rank, ok := CurrentRank(curve, 2, start.Add(46*time.Minute), true)
		require.True(t, ok)
		assert.Equal(t, 1, rank)
	})

	t.Run("outside selection has no rank", func(t *testing.T) {
		_, ok := CurrentRank(curve, 1, start.Add(31*time.Minute), false)
		assert.False(t, ok, "0.20 slot is not in the top-1 cheapest")
	})

	t.Run("outside curve has no rank", func(t *testing.T) {
		_, ok := CurrentRank(curve, 2, start.Add(5*time.Hour), false)
		assert.False(t, ok)
	})
}
