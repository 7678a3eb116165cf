package prices

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gridflux/gridflux/pkg/types"
)

// normalize converts a supported price sequence into indexed PricePoints.
// Supported inputs are []float64, []types.PriceSlot, []types.PricePoint and
// []any holding any mix of those element types. Anything else is a
// validation error.
func normalize(entries any) ([]types.PricePoint, error) {
	switch v := entries.(type) {
	case []float64:
		points := make([]types.PricePoint, len(v))
		for i, p := range v {
			points[i] = types.PricePoint{Index: i, Price: p, Raw: p}
		}
		return points, nil
	case []types.PriceSlot:
		points := make([]types.PricePoint, len(v))
		for i, s := range v {
			points[i] = types.PricePoint{Index: i, Price: s.Price, Raw: s}
		}
		return points, nil
	case []types.PricePoint:
		points := make([]types.PricePoint, len(v))
		copy(points, v)
		return points, nil
	case []any:
		points := make([]types.PricePoint, len(v))
		for i, e := range v {
			switch p := e.(type) {
			case float64:
				points[i] = types.PricePoint{Index: i, Price: p, Raw: p}
			case int:
				points[i] = types.PricePoint{Index: i, Price: float64(p), Raw: p}
			case types.PriceSlot:
				points[i] = types.PricePoint{Index: i, Price: p.Price, Raw: p}
			case types.PricePoint:
				points[i] = types.PricePoint{Index: i, Price: p.Price, Raw: p.Raw}
			default:
				return nil, fmt.Errorf("price entry %d has unsupported type %T", i, e)
			}
		}
		return points, nil
	default:
		return nil, fmt.Errorf("unsupported price sequence type %T", entries)
	}
}

// SelectCheapest returns the topX cheapest entries sorted by (price, index)
// ascending. The original-index tie break makes the selection deterministic
// and ranks stable across repeated calls on identical input. topX <= 0
// yields an empty selection, not an error.
func SelectCheapest(entries any, topX int) ([]types.PricePoint, error) {
	points, err := normalize(entries)
	if err != nil {
		return nil, err
	}
	if topX <= 0 {
		return nil, nil
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Price != points[j].Price {
			return points[i].Price < points[j].Price
		}
		return points[i].Index < points[j].Index
	})
	if topX < len(points) {
		points = points[:topX]
	}
	return points, nil
}

// SelectMostExpensive returns the topX priciest entries sorted by price
// descending, ties broken by ascending original index.
func SelectMostExpensive(entries any, topX int) ([]types.PricePoint, error) {
	points, err := normalize(entries)
	if err != nil {
		return nil, err
	}
	if topX <= 0 {
		return nil, nil
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Price != points[j].Price {
			return points[i].Price > points[j].Price
		}
		return points[i].Index < points[j].Index
	})
	if topX < len(points) {
		points = points[:topX]
	}
	return points, nil
}

// CalculatePriceRanges derives the load band from the cheapest topXCharge
// import slots and the discharge band from the priciest topXDischarge export
// slots. The discharge band is only honored when its floor clears the load
// band's ceiling by at least minProfit; otherwise it collapses entirely and
// those hours are handled adaptively. The load band is kept either way.
func CalculatePriceRanges(importCurve, exportCurve []types.PriceSlot, topXCharge, topXDischarge int, minProfit float64) (types.PriceRanges, error) {
	var ranges types.PriceRanges

	cheapest, err := SelectCheapest(importCurve, topXCharge)
	if err != nil {
		return ranges, fmt.Errorf("failed to select cheapest import slots: %w", err)
	}
	if len(cheapest) > 0 {
		ranges.Load = &types.PriceRange{
			Min: cheapest[0].Price,
			Max: cheapest[len(cheapest)-1].Price,
		}
	}

	priciest, err := SelectMostExpensive(exportCurve, topXDischarge)
	if err != nil {
		return ranges, fmt.Errorf("failed to select priciest export slots: %w", err)
	}
	if len(priciest) > 0 {
		discharge := &types.PriceRange{
			Min: priciest[len(priciest)-1].Price,
			Max: priciest[0].Price,
		}
		if ranges.Load == nil || discharge.Min-ranges.Load.Max >= minProfit {
			ranges.Discharge = discharge
		}
	}

	return ranges, nil
}

// DetectIntervalMinutes infers the slot granularity from the most common
// delta between consecutive starts. Curves with fewer than two slots default
// to 60 minutes.
func DetectIntervalMinutes(curve []types.PriceSlot) int {
	if len(curve) < 2 {
		return 60
	}
	counts := make(map[int]int)
	for i := 1; i < len(curve); i++ {
		delta := int(curve[i].Start.Sub(curve[i-1].Start).Minutes())
		if delta > 0 {
			counts[delta]++
		}
	}
	best, bestCount := 60, 0
	for delta, count := range counts {
		if count > bestCount || (count == bestCount && delta < best) {
			best, bestCount = delta, count
		}
	}
	return best
}

// TopXFromHours converts an hours-based configuration value into a slot
// count for the detected interval.
func TopXFromHours(hours float64, intervalMinutes int) int {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return int(math.Round(hours * 60 / float64(intervalMinutes)))
}

// CurrentEntry locates the slot containing now. Slots carry their own end
// when the feed provides one; otherwise the slot spans intervalMinutes from
// its start.
func CurrentEntry(curve []types.PriceSlot, now time.Time, intervalMinutes int) (types.PriceSlot, int, bool) {
	for i, slot := range curve {
		end := slot.End
		if end.IsZero() {
			end = slot.Start.Add(time.Duration(intervalMinutes) * time.Minute)
		}
		if !now.Before(slot.Start) && now.Before(end) {
			return slot, i, true
		}
	}
	return types.PriceSlot{}, 0, false
}

// CurrentRank returns the competitive rank (1 = best) of the slot containing
// now within the topX selection. reverse selects the priciest slots instead
// of the cheapest. A slot outside the selection has no rank, which is not an
// error condition.
func CurrentRank(curve []types.PriceSlot, topX int, now time.Time, reverse bool) (int, bool) {
	_, idx, ok := CurrentEntry(curve, now, DetectIntervalMinutes(curve))
	if !ok {
		return 0, false
	}

	var selected []types.PricePoint
	var err error
	if reverse {
		selected, err = SelectMostExpensive(curve, topX)
	} else {
		selected, err = SelectCheapest(curve, topX)
	}
	if err != nil {
		return 0, false
	}
	for rank, point := range selected {
		if point.Index == idx {
			return rank + 1, true
		}
	}
	return 0, false
}
