package power

import (
	"fmt"
	"math"
)

// powerStepWatts is the granularity inverter power commands are rounded to.
const powerStepWatts = 1000

// RankScaledPower converts a competitive rank within a top-X selection into
// a power value. Rank 1 maps to maxPower, rank topX to minPower, and
// intermediate ranks interpolate linearly. The result is rounded to the
// nearest 1000 W step and clamped back into [minPower, maxPower].
func RankScaledPower(rank, topX, maxPower, minPower int) (int, error) {
	if rank <= 0 {
		return 0, fmt.Errorf("rank must be positive, got %d", rank)
	}
	if topX <= 0 {
		return 0, fmt.Errorf("topX must be positive, got %d", topX)
	}
	if maxPower <= 0 || minPower <= 0 {
		return 0, fmt.Errorf("power bounds must be positive, got max=%d min=%d", maxPower, minPower)
	}

	scaled := float64(maxPower)
	if topX > 1 {
		step := float64(maxPower-minPower) / float64(topX-1)
		scaled = float64(maxPower) - float64(rank-1)*step
	}

	rounded := int(math.Round(scaled/powerStepWatts)) * powerStepWatts
	if rounded > maxPower {
		rounded = maxPower
	}
	if rounded < minPower {
		rounded = minPower
	}
	return rounded, nil
}
