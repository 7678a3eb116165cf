package monitor

// IsExporting reports whether the grid reading shows export beyond
// threshold. Grid power is signed: positive imports, negative exports. A
// missing reading never triggers the condition.
func IsExporting(gridPowerW *float64, thresholdW float64) bool {
	if gridPowerW == nil {
		return false
	}
	return *gridPowerW < -thresholdW
}

// ShouldReduceDischarge reports whether active discharge power should be
// trimmed because the house is already exporting.
func ShouldReduceDischarge(gridPowerW *float64, thresholdW float64) bool {
	return IsExporting(gridPowerW, thresholdW)
}
