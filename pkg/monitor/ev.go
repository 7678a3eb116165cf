package monitor

// IsEVCharging reports whether the EV charger draws more than threshold. A
// missing reading never triggers the condition.
func IsEVCharging(evPowerW *float64, thresholdW float64) bool {
	if evPowerW == nil {
		return false
	}
	return *evPowerW > thresholdW
}

// ShouldPauseDischarge reports whether battery discharge should pause while
// the EV is charging, so the battery doesn't drain into the car.
func ShouldPauseDischarge(evPowerW *float64, thresholdW float64) bool {
	return IsEVCharging(evPowerW, thresholdW)
}

// AdjustHouseLoad subtracts the EV draw from the house load, floored at
// zero. A missing EV reading leaves the house load unchanged; a missing
// house load stays missing.
func AdjustHouseLoad(houseLoadW, evPowerW *float64) *float64 {
	if houseLoadW == nil {
		return nil
	}
	if evPowerW == nil {
		return houseLoadW
	}
	adjusted := *houseLoadW - *evPowerW
	if adjusted < 0 {
		adjusted = 0
	}
	return &adjusted
}
