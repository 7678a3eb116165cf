package monitor

import "time"

// CanCharge reports whether the battery may accept more charge.
func CanCharge(soc, maxSOC float64) bool {
	return soc < maxSOC
}

// CanDischarge reports whether the battery may discharge. SOC at or below
// minSOC always forbids it; in conservative mode SOC must additionally reach
// conservativeSOC.
func CanDischarge(soc, minSOC, conservativeSOC float64, conservative bool) bool {
	if soc <= minSOC {
		return false
	}
	if conservative && soc < conservativeSOC {
		return false
	}
	return true
}

// ShouldTargetEndOfDay reports whether the end-of-day window has started.
// targetSOC is accepted for the eventual end-of-day SOC targeting but is not
// evaluated yet; only the time-of-day comparison is implemented.
func ShouldTargetEndOfDay(now, eod time.Time, targetSOC float64) bool {
	_ = targetSOC
	nowMinutes := now.Hour()*60 + now.Minute()
	eodMinutes := eod.Hour()*60 + eod.Minute()
	return nowMinutes >= eodMinutes
}
