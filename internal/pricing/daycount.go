package pricing

import (
	"fmt"
	"strings"
	"time"
)

// DayCount is a year-fraction convention.
type DayCount string

const (
	Act365F   DayCount = "ACT/365F"
	Act360    DayCount = "ACT/360"
	Thirty360 DayCount = "30E/360"
)

// ParseDayCount parses a convention name; the empty string selects ACT/365F.
func ParseDayCount(s string) (DayCount, error) {
	switch DayCount(strings.ToUpper(strings.TrimSpace(s))) {
	case "", Act365F, "ACT/365":
		return Act365F, nil
	case Act360:
		return Act360, nil
	case Thirty360, "30/360":
		return Thirty360, nil
	}
	return "", fmt.Errorf("unknown day count convention %q", s)
}

// YearFraction returns the time from start to end in years. Matured instruments
// (end not after start) return 0.
func YearFraction(start, end time.Time, dc DayCount) float64 {
	if !end.After(start) {
		return 0
	}
	switch dc {
	case Act360:
		return end.Sub(start).Hours() / 24 / 360
	case Thirty360:
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360
	default:
		return end.Sub(start).Hours() / 24 / 365
	}
}
