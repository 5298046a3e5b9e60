package lifecycle

import "time"

const (
	businessDayStart = 9
	businessDayEnd   = 18
)

// WorkingHours counts billable hours in [start, end). The interval is walked
// hour by hour from start; an hour counts when, in loc, it falls on Monday
// through Friday and its hour-of-day is in [09, 18).
func WorkingHours(start, end time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	hours := 0
	for current := start; current.Before(end); current = current.Add(time.Hour) {
		if isBusinessHour(current.In(loc)) {
			hours++
		}
	}
	return hours
}

func isBusinessHour(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return h >= businessDayStart && h < businessDayEnd
}
