package domain

import "time"

// HoursRange is a half-open range of hours: open at Open:00, closed again
// from Close:00 onward.
type HoursRange struct {
	Open  int `yaml:"open"`
	Close int `yaml:"close"`
}

// WeeklyHours maps a weekday to its operating hours. Weekdays absent from
// the map are closed all day. The table is static and never mutated at
// runtime.
type WeeklyHours map[time.Weekday]HoursRange

// DefaultWeeklyHours returns the National Library schedule: Sunday to
// Thursday 9:00-20:00, Friday 9:00-13:00, Saturday closed.
func DefaultWeeklyHours() WeeklyHours {
	return WeeklyHours{
		time.Sunday:    {Open: 9, Close: 20},
		time.Monday:    {Open: 9, Close: 20},
		time.Tuesday:   {Open: 9, Close: 20},
		time.Wednesday: {Open: 9, Close: 20},
		time.Thursday:  {Open: 9, Close: 20},
		time.Friday:    {Open: 9, Close: 13},
	}
}

// IsOpenAt reports whether the institution is open at the given local time.
// Precision is hour-granular: a check at Close:00 sharp is already closed.
func (h WeeklyHours) IsOpenAt(t time.Time) bool {
	r, ok := h[t.Weekday()]
	if !ok {
		return false
	}
	hour := t.Hour()
	return r.Open <= hour && hour < r.Close
}
