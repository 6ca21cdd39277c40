package domain

import (
	"testing"
	"time"
)

func at(weekday time.Weekday, hour int) time.Time {
	// 2024-01-01 is a Monday.
	base := time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(base.Weekday()) + 7) % 7
	return base.AddDate(0, 0, offset)
}

func TestIsOpenAtWithinHours(t *testing.T) {
	hours := DefaultWeeklyHours()
	if !hours.IsOpenAt(at(time.Monday, 9)) {
		t.Fatalf("expected open on Monday 9:00")
	}
	if !hours.IsOpenAt(at(time.Monday, 19)) {
		t.Fatalf("expected open on Monday 19:00")
	}
}

func TestIsOpenAtBounds(t *testing.T) {
	hours := DefaultWeeklyHours()
	if hours.IsOpenAt(at(time.Monday, 8)) {
		t.Fatalf("expected closed before opening hour")
	}
	if hours.IsOpenAt(at(time.Monday, 20)) {
		t.Fatalf("expected closed at closing hour, the range is half-open")
	}
}

func TestIsOpenAtIgnoresMinutes(t *testing.T) {
	hours := DefaultWeeklyHours()
	closing := at(time.Monday, 20).Add(30 * time.Minute)
	if hours.IsOpenAt(closing) {
		t.Fatalf("expected closed at 20:30")
	}
	justOpened := at(time.Monday, 9).Add(1 * time.Minute)
	if !hours.IsOpenAt(justOpened) {
		t.Fatalf("expected open at 9:01")
	}
}

func TestIsOpenAtMissingWeekday(t *testing.T) {
	hours := DefaultWeeklyHours()
	for hour := 0; hour < 24; hour++ {
		if hours.IsOpenAt(at(time.Saturday, hour)) {
			t.Fatalf("expected Saturday %d:00 to be closed", hour)
		}
	}
}

func TestIsOpenAtShortFriday(t *testing.T) {
	hours := DefaultWeeklyHours()
	if !hours.IsOpenAt(at(time.Friday, 12)) {
		t.Fatalf("expected open on Friday 12:00")
	}
	if hours.IsOpenAt(at(time.Friday, 13)) {
		t.Fatalf("expected closed on Friday 13:00")
	}
}

func TestIsOpenAtEmptyTable(t *testing.T) {
	var hours WeeklyHours
	for d := time.Sunday; d <= time.Saturday; d++ {
		if hours.IsOpenAt(at(d, 12)) {
			t.Fatalf("empty table must always be closed")
		}
	}
}
