package domain

import "time"

// Reading is a single archived crowd measurement. It is immutable once
// created; identity is the (PlaceID, Timestamp) pair.
type Reading struct {
	Timestamp  time.Time `json:"timestamp"`
	PlaceID    string    `json:"place_id"`
	Popularity *int      `json:"popularity"`
	DayOfWeek  int       `json:"day_of_week"`
	Hour       int       `json:"hour"`
	IsOpen     bool      `json:"is_open"`
}

// NewReading builds a reading for the given local time.
func NewReading(now time.Time, placeID string, popularity *int, isOpen bool) Reading {
	return Reading{
		Timestamp:  now,
		PlaceID:    placeID,
		Popularity: popularity,
		DayOfWeek:  WeekdayIndex(now),
		Hour:       now.Hour(),
		IsOpen:     isOpen,
	}
}

// WeekdayIndex returns the weekday in the archive encoding: 0 is Monday,
// 6 is Sunday.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// LocationInfo is the human metadata known about a place. Places without
// metadata are still tracked, just without names.
type LocationInfo struct {
	Name    string `yaml:"name"`
	NameHe  string `yaml:"name_he"`
	Address string `yaml:"address"`
}

// SyncReport summarizes one importer run.
type SyncReport struct {
	Found   int
	New     int
	Skipped int
	Errors  int
	Pending int
	Total   int
}
