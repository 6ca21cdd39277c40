package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"crowd-monitor/internal/domain"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadHours reads a weekly operating-hours override from a YAML file keyed
// by lowercase weekday name. An empty path returns the default table.
func LoadHours(path string) (domain.WeeklyHours, error) {
	if path == "" {
		return domain.DefaultWeeklyHours(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hours file: %w", err)
	}
	var raw map[string]domain.HoursRange
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hours file: %w", err)
	}
	hours := make(domain.WeeklyHours, len(raw))
	for name, r := range raw {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("hours file: unknown weekday %q", name)
		}
		if r.Open < 0 || r.Close > 24 || r.Open >= r.Close {
			return nil, fmt.Errorf("hours file: invalid range for %s: %d-%d", name, r.Open, r.Close)
		}
		hours[day] = r
	}
	return hours, nil
}

// LoadLocations reads place metadata keyed by place id. An empty path
// returns an empty map; unknown places are created without names.
func LoadLocations(path string) (map[string]domain.LocationInfo, error) {
	if path == "" {
		return map[string]domain.LocationInfo{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	var locations map[string]domain.LocationInfo
	if err := yaml.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("parse locations file: %w", err)
	}
	if locations == nil {
		locations = map[string]domain.LocationInfo{}
	}
	return locations, nil
}
