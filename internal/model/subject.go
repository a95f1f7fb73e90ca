package model

import (
	"fmt"
	"time"
)

// Location is the geographic component of a birth subject.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// BirthSubject carries the birth data a chart is computed from.
// Subjects are treated as immutable once handed to the pipeline.
type BirthSubject struct {
	// Date in "2006-01-02" form.
	Date string `json:"date"`
	// Time in "15:04" form.
	Time     string   `json:"time"`
	Location Location `json:"location"`
	// DisplayName is optional and only used in rendered output.
	DisplayName string `json:"display_name,omitempty"`
}

// BirthMoment parses the subject's date and time into a single UTC instant.
// The location timezone is applied when it resolves; otherwise the moment is
// interpreted as UTC.
func (s BirthSubject) BirthMoment() (time.Time, error) {
	loc := time.UTC
	if s.Location.Timezone != "" {
		if l, err := time.LoadLocation(s.Location.Timezone); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing birth moment %q %q: %w", s.Date, s.Time, err)
	}
	return t.UTC(), nil
}

// Label returns the display name, falling back to the birth date.
func (s BirthSubject) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Date
}
