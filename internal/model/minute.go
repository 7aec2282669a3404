package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinuteOfDay is a time of day expressed as minutes from midnight
// (e.g. 480 for 08:00). It is stored as an integer and rendered as
// "HH:MM" in JSON.
type MinuteOfDay int

const MinutesPerDay = 24 * 60

func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m < MinutesPerDay
}

func (m MinuteOfDay) Hour() int {
	return int(m) / 60
}

func (m MinuteOfDay) Minute() int {
	return int(m) % 60
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", m.Hour(), m.Minute())
}

// At anchors the minute-of-day onto a calendar date in the given location.
func (m MinuteOfDay) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), m.Hour(), m.Minute(), 0, 0, loc)
}

func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	min, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || min < 0 || min > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return MinuteOfDay(h*60 + min), nil
}

func (m MinuteOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *MinuteOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMinuteOfDay(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
