package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeString время не в формате HH:MM
var ErrInvalidTimeString = errors.New("types: invalid time string, expected HH:MM")

const timeLayout = "15:04"

// TimeString время суток в формате HH:MM
type TimeString string

// NewTimeString время суток из time.Time
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format(timeLayout))
}

// NewTimeStringFromString проверяет формат и возвращает TimeString
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(s)
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

func (t TimeString) String() string {
	return string(t)
}

func (t TimeString) IsZero() bool {
	return t == ""
}

// Validate проверяет формат HH:MM
func (t TimeString) Validate() error {
	if _, err := time.Parse(timeLayout, string(t)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeString, string(t))
	}
	return nil
}

// Minutes минуты от полуночи; для невалидной строки 0
func (t TimeString) Minutes() int {
	parsed, err := time.Parse(timeLayout, string(t))
	if err != nil {
		return 0
	}
	return parsed.Hour()*60 + parsed.Minute()
}

// On возвращает момент времени t в день date (в часовом поясе date)
func (t TimeString) On(date time.Time) time.Time {
	y, m, d := date.Date()
	mins := t.Minutes()
	return time.Date(y, m, d, mins/60, mins%60, 0, 0, date.Location())
}

// Before true, если t раньше other
func (t TimeString) Before(other TimeString) bool {
	return t.Minutes() < other.Minutes()
}
