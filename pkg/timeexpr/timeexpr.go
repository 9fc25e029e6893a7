// Package timeexpr normalizes casual date and time phrases ("tomorrow at 7",
// "friday 19:30", "tonight", "2026-05-01") against a reference clock.
package timeexpr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Expression is a normalized time phrase.
// Exact expressions name a single start instant (Start == End).
// Otherwise [Start, End) is the window the user is flexible within.
type Expression struct {
	Start time.Time
	End   time.Time
	Exact bool
}

// EveningStartHour is where "tonight" begins when no clock time is given.
const EveningStartHour = 17

var (
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	weekdayRe   = regexp.MustCompile(`\b(next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	clockRe     = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	meridiemRe  = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	atHourRe    = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)

	weekdays = map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
)

// Parse normalizes text relative to now (in now's location).
// It reports false when text holds no recognizable date or time.
func Parse(text string, now time.Time) (Expression, bool) {
	lower := normalize(text)
	today := midnight(now)

	day, hasDate, tonight := parseDate(lower, now, today)
	hour, minute, hasTime := parseClock(lower, tonight)

	switch {
	case hasTime:
		if !hasDate {
			day = today
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
		if !hasDate && start.Before(now) {
			start = start.AddDate(0, 0, 1)
		}
		return Expression{Start: start, End: start, Exact: true}, true

	case hasDate:
		start := day
		end := day.AddDate(0, 0, 1)
		if tonight {
			start = time.Date(day.Year(), day.Month(), day.Day(), EveningStartHour, 0, 0, 0, now.Location())
		}
		if day.Equal(today) {
			current := now.Truncate(time.Minute)
			if current.After(start) {
				start = current
			}
		}
		if !start.Before(end) {
			return Expression{}, false
		}
		return Expression{Start: start, End: end}, true
	}

	return Expression{}, false
}

// HasCue reports whether text mentions a date or a clock time.
func HasCue(text string) bool {
	_, ok := Parse(text, time.Now())
	return ok
}

func normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = strings.ReplaceAll(lower, "a.m.", "am")
	lower = strings.ReplaceAll(lower, "p.m.", "pm")
	return lower
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseDate(lower string, now, today time.Time) (time.Time, bool, bool) {
	switch {
	case strings.Contains(lower, "day after tomorrow"):
		return today.AddDate(0, 0, 2), true, false
	case strings.Contains(lower, "tomorrow"):
		return today.AddDate(0, 0, 1), true, false
	case strings.Contains(lower, "tonight"):
		return today, true, true
	case strings.Contains(lower, "today"):
		return today, true, false
	}

	if m := isoDateRe.FindStringSubmatch(lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if date, ok := validDate(y, mo, d, now.Location()); ok {
			return date, true, false
		}
	}

	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		target := weekdays[m[2]]
		diff := (int(target) - int(today.Weekday()) + 7) % 7
		if m[1] != "" && diff == 0 {
			diff = 7
		}
		return today.AddDate(0, 0, diff), true, false
	}

	if m := slashDateRe.FindStringSubmatch(lower); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		if date, ok := validDate(today.Year(), mo, d, now.Location()); ok {
			if date.Before(today) {
				date = date.AddDate(1, 0, 0)
			}
			return date, true, false
		}
	}

	return time.Time{}, false, false
}

func validDate(y, mo, d int, loc *time.Location) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	date := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if date.Month() != time.Month(mo) {
		return time.Time{}, false
	}
	return date, true
}

// parseClock extracts a clock time. Bare hours 1-10 without am/pm are read as
// evening hours, which is what diners almost always mean.
func parseClock(lower string, evening bool) (int, int, bool) {
	if strings.Contains(lower, "noon") {
		return 12, 0, true
	}

	var (
		hour, minute int
		meridiem     string
		found        bool
	)

	if m := clockRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		meridiem = m[3]
		found = true
	} else if m := meridiemRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		meridiem = m[2]
		found = true
	} else if m := atHourRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		found = true
	}

	if !found || hour > 23 || minute > 59 {
		return 0, 0, false
	}

	switch meridiem {
	case "pm":
		if hour > 12 {
			return 0, 0, false
		}
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour >= 1 && hour <= 10 || evening && hour == 11 {
			hour += 12
		}
	}

	return hour, minute, true
}
