// Package deadline converts free-text deadline expressions into the canonical
// timestamp strings the task backend accepts.
//
// Two registers are understood: relative expressions ("завтра", "через 3 дня",
// "tomorrow", "in 2 hours") and absolute dates ("15.04.2024", optionally
// followed by "14:30"). The current time is always injected by the caller, so
// parsing is deterministic and timezone arithmetic stays in now's location.
//
// Relative keywords are recognized by case-insensitive substring containment,
// not whole-word matching: "завтракать" matches the "завтра" keyword. That
// looseness is part of the established contract with the bot platform and is
// kept deliberately.
package deadline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day-granularity results pin the time of day to the end of the working day.
const (
	defaultHour   = 18
	defaultMinute = 0
)

// Relative keyword vocabulary, Russian and English. Order matters:
// "послезавтра" contains "завтра", so the day-after-tomorrow markers are
// checked first.
var (
	dayAfterTomorrowMarkers = []string{"послезавтра", "day after tomorrow"}
	tomorrowMarkers         = []string{"завтра", "tomorrow"}
	inAWeekMarkers          = []string{"через неделю", "in a week"}
	todayMarkers            = []string{"сегодня", "today"}
)

var (
	relRU = regexp.MustCompile(`через (\d+)\s+(дн|дня|дней|час|часа|часов)`)
	relEN = regexp.MustCompile(`\bin\s+(\d+)\s+(days?|hours?)\b`)
)

// Parse converts expr into a canonical "YYYY-MM-DDTHH:MM:SS" timestamp.
// It reports false when the expression cannot be understood; it never fails
// with an error.
func Parse(expr string, now time.Time) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return "", false
	}

	switch {
	case containsAny(s, dayAfterTomorrowMarkers):
		return format(atDefaultTime(now.AddDate(0, 0, 2))), true
	case containsAny(s, tomorrowMarkers):
		return format(atDefaultTime(now.AddDate(0, 0, 1))), true
	case containsAny(s, inAWeekMarkers):
		return format(atDefaultTime(now.AddDate(0, 0, 7))), true
	case strings.Contains(s, "через"):
		// Committed to the relative branch: a malformed "через ..." is
		// unparseable, it does not fall through to the absolute form.
		return parseOffset(relRU, s, now)
	case relEN.MatchString(s):
		return parseOffset(relEN, s, now)
	}
	return parseAbsolute(s, now)
}

// Range is a half-open calendar day expressed as the two boundary timestamps
// the backend's deadline filter fields accept.
type Range struct {
	Start string
	End   string
}

// ParseRange converts a coarse day expression ("сегодня", "tomorrow",
// "15.04.2024") into the enclosing calendar day. Unlike Parse it accepts no
// time component. It reports false for anything it does not recognize.
func ParseRange(expr string, now time.Time) (Range, bool) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Range{}, false
	}

	var day time.Time
	switch {
	case containsAny(s, todayMarkers):
		day = now
	case containsAny(s, tomorrowMarkers):
		day = now.AddDate(0, 0, 1)
	default:
		parts := strings.Split(s, ".")
		if len(parts) != 3 {
			return Range{}, false
		}
		d, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		y, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil {
			return Range{}, false
		}
		var ok bool
		day, ok = calendarDate(y, m, d, now.Location())
		if !ok {
			return Range{}, false
		}
	}

	return Range{
		Start: fmt.Sprintf("%04d-%02d-%02d 00:00:00", day.Year(), day.Month(), day.Day()),
		End:   fmt.Sprintf("%04d-%02d-%02d 23:59:59", day.Year(), day.Month(), day.Day()),
	}, true
}

// parseOffset handles the generic "через N <unit>" / "in N <unit>" form.
// Day offsets land at the default time; hour offsets are plain additions
// that keep now's minute and second.
func parseOffset(re *regexp.Regexp, s string, now time.Time) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	unit := m[2]
	switch {
	case strings.HasPrefix(unit, "дн") || strings.HasPrefix(unit, "day"):
		return format(atDefaultTime(now.AddDate(0, 0, n))), true
	case strings.HasPrefix(unit, "час") || strings.HasPrefix(unit, "hour"):
		return format(now.Add(time.Duration(n) * time.Hour)), true
	}
	return "", false
}

// parseAbsolute handles "DD.MM.YYYY" with an optional "HH:MM" after the
// first space. Missing time defaults to the end of the working day; seconds
// are always zero.
func parseAbsolute(s string, now time.Time) (string, bool) {
	tokens := strings.SplitN(s, " ", 2)

	dateParts := strings.Split(tokens[0], ".")
	if len(dateParts) < 3 {
		return "", false
	}
	d, err1 := strconv.Atoi(dateParts[0])
	m, err2 := strconv.Atoi(dateParts[1])
	y, err3 := strconv.Atoi(dateParts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}

	hour, minute := defaultHour, defaultMinute
	if len(tokens) > 1 {
		timeParts := strings.Split(strings.TrimSpace(tokens[1]), ":")
		if len(timeParts) >= 2 {
			h, errH := strconv.Atoi(timeParts[0])
			mi, errM := strconv.Atoi(timeParts[1])
			if errH != nil || errM != nil {
				return "", false
			}
			if h < 0 || h > 23 || mi < 0 || mi > 59 {
				return "", false
			}
			hour, minute = h, mi
		}
	}

	day, ok := calendarDate(y, m, d, now.Location())
	if !ok {
		return "", false
	}
	return format(time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())), true
}

// calendarDate builds a date and rejects values time.Date would silently
// normalize, such as 31.02.
func calendarDate(y, m, d int, loc *time.Location) (time.Time, bool) {
	if y < 1 || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func atDefaultTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), defaultHour, defaultMinute, 0, 0, t.Location())
}

func format(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
