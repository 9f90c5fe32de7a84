// Package dateutils provides the date normalisation shared by the statement parsers.
package dateutils

import (
	"regexp"
	"strconv"
	"time"

	"nossas-despesas/expense-import/internal/models"
)

// DefaultTwoDigitYearPivot splits two-digit years between centuries: values
// above it belong to the previous century.
const DefaultTwoDigitYearPivot = 50

var (
	nonDateChars   = regexp.MustCompile(`[^\d/.\-]`)
	dateSeparators = regexp.MustCompile(`[./\-]`)
)

// DateParser converts ambiguous day/month/year strings into UTC dates.
// The zero value uses DefaultTwoDigitYearPivot and the system clock.
type DateParser struct {
	// Pivot for two-digit years. Zero means DefaultTwoDigitYearPivot.
	Pivot int
	// Now supplies the current century. Nil means time.Now.
	Now func() time.Time
}

var defaultParser = DateParser{}

// ParseDateString parses raw with the default DateParser.
func ParseDateString(raw string) (time.Time, bool) {
	return defaultParser.Parse(raw)
}

// Parse reads the first three numeric components of raw as day, month and
// year. Day-first is assumed unless it puts a value above 12 in the month
// slot while the other order is valid. Impossible calendar dates fail.
func (p DateParser) Parse(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	sanitized := nonDateChars.ReplaceAllString(raw, "")
	var parts []string
	for _, part := range dateSeparators.Split(sanitized, -1) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) < 3 {
		return time.Time{}, false
	}

	dayText, monthText, yearText := parts[0], parts[1], parts[2]
	first, _ := strconv.Atoi(parts[0])
	second, _ := strconv.Atoi(parts[1])
	if second > 12 && first <= 12 {
		dayText, monthText = parts[1], parts[0]
	}

	if len(dayText) > 2 || len(monthText) > 2 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil {
		return time.Time{}, false
	}

	year, ok := p.expandYear(yearText)
	if !ok {
		return time.Time{}, false
	}

	return Date(year, month, day)
}

func (p DateParser) expandYear(text string) (int, bool) {
	year, err := strconv.Atoi(text)
	if err != nil || len(text) > 4 {
		return 0, false
	}
	if len(text) != 2 {
		return year, true
	}

	pivot := p.Pivot
	if pivot == 0 {
		pivot = DefaultTwoDigitYearPivot
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	current := now().UTC().Year()
	century := current - current%100
	if year > pivot {
		century -= 100
	}
	return century + year, true
}

// Date builds a UTC midnight date, rejecting values that time.Date would
// normalise into a different day (31 February, month 13).
func Date(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// FormatISO renders t as a millisecond-precision UTC instant, e.g.
// "2025-11-07T00:00:00.000Z".
func FormatISO(t time.Time) string {
	return t.UTC().Format(models.ISOLayout)
}

// WithTime returns date with the given hour and minute set, in UTC.
func WithTime(date time.Time, hour, minute int) time.Time {
	d := date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}
