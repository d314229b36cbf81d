package weekparse

import (
	"time"

	"github.com/sahilchouksey/course-week-planner/model"
)

// ISODate is the layout every date in a week plan is rendered with
const ISODate = "2006-01-02"

var shortDayNames = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
	time.Sunday:    "Sun",
}

// DateOnly drops the clock part of t and pins it to UTC midnight of the same calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MondayOnOrBefore returns the Monday that starts the Monday-based week containing t.
func MondayOnOrBefore(t time.Time) time.Time {
	day := DateOnly(t.UTC())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// ClampWeek forces a week number into [model.MinWeek, model.MaxWeek].
func ClampWeek(week int) int {
	if week < model.MinWeek {
		return model.MinWeek
	}
	if week > model.MaxWeek {
		return model.MaxWeek
	}
	return week
}

// TermStart walks back from the anchor so that week 1 starts on a Monday and the
// anchor falls inside storedWeek.
func TermStart(anchor time.Time, storedWeek int) time.Time {
	storedWeek = ClampWeek(storedWeek)
	return MondayOnOrBefore(anchor).AddDate(0, 0, -7*(storedWeek-1))
}

// WeekRange returns the first (Monday) and last (Sunday) day of the given week of a term.
func WeekRange(termStart time.Time, week int) (time.Time, time.Time) {
	start := MondayOnOrBefore(termStart).AddDate(0, 0, 7*(ClampWeek(week)-1))
	return start, start.AddDate(0, 0, 6)
}

// EffectiveCurrentWeek advances the stored week by the number of week boundaries
// crossed since the anchor.
func EffectiveCurrentWeek(storedWeek int, anchor, now time.Time) int {
	elapsedDays := int(MondayOnOrBefore(now).Sub(MondayOnOrBefore(anchor)).Hours() / 24)
	elapsedWeeks := elapsedDays / 7
	if elapsedWeeks < 0 {
		elapsedWeeks = 0
	}
	return ClampWeek(storedWeek + elapsedWeeks)
}

// ShortDayName returns the Mon..Sun label of t.
func ShortDayName(t time.Time) string {
	return shortDayNames[t.Weekday()]
}

// DueDowLabel names the weekday of due, prefixed with "Next " when due falls outside
// the week that starts at weekStart.
func DueDowLabel(due, weekStart time.Time) string {
	due = DateOnly(due)
	start := DateOnly(weekStart)
	end := start.AddDate(0, 0, 6)
	name := due.Weekday().String()
	if due.Before(start) || due.After(end) {
		return "Next " + name
	}
	return name
}

// FormatISO renders t as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISODate)
}

// ParseISO parses a YYYY-MM-DD date in UTC.
func ParseISO(s string) (time.Time, error) {
	return time.ParseInLocation(ISODate, s, time.UTC)
}

// InWeek reports whether date lies within the seven days starting at weekStart.
func InWeek(date, weekStart time.Time) bool {
	date = DateOnly(date)
	start := DateOnly(weekStart)
	return !date.Before(start) && !date.After(start.AddDate(0, 0, 6))
}
