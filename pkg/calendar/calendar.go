// Package calendar maps a run instant to the most recent closed US equity
// trading session. Weekends are handled; market holidays are NOT modeled —
// a holiday is treated like any other weekday, which can bias the session
// date onto a day with no actual trading. Callers that need a real bar for
// the session should accept the nearest earlier bar (see gap.Resolver).
package calendar

import "time"

// Regular session close, US/Eastern.
const SessionCloseHour = 16

// Regular session open, US/Eastern.
const (
	SessionOpenHour   = 9
	SessionOpenMinute = 30
)

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("calendar: failed to load America/New_York: " + err.Error())
	}
	eastern = loc
}

// Eastern returns the exchange-local timezone (US/Eastern).
func Eastern() *time.Location {
	return eastern
}

// MostRecentClosedSession returns the date (midnight, US/Eastern) of the most
// recent trading session that has already closed as of now.
//
// Examples: Sunday 9 PM -> Friday, Monday 9 AM -> Friday (Monday has not
// closed yet), Tuesday 2 PM -> Monday, Tuesday 8 PM -> Tuesday.
func MostRecentClosedSession(now time.Time) time.Time {
	ny := now.In(eastern)
	day := time.Date(ny.Year(), ny.Month(), ny.Day(), 0, 0, 0, 0, eastern)

	day = skipWeekend(day)

	// If the candidate is today and today's session has not closed yet,
	// the previous session is the prior weekday.
	if sameDate(day, ny) && ny.Hour() < SessionCloseHour {
		day = skipWeekend(day.AddDate(0, 0, -1))
	}

	return day
}

// SessionClose returns the nominal 4:00 PM Eastern close instant for the
// session on the given date.
func SessionClose(day time.Time) time.Time {
	d := day.In(eastern)
	return time.Date(d.Year(), d.Month(), d.Day(), SessionCloseHour, 0, 0, 0, eastern)
}

// SessionOpen returns the nominal 9:30 AM Eastern open instant for the
// session on the given date.
func SessionOpen(day time.Time) time.Time {
	d := day.In(eastern)
	return time.Date(d.Year(), d.Month(), d.Day(), SessionOpenHour, SessionOpenMinute, 0, 0, eastern)
}

func skipWeekend(day time.Time) time.Time {
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
