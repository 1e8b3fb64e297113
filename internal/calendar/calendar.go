// Package calendar builds the month grid backing the calendar module.
package calendar

import (
	"time"
)

// Entry is one task shown on a calendar day.
type Entry struct {
	ID     uint64    `json:"id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
	Due    time.Time `json:"-"`
}

// Day is one grid cell. Blank leading/trailing cells have Day == 0.
type Day struct {
	Day     int     `json:"day"`
	Date    string  `json:"date,omitempty"` // ISO date, empty for blank cells.
	IsToday bool    `json:"is_today"`
	Entries []Entry `json:"entries,omitempty"`
}

// Month is a full month grid with Sunday-first weeks.
type Month struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Label string  `json:"label"`
	Weeks [][]Day `json:"weeks"`
}

// BuildMonth lays out the grid for the given month and attaches entries to
// their due dates. Entries outside the month are ignored. today controls the
// IsToday marker and may be the zero value.
func BuildMonth(year int, month time.Month, today time.Time, entries []Entry) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	byDay := make(map[int][]Entry)
	for _, entry := range entries {
		due := entry.Due
		if due.Year() != year || due.Month() != month {
			continue
		}
		byDay[due.Day()] = append(byDay[due.Day()], entry)
	}

	out := Month{
		Year:  year,
		Month: int(month),
		Label: first.Format("January 2006"),
	}

	week := make([]Day, 0, 7)
	// Sunday-first: time.Weekday already counts Sunday as 0.
	for i := 0; i < int(first.Weekday()); i++ {
		week = append(week, Day{})
	}
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		week = append(week, Day{
			Day:     day,
			Date:    date.Format("2006-01-02"),
			IsToday: sameDate(date, today),
			Entries: byDay[day],
		})
		if len(week) == 7 {
			out.Weeks = append(out.Weeks, week)
			week = make([]Day, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Day{})
		}
		out.Weeks = append(out.Weeks, week)
	}
	return out
}

// sameDate reports whether two times fall on the same calendar day.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
