package booking

import (
	"time"

	"github.com/devcrafthub/client-portal/internal/catalog"
)

// Calendar answers availability questions against a reference "today".
// The reference is configuration rather than wall-clock: the demo
// environment pins it so the grid is stable, production leaves it
// empty to track the real date.
type Calendar struct {
	reference time.Time
}

// NewCalendar builds a calendar around the given reference date. A
// zero reference means wall-clock today.
func NewCalendar(reference time.Time) *Calendar {
	if reference.IsZero() {
		reference = time.Now()
	}
	y, m, d := reference.Date()
	return &Calendar{reference: time.Date(y, m, d, 0, 0, 0, 0, reference.Location())}
}

// Reference returns the calendar's "today".
func (c *Calendar) Reference() time.Time {
	return c.reference
}

// DayAvailable reports whether day-of-month d in the given month can
// be selected: not before the reference date and not a weekend.
func (c *Calendar) DayAvailable(month time.Time, d int) bool {
	if d < 1 || d > daysInMonth(month) {
		return false
	}
	date := time.Date(month.Year(), month.Month(), d, 0, 0, 0, 0, c.reference.Location())
	if date.Before(c.reference) {
		return false
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// DayStatus describes one cell of the month grid.
type DayStatus struct {
	Day       int  `json:"day"`
	Available bool `json:"available"`
	Today     bool `json:"today"`
}

// MonthGrid returns the availability of every day in the month.
func (c *Calendar) MonthGrid(month time.Time) []DayStatus {
	n := daysInMonth(month)
	grid := make([]DayStatus, 0, n)
	sameMonth := month.Year() == c.reference.Year() && month.Month() == c.reference.Month()
	for d := 1; d <= n; d++ {
		grid = append(grid, DayStatus{
			Day:       d,
			Available: c.DayAvailable(month, d),
			Today:     sameMonth && d == c.reference.Day(),
		})
	}
	return grid
}

// SlotStatus describes one bookable time on a selected day.
type SlotStatus struct {
	Time    string `json:"time"`
	Blocked bool   `json:"blocked"`
}

// DaySlots returns the fixed slot list annotated with blocked state.
func (c *Calendar) DaySlots() []SlotStatus {
	times := catalog.TimeSlots()
	out := make([]SlotStatus, 0, len(times))
	for _, t := range times {
		out = append(out, SlotStatus{Time: t, Blocked: catalog.SlotBlocked(t)})
	}
	return out
}

func daysInMonth(month time.Time) int {
	return time.Date(month.Year(), month.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// slotClock parses a display slot like "2:30 PM" into hour/minute.
func slotClock(slot string) (hour, minute int, err error) {
	t, err := time.Parse("3:04 PM", slot)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
