package period

import (
	"time"

	"github.com/smallbiznis/lendora/internal/clock"
)

// Key identifies one daily accounting window, formatted YYYY-MM-DD.
// The window boundary is the configured cutover hour, not midnight:
// before the cutover hour the key still belongs to the previous day.
type Key string

const keyLayout = "2006-01-02"

// Weekday groups used to tag orders at creation time. Monday through
// Sunday map onto three rotating collection cohorts.
var weekdayGroups = map[time.Weekday]string{
	time.Monday:    "group_one",
	time.Tuesday:   "group_two",
	time.Wednesday: "group_three",
	time.Thursday:  "group_one",
	time.Friday:    "group_two",
	time.Saturday:  "group_three",
	time.Sunday:    "group_one",
}

// Resolver derives period keys and weekday groups from a clock.
type Resolver struct {
	clock       clock.Clock
	cutoverHour int
}

func NewResolver(c clock.Clock, cutoverHour int) *Resolver {
	if cutoverHour < 0 || cutoverHour > 23 {
		cutoverHour = 0
	}
	return &Resolver{clock: c, cutoverHour: cutoverHour}
}

// Current returns the key for the period the clock is in right now.
func (r *Resolver) Current() Key {
	return r.At(r.clock.Now())
}

// At returns the key for the period containing t.
func (r *Resolver) At(t time.Time) Key {
	t = t.UTC()
	if t.Hour() < r.cutoverHour {
		t = t.AddDate(0, 0, -1)
	}
	return Key(t.Format(keyLayout))
}

// WeekdayGroup returns the collection cohort for the clock's current weekday.
func (r *Resolver) WeekdayGroup() string {
	return weekdayGroups[r.clock.Now().Weekday()]
}
