package period

import (
	"testing"
	"time"

	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestAtRespectsCutoverHour(t *testing.T) {
	r := NewResolver(clock.SystemClock{}, 6)

	beforeCutover := time.Date(2026, 3, 10, 3, 15, 0, 0, time.UTC)
	assert.Equal(t, Key("2026-03-09"), r.At(beforeCutover))

	afterCutover := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, Key("2026-03-10"), r.At(afterCutover))

	lateNight := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, Key("2026-03-10"), r.At(lateNight))
}

func TestAtMidnightCutoverMatchesCalendarDay(t *testing.T) {
	r := NewResolver(clock.SystemClock{}, 0)
	assert.Equal(t, Key("2026-03-10"), r.At(time.Date(2026, 3, 10, 0, 0, 1, 0, time.UTC)))
}

func TestCurrentUsesInjectedClock(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))
	r := NewResolver(fake, 4)
	assert.Equal(t, Key("2026-03-09"), r.Current())

	fake.Advance(3 * time.Hour)
	assert.Equal(t, Key("2026-03-10"), r.Current())
}

func TestWeekdayGroupRotation(t *testing.T) {
	// 2026-03-09 is a Monday.
	fake := clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	r := NewResolver(fake, 0)
	assert.Equal(t, "group_one", r.WeekdayGroup())

	fake.Advance(24 * time.Hour)
	assert.Equal(t, "group_two", r.WeekdayGroup())

	fake.Advance(24 * time.Hour)
	assert.Equal(t, "group_three", r.WeekdayGroup())
}
