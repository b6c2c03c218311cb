// Package cycle computes personalized billing cycle boundaries anchored
// to a user's registration date.
package cycle

import "time"

// Start returns the beginning of the billing cycle containing now for a
// user registered at registeredAt. The cycle is anchored to the
// registration day-of-month: if day(now) >= day(registeredAt) the cycle
// began this month, otherwise last month. When the anchor day overflows
// the target month it is clamped to that month's last day.
//
// A zero registeredAt falls back to calendar-month boundaries. Callers
// must treat that as a degraded default, not an error.
func Start(registeredAt, now time.Time) time.Time {
	now = now.UTC()
	anchor := anchorDay(registeredAt)

	year, month := now.Year(), now.Month()
	if now.Day() < anchor {
		month--
		if month < time.January {
			month = time.December
			year--
		}
	}
	return time.Date(year, month, clampDay(year, month, anchor), 0, 0, 0, 0, time.UTC)
}

// NextReset returns the first instant of the next cycle: the cycle start
// advanced by one month, with the clamping rule applied independently.
func NextReset(registeredAt, now time.Time) time.Time {
	return addMonthClamped(Start(registeredAt, now))
}

// Window returns both boundaries of the current cycle in one call so
// callers never re-derive the anchor arithmetic themselves.
func Window(registeredAt, now time.Time) (start, nextReset time.Time) {
	start = Start(registeredAt, now)
	return start, addMonthClamped(start)
}

func anchorDay(registeredAt time.Time) int {
	if registeredAt.IsZero() {
		return 1
	}
	return registeredAt.UTC().Day()
}

// addMonthClamped advances exactly one calendar month, clamping to the
// last day of the target month. time.AddDate is deliberately avoided for
// the day component because it normalizes overflow (Jan 31 + 1 month
// becomes Mar 2/3), which would drift cycle boundaries.
func addMonthClamped(t time.Time) time.Time {
	year, month := t.Year(), t.Month()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	return time.Date(year, month, clampDay(year, month, t.Day()), 0, 0, 0, 0, time.UTC)
}

func clampDay(year int, month time.Month, day int) int {
	if last := daysIn(year, month); day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
