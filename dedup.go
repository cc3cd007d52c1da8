package folio

import "github.com/etnz/folio/date"

// sameDay reports whether a signal already exists on day.
func sameDay(existing []Signal, on date.Date) bool {
	for _, s := range existing {
		if s.Date == on {
			return true
		}
	}
	return false
}

// withinLookback reports whether a threshold signal for the same
// instrument and type was raised in the lookback days ending on day.
// A later trigger inside the window is suppressed.
func withinLookback(existing []Signal, on date.Date, lookback int) bool {
	for _, s := range existing {
		if !s.Date.After(on) && on.DaysSince(s.Date) < lookback {
			return true
		}
	}
	return false
}

// withinBars reports whether a structural signal for the same instrument
// and type was raised on or after windowStart, the first day of the
// trading-day window ending on day.
func withinBars(existing []Signal, windowStart, on date.Date) bool {
	for _, s := range existing {
		if !s.Date.Before(windowStart) && !s.Date.After(on) {
			return true
		}
	}
	return false
}

// windowStart returns the date of the first bar of the window of n
// trading days ending at index i.
func windowStart(bars []Bar, i, n int) date.Date {
	j := max(i-n+1, 0)
	return bars[j].Date
}
