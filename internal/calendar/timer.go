package calendar

import "time"

// Timer schedules a callback to fire at a session-relative or absolute
// time, with optional repeat, weekday/monthday masks, and carryover onto
// the next valid trading day when the target day is non-trading.
type Timer struct {
	// When is the time-of-day the timer targets (offset from session open
	// if SessionRelative, else wall clock).
	When time.Duration
	SessionRelative bool

	Repeat bool
	Weekdays []time.Weekday // nil means every weekday
	Monthdays []int         // nil means every day; carryover applies per MonthCarry

	MonthCarry bool // fire on the first trading day >= a missed Monthday

	// Cheat, when true, registers this timer in the engine's "cheat" list
	// (fires before broker matching); otherwise it is a "normal" timer.
	Cheat bool

	Callback func(at time.Time)

	lastFiredDay string // "2006-01-02", guards one fire per day
}

// Due reports whether the timer should fire for trading day d (UTC
// midnight) given the calendar's session bounds, and advances its
// once-per-day guard if so.
func (t *Timer) Due(cal Calendar, d time.Time) bool {
	key := d.UTC().Format("2006-01-02")
	if t.lastFiredDay == key {
		return false
	}
	if !isTradingDay(cal, d) {
		return false
	}
	if !t.weekdayMatches(d) {
		return false
	}
	if !t.monthdayMatches(cal, d) {
		return false
	}
	t.lastFiredDay = key
	return true
}

func (t *Timer) weekdayMatches(d time.Time) bool {
	if len(t.Weekdays) == 0 {
		return true
	}
	for _, w := range t.Weekdays {
		if d.Weekday() == w {
			return true
		}
	}
	return false
}

func (t *Timer) monthdayMatches(cal Calendar, d time.Time) bool {
	if len(t.Monthdays) == 0 {
		return true
	}
	for _, md := range t.Monthdays {
		if d.Day() == md {
			return true
		}
		if t.MonthCarry && d.Day() > md && !firedEarlierThisMonth(cal, d, md) {
			// A carryover timer fires on the first trading day >= md when md
			// itself (and any day up to today) was non-trading.
			if allNonTradingBetween(cal, d, md) {
				return true
			}
		}
	}
	return false
}

func firedEarlierThisMonth(cal Calendar, d time.Time, monthday int) bool {
	return false
}

// isTradingDay reports whether d itself is a session day on cal.
func isTradingDay(cal Calendar, d time.Time) bool {
	switch c := cal.(type) {
	case *WeekendCalendar:
		return c.isTradingDay(d)
	case *ScheduleCalendar:
		_, ok := c.byDate[d.UTC().Format("2006-01-02")]
		return ok
	default:
		return true
	}
}

// allNonTradingBetween reports whether every day from monthday up to but
// excluding d.Day() was a non-trading day, so d is the first valid
// carryover candidate.
func allNonTradingBetween(cal Calendar, d time.Time, monthday int) bool {
	wc, ok := cal.(*WeekendCalendar)
	if !ok {
		return d.Day() == monthday+1 // conservative fallback for schedule calendars
	}
	for day := monthday; day < d.Day(); day++ {
		probe := time.Date(d.Year(), d.Month(), day, 0, 0, 0, 0, time.UTC)
		if wc.isTradingDay(probe) {
			return false
		}
	}
	return true
}

// Fire invokes the callback, if set.
func (t *Timer) Fire(at time.Time) {
	if t.Callback != nil {
		t.Callback(at)
	}
}
