// Package calendar implements the TradingCalendar contract and the Timer
// scheduler bound to it.
package calendar

import "time"

// Calendar maps a date to its trading session and answers last-day queries
// used by the resampler's week/month/year boundary detection.
type Calendar interface {
	// NextSession returns the open/close instants (UTC) of the next trading
	// session on or after dt.
	NextSession(dt time.Time) (open, close time.Time)
	// IsLastDayOf reports whether d is the last trading day of its week,
	// month, or year.
	IsLastDayOf(unit Unit, d time.Time) bool
}

// Unit is a calendar period granularity.
type Unit int

const (
	UnitWeek Unit = iota
	UnitMonth
	UnitYear
)

// WeekendCalendar is the default implementation: a weekends + fixed
// holiday-date mask, no external schedule required.
type WeekendCalendar struct {
	Holidays    map[string]bool // "2024-01-01" style keys, UTC
	SessionOpen time.Duration   // offset from midnight UTC
	SessionClose time.Duration
}

// NewWeekendCalendar returns a calendar with a standard 00:00-23:59:59
// session and no holidays, ready to have holidays added.
func NewWeekendCalendar() *WeekendCalendar {
	return &WeekendCalendar{
		Holidays:     map[string]bool{},
		SessionOpen:  0,
		SessionClose: 24*time.Hour - time.Second,
	}
}

func (w *WeekendCalendar) isTradingDay(d time.Time) bool {
	d = d.UTC()
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false
	}
	return !w.Holidays[d.Format("2006-01-02")]
}

func (w *WeekendCalendar) NextSession(dt time.Time) (time.Time, time.Time) {
	d := dt.UTC()
	for i := 0; i < 14; i++ {
		if w.isTradingDay(d) {
			midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			return midnight.Add(w.SessionOpen), midnight.Add(w.SessionClose)
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, time.Time{}
}

func (w *WeekendCalendar) IsLastDayOf(unit Unit, d time.Time) bool {
	d = d.UTC()
	if !w.isTradingDay(d) {
		return false
	}
	next := d.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ {
		if w.isTradingDay(next) {
			break
		}
		next = next.AddDate(0, 0, 1)
	}
	switch unit {
	case UnitWeek:
		return isoWeek(next) != isoWeek(d)
	case UnitMonth:
		return next.Month() != d.Month()
	case UnitYear:
		return next.Year() != d.Year()
	}
	return false
}

func isoWeek(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// ScheduleEntry is one externally supplied session record.
type ScheduleEntry struct {
	Date  time.Time // day, UTC midnight
	Open  time.Time
	Close time.Time
}

// ScheduleCalendar wraps an externally supplied schedule (e.g. loaded from
// an exchange calendar feed) instead of deriving sessions from a weekend
// mask, per spec §4.4's "second implementation".
type ScheduleCalendar struct {
	byDate map[string]ScheduleEntry
	days   []string // sorted "2006-01-02" keys
}

// NewScheduleCalendar builds a calendar from an explicit list of sessions.
func NewScheduleCalendar(entries []ScheduleEntry) *ScheduleCalendar {
	c := &ScheduleCalendar{byDate: map[string]ScheduleEntry{}}
	for _, e := range entries {
		key := e.Date.UTC().Format("2006-01-02")
		c.byDate[key] = e
		c.days = append(c.days, key)
	}
	return c
}

func (s *ScheduleCalendar) NextSession(dt time.Time) (time.Time, time.Time) {
	d := dt.UTC()
	for i := 0; i < 400; i++ {
		key := d.Format("2006-01-02")
		if e, ok := s.byDate[key]; ok {
			return e.Open, e.Close
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, time.Time{}
}

func (s *ScheduleCalendar) IsLastDayOf(unit Unit, d time.Time) bool {
	key := d.UTC().Format("2006-01-02")
	idx := -1
	for i, k := range s.days {
		if k == key {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(s.days) {
		return true
	}
	next, _ := time.Parse("2006-01-02", s.days[idx+1])
	switch unit {
	case UnitWeek:
		return isoWeek(next) != isoWeek(d)
	case UnitMonth:
		return next.Month() != d.UTC().Month()
	case UnitYear:
		return next.Year() != d.UTC().Year()
	}
	return false
}
