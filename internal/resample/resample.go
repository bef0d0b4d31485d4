// Package resample implements the Resampler/Replayer state machine: a
// filter that sits on a feed and aggregates bars into a larger timeframe.
package resample

import (
	"time"

	"github.com/chidi150c/backtrader/internal/calendar"
	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/chidi150c/backtrader/internal/metrics"
)

// Timeframe is the aggregation unit.
type Timeframe int

const (
	Minutes Timeframe = iota
	Days
	Weeks
	Months
	Years
)

// Config controls boundary-alignment behavior, per spec §4.3.
type Config struct {
	Timeframe   Timeframe
	Compression int

	// Bar2Edge closes a bar at the timeframe boundary rather than after a
	// fixed count of inputs (default true).
	Bar2Edge bool
	// RightEdge timestamps the emitted bar at the boundary end rather than
	// the start (default true). It takes effect together with AdjBarTime,
	// for the Minutes timeframe.
	RightEdge bool
	// AdjBarTime sets the emitted timestamp to the boundary exactly
	// (default true).
	AdjBarTime bool

	Calendar calendar.Calendar
}

// DefaultConfig returns the spec's defaults: bar2edge, rightedge, and
// adjbartime all true.
func DefaultConfig(tf Timeframe, compression int) Config {
	return Config{
		Timeframe:   tf,
		Compression: compression,
		Bar2Edge:    true,
		RightEdge:   true,
		AdjBarTime:  true,
		Calendar:    calendar.NewWeekendCalendar(),
	}
}

// state is the resampler's working bar-in-progress, per spec §3's
// "Resampler state" type.
type state struct {
	bar         feed.Bar
	compCount   int
	firstBar    bool
	nextEOS     time.Time
	lastDelivered time.Time
}

// Resampler aggregates input bars into the larger timeframe, emitting a bar
// on the stack only when a boundary is crossed — the current input is then
// removed from the stream and a new bar opened (spec §4.3 point 3,
// Resampler branch).
type Resampler struct {
	cfg   Config
	st    state
	emits int
}

// NewResampler returns a Resampler with st.firstBar true (no bar open yet).
func NewResampler(cfg Config) *Resampler {
	return &Resampler{cfg: cfg, st: state{firstBar: true}}
}

// Apply implements feed.Filter. It is invoked by the Feed after a
// successful load of a raw bar; returning true means the raw bar was
// consumed (queued instead of delivered raw).
func (r *Resampler) Apply(f *feed.Feed, bar *feed.Bar) bool {
	in := *bar

	if !r.st.lastDelivered.IsZero() && in.Datetime.Before(r.st.lastDelivered) {
		if !f.TakeLate {
			return true // discard the late bar entirely
		}
		in.Datetime = r.st.lastDelivered.Add(time.Nanosecond)
	}

	onEdge := r.onEdge(in.Datetime)
	barOver := r.barOver(in)

	if r.st.firstBar {
		r.open(in)
		r.st.firstBar = false
		return true // nothing to emit yet; consume the raw bar into the new state
	}

	if (r.cfg.Bar2Edge && onEdge) || barOver {
		r.closeAndEmit(f)
		r.open(in)
		return true
	}

	r.st.bar.Update(in)
	return true
}

func (r *Resampler) open(in feed.Bar) {
	r.st.bar = feed.NewOpenBar(in)
	r.st.compCount = 1
}

// closeAndEmit finalizes the in-progress bar and appends it to the feed's
// stack, behind anything already queued there, per spec §4.3's
// emission-ordering rule: the triggering input is consumed into the next
// window, so the completed higher-tf bar is delivered before any bar that
// contains that input.
func (r *Resampler) closeAndEmit(f *feed.Feed) {
	out := r.st.bar
	if r.cfg.AdjBarTime {
		out.Datetime = r.boundaryEnd(out.Datetime)
	}
	f.AddToStack(out)
	r.st.lastDelivered = out.Datetime
	r.emits++
	metrics.IncResampleEmit(f.Name)
}

// SetNextEOS arms a wall-clock deadline after which CheckForceClose will
// flush the in-progress bar even without a new tick — used on live feeds
// where the underlying producer may go quiet near a session boundary.
func (r *Resampler) SetNextEOS(t time.Time) { r.st.nextEOS = t }

// CheckForceClose allows a wall-clock-driven close on a live feed with no
// new ticks, per spec §4.3 point 5.
func (r *Resampler) CheckForceClose(f *feed.Feed, now time.Time) bool {
	if r.st.firstBar {
		return false
	}
	if !r.st.nextEOS.IsZero() && !now.Before(r.st.nextEOS) {
		r.closeAndEmit(f)
		r.st.firstBar = true
		return true
	}
	return false
}

// CloseAtEOS implements feed.EOSCloser: it flushes the in-progress
// aggregation window once the underlying producer reaches end-of-stream,
// so the final partial window isn't lost (spec §4.3 point 4, Testable
// Scenario D).
func (r *Resampler) CloseAtEOS(f *feed.Feed) bool {
	if r.st.firstBar {
		return false
	}
	r.closeAndEmit(f)
	r.st.firstBar = true
	return true
}

// onEdge reports whether t falls exactly on a timeframe boundary.
func (r *Resampler) onEdge(t time.Time) bool {
	switch r.cfg.Timeframe {
	case Minutes:
		mins := t.Hour()*60 + t.Minute()
		return mins%r.cfg.Compression == 0 && t.Second() == 0
	case Days:
		_, _, close := r.session(t)
		return !close.IsZero() && t.Equal(close)
	case Weeks:
		return r.cfg.Calendar.IsLastDayOf(calendar.UnitWeek, t)
	case Months:
		return r.cfg.Calendar.IsLastDayOf(calendar.UnitMonth, t)
	case Years:
		return r.cfg.Calendar.IsLastDayOf(calendar.UnitYear, t)
	}
	return false
}

func (r *Resampler) session(t time.Time) (time.Time, time.Time, time.Time) {
	open, close := r.cfg.Calendar.NextSession(t)
	return open, close, close
}

// barOver reports whether the in-progress aggregation window has been
// crossed by in — either an intraday boundary, a day change, or the
// compression count completing when not aligning to calendar edges.
func (r *Resampler) barOver(in feed.Bar) bool {
	if r.st.bar.Datetime.IsZero() {
		return false
	}
	switch r.cfg.Timeframe {
	case Minutes:
		curBucket := minuteBucket(r.st.bar.Datetime, r.cfg.Compression)
		newBucket := minuteBucket(in.Datetime, r.cfg.Compression)
		return newBucket != curBucket
	case Days:
		return in.Datetime.YearDay() != r.st.bar.Datetime.YearDay() || in.Datetime.Year() != r.st.bar.Datetime.Year()
	default:
		if !r.cfg.Bar2Edge {
			r.st.compCount++
			return r.st.compCount > r.cfg.Compression
		}
		return false
	}
}

func minuteBucket(t time.Time, compression int) int {
	if compression <= 0 {
		compression = 1
	}
	mins := t.Hour()*60 + t.Minute()
	return mins / compression
}

// boundaryEnd computes the exact boundary timestamp for t, used when
// AdjBarTime is set: the end of t's window when RightEdge is set, its start
// otherwise. Timeframes other than Minutes return t unchanged.
func (r *Resampler) boundaryEnd(t time.Time) time.Time {
	switch r.cfg.Timeframe {
	case Minutes:
		mins := t.Hour()*60 + t.Minute()
		bucketEnd := ((mins / r.cfg.Compression) + 1) * r.cfg.Compression
		if !r.cfg.RightEdge {
			bucketEnd -= r.cfg.Compression
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return day.Add(time.Duration(bucketEnd) * time.Minute)
	default:
		return t
	}
}

// Emits returns how many higher-tf bars have been emitted so far.
func (r *Resampler) Emits() int { return r.emits }
