package feed

import (
	"time"

	"github.com/chidi150c/backtrader/internal/linetime"
	"github.com/chidi150c/backtrader/internal/lineseries"
)

// Standard line indices, fixed for every DataFeed.
const (
	LineDatetime = iota
	LineOpen
	LineHigh
	LineLow
	LineClose
	LineVolume
	LineOpenInterest
	numStandardLines
)

// Producer is the external contract a concrete feed adapter (CSV, exchange
// websocket, ...) must implement. The core only ever talks to a feed
// through this interface plus the Feed wrapper below.
type Producer interface {
	Start() error
	Stop() error
	Load() (LoadResult, error)
	IsLive() bool
	GetNotifications() []Notification
}

// Filter is invoked after a successful load. Returning true means the bar
// was consumed (removed from the stream) — used by resamplers/replayers.
type Filter interface {
	Apply(f *Feed, bar *Bar) (consumed bool)
}

// EOSCloser is an optional Filter capability: a filter holding an
// in-progress aggregation window (a resampler/replayer) implements it to
// flush that window once the underlying producer reaches End, per spec
// §4.3 point 4. Apply is never called again once producer End is seen, so
// without this hook the final partial window would never reach the stack.
type EOSCloser interface {
	CloseAtEOS(f *Feed) (consumed bool)
}

// LiveForceCloser is an optional Filter capability for a live feed that has
// gone quiet near a session boundary: the filter decides, given wall-clock
// time, whether its in-progress window should be flushed without waiting
// for another tick (spec §4.3 point 5).
type LiveForceCloser interface {
	CheckForceClose(f *Feed, now time.Time) (consumed bool)
}

// ForceClose gives every filter implementing LiveForceCloser a chance to
// flush its in-progress window. Called by the engine's live loop when a
// feed's Next() stalls past its timeout.
func (f *Feed) ForceClose(now time.Time) bool {
	flushed := false
	for _, filt := range f.filters {
		if fc, ok := filt.(LiveForceCloser); ok && fc.CheckForceClose(f, now) {
			flushed = true
		}
	}
	return flushed
}

// Feed is a DataFeed: a LineSeries with the seven standard OHLCV lines plus
// lifecycle/session/filter-chain state.
type Feed struct {
	*lineseries.Series

	Name string

	producer Producer
	state    State

	FromDate time.Time
	ToDate   time.Time
	Timezone *time.Location

	SessionStart time.Duration // offset from midnight
	SessionEnd   time.Duration

	TakeLate bool // if false, bars with dt <= previous dt are dropped

	filters []Filter

	// stack/stash hold synthetic bars queued by filters (resamplers) for
	// delivery on subsequent Next() calls, per spec §4.2.
	stack []Bar
	stash []Bar

	lastDatetime float64
	notifications []Notification

	eosForced bool // true once the filter chain's end-of-stream flush has run
}

// NewFeed wires a Producer into a Feed with the seven standard lines.
func NewFeed(name string, producer Producer) *Feed {
	s := lineseries.NewSeries(lineseries.ModeFull)
	s.AddLine("datetime")
	s.AddLine("open")
	s.AddLine("high")
	s.AddLine("low")
	s.AddLine("close")
	s.AddLine("volume")
	s.AddLine("openinterest")
	return &Feed{
		Series:       s,
		Name:         name,
		producer:     producer,
		state:        StateCreated,
		Timezone:     time.UTC,
		lastDatetime: linetime.None,
	}
}

// State returns the feed's current lifecycle state.
func (f *Feed) State() State { return f.state }

// AddFilter appends a filter to the end of the chain.
func (f *Feed) AddFilter(filt Filter) { f.filters = append(f.filters, filt) }

// Start transitions Created -> Started -> Connected and starts the producer.
func (f *Feed) Start() error {
	if err := f.producer.Start(); err != nil {
		return err
	}
	f.state = StateStarted
	f.state = StateConnected
	return nil
}

// Stop transitions to Stopped and stops the producer.
func (f *Feed) Stop() error {
	f.state = StateStopped
	return f.producer.Stop()
}

// AddToStack queues a synthetic bar to be delivered on a subsequent Load(),
// ahead of the producer's own next bar.
func (f *Feed) AddToStack(b Bar) { f.stack = append(f.stack, b) }

// Peek returns a snapshot of the bars currently queued on the stack, without
// consuming them. Used by filters (resamplers/replayers) and their tests to
// inspect emitted bars without driving a full Producer-backed Load().
func (f *Feed) Peek() []Bar {
	out := make([]Bar, len(f.stack))
	copy(out, f.stack)
	return out
}

// AddToStash queues a synthetic bar behind the stack, delivered only once
// the stack is empty.
func (f *Feed) AddToStash(b Bar) { f.stash = append(f.stash, b) }

// Load returns the next bar, preferring queued stack/stash bars over the
// producer. Stack bars are delivered as they are; stash and producer bars
// pass the date filters, the late-bar check and the filter chain. Returns
// (false, false, nil) for "no data yet" and (false, true, nil) for End of
// stream.
func (f *Feed) Load() (ok bool, end bool, err error) {
	for {
		var bar Bar
		var haveBar bool

		switch {
		case len(f.stack) > 0:
			b := f.stack[0]
			f.stack = f.stack[1:]
			f.writeBar(b)
			return true, false, nil
		case len(f.stash) > 0:
			bar = f.stash[0]
			f.stash = f.stash[1:]
			haveBar = true
		default:
			res, loadErr := f.producer.Load()
			if loadErr != nil {
				return false, false, loadErr
			}
			if res.End {
				if !f.eosForced && f.flushFiltersAtEOS() {
					continue
				}
				return false, true, nil
			}
			if !res.HasBar {
				return false, false, nil
			}
			bar = res.Bar
			haveBar = true
		}
		if !haveBar {
			return false, false, nil
		}

		dt := linetime.Encode(bar.Datetime)
		if !f.applyDateFilters(bar.Datetime) {
			continue
		}
		if f.lastDatetime != linetime.None && !linetime.Before(f.lastDatetime, dt) && !f.TakeLate {
			// clock skew: bar is not strictly newer than the previous one.
			continue
		}
		f.lastDatetime = dt

		consumed := false
		for _, filt := range f.filters {
			if filt.Apply(f, &bar) {
				consumed = true
			}
		}
		if consumed {
			continue
		}

		f.writeBar(bar)
		return true, false, nil
	}
}

// flushFiltersAtEOS gives every filter implementing EOSCloser one chance to
// push its in-progress window onto the stack once the producer reports End.
// It runs at most once per feed.
func (f *Feed) flushFiltersAtEOS() bool {
	f.eosForced = true
	flushed := false
	for _, filt := range f.filters {
		if ec, ok := filt.(EOSCloser); ok && ec.CloseAtEOS(f) {
			flushed = true
		}
	}
	return flushed
}

func (f *Feed) applyDateFilters(t time.Time) bool {
	if !f.FromDate.IsZero() && t.Before(f.FromDate) {
		return false
	}
	if !f.ToDate.IsZero() && t.After(f.ToDate) {
		return false
	}
	return true
}

func (f *Feed) writeBar(b Bar) {
	f.Forward(1)
	f.Line(LineDatetime).Set(0, linetime.Encode(b.Datetime))
	f.Line(LineOpen).Set(0, b.Open)
	f.Line(LineHigh).Set(0, b.High)
	f.Line(LineLow).Set(0, b.Low)
	f.Line(LineClose).Set(0, b.Close)
	f.Line(LineVolume).Set(0, b.Volume)
	f.Line(LineOpenInterest).Set(0, b.OpenInterest)
}

// Next pulls the next bar (via Load) or consumes a queued bar. If master is
// non-nil, it compares timestamps and rewinds this feed if its datetime is
// ahead of master's, so only feeds aligned at the minimum datetime deliver
// a bar this tick. Returns the numeric datetime delivered, or linetime.Max
// at end of stream.
func (f *Feed) Next(master *Feed) (float64, error) {
	ok, end, err := f.Load()
	if err != nil {
		return 0, err
	}
	if end {
		return linetime.Max, nil
	}
	if !ok {
		return linetime.None, nil
	}
	dt := f.Line(LineDatetime).Get(0)
	if master != nil {
		mdt := master.Line(LineDatetime).Get(0)
		if linetime.Before(mdt, dt) {
			f.Rewind(1)
			return dt, nil
		}
	}
	return dt, nil
}

// Preload loops Load() until End, then resets the pointer Home so replay
// can start from the beginning in vectorized mode.
func (f *Feed) Preload() error {
	for {
		_, end, err := f.Load()
		if err != nil {
			return err
		}
		if end {
			break
		}
	}
	f.Home()
	return nil
}

// DrainNotifications returns and clears the producer's pending notification
// queue.
func (f *Feed) DrainNotifications() []Notification {
	ns := f.producer.GetNotifications()
	return ns
}

// IsLive reports whether the underlying producer is a live feed; the
// engine disables preload/vectorized modes when this is true.
func (f *Feed) IsLive() bool { return f.producer.IsLive() }
