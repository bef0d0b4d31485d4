package resample

import (
	"time"

	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/chidi150c/backtrader/internal/metrics"
)

// Replayer aggregates input bars the same way Resampler does, but lets the
// strategy observe the partially built higher-tf bar on every underlying
// tick — spec §4.3 point 3's "Replayer" branch, as opposed to Resampler's
// once-per-completed-bar delivery. Each tick queues a copy of the
// in-progress bar on the feed's stack, so every update is delivered as a
// separate bar; bars already delivered for the same window are not
// rewritten in place.
type Replayer struct {
	cfg Config
	st  state
}

// NewReplayer returns a Replayer with no bar open yet.
func NewReplayer(cfg Config) *Replayer {
	return &Replayer{cfg: cfg, st: state{firstBar: true}}
}

// Apply implements feed.Filter. It always consumes the raw bar and instead
// pushes the feed's rewritten current bar via AddToStack on every tick,
// whether the window just closed or is still building.
func (r *Replayer) Apply(f *feed.Feed, bar *feed.Bar) bool {
	in := *bar
	helper := &Resampler{cfg: r.cfg, st: r.st}

	if r.st.firstBar {
		r.st.bar = feed.NewOpenBar(in)
		r.st.compCount = 1
		r.st.firstBar = false
		f.AddToStack(r.st.bar)
		return true
	}

	onEdge := helper.onEdge(in.Datetime)
	barOver := helper.barOver(in)

	if (r.cfg.Bar2Edge && onEdge) || barOver {
		final := r.st.bar
		if r.cfg.AdjBarTime {
			final.Datetime = helper.boundaryEnd(final.Datetime)
		}
		f.AddToStack(final)
		metrics.IncResampleEmit(f.Name)
		r.st.bar = feed.NewOpenBar(in)
		r.st.compCount = 1
		f.AddToStack(r.st.bar)
		return true
	}

	r.st.bar.Update(in)
	f.AddToStack(r.st.bar)
	return true
}

// CloseAtEOS implements feed.EOSCloser: it pushes the in-progress bar's
// final state one last time once the producer reaches end-of-stream, so
// the last rewrite reflects the complete window instead of being left
// mid-build (spec §4.3 point 4).
func (r *Replayer) CloseAtEOS(f *feed.Feed) bool {
	if r.st.firstBar {
		return false
	}
	final := r.st.bar
	f.AddToStack(final)
	r.st.firstBar = true
	return true
}

// SetNextEOS arms the wall-clock deadline used by CheckForceClose, mirroring
// Resampler.SetNextEOS.
func (r *Replayer) SetNextEOS(t time.Time) { r.st.nextEOS = t }

// CheckForceClose allows a wall-clock-driven close on a live feed, mirroring
// Resampler.CheckForceClose.
func (r *Replayer) CheckForceClose(f *feed.Feed, now time.Time) bool {
	if r.st.firstBar {
		return false
	}
	if !r.st.nextEOS.IsZero() && !now.Before(r.st.nextEOS) {
		final := r.st.bar
		f.AddToStack(final)
		r.st.firstBar = true
		return true
	}
	return false
}
