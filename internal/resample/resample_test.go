package resample

import (
	"testing"
	"time"

	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/stretchr/testify/require"
)

func minuteBar(base time.Time, offsetMin int, o, h, l, c, v float64) feed.Bar {
	return feed.Bar{
		Datetime: base.Add(time.Duration(offsetMin) * time.Minute),
		Open:     o, High: h, Low: l, Close: c, Volume: v,
	}
}

// Scenario D — resample 1-minute bars into 5-minute bars, rightedge timestamp.
func TestScenarioDResample1MinTo5Min(t *testing.T) {
	cfg := DefaultConfig(Minutes, 5)
	r := NewResampler(cfg)

	f := feed.NewFeed("5min", nil)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC) // on a 5-min boundary

	bars := []feed.Bar{
		minuteBar(base, 0, 10, 11, 9, 10.5, 100),
		minuteBar(base, 1, 10.5, 12, 10, 11, 100),
		minuteBar(base, 2, 11, 13, 10.5, 12, 100),
		minuteBar(base, 3, 12, 12.5, 11, 11.5, 100),
		minuteBar(base, 4, 11.5, 12, 11, 11.8, 100),
		minuteBar(base, 5, 11.8, 12, 11.5, 11.9, 100), // triggers close of first window
	}

	for i := range bars {
		r.Apply(f, &bars[i])
	}

	require.Equal(t, 1, r.Emits())
	require.Len(t, f.Peek(), 1)

	out := f.Peek()[0]
	require.Equal(t, 10.0, out.Open)
	require.Equal(t, 13.0, out.High)
	require.Equal(t, 9.0, out.Low)
	require.Equal(t, 11.8, out.Close)
	require.Equal(t, 500.0, out.Volume)
	require.Equal(t, base.Add(5*time.Minute), out.Datetime)
}

// Determinism: feeding the same bar sequence twice through two independently
// constructed Resamplers with identical config yields identical emitted bars.
func TestResamplerIsDeterministic(t *testing.T) {
	cfg := DefaultConfig(Minutes, 5)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	bars := []feed.Bar{
		minuteBar(base, 0, 10, 11, 9, 10.5, 100),
		minuteBar(base, 1, 10.5, 12, 10, 11, 100),
		minuteBar(base, 2, 11, 13, 10.5, 12, 100),
		minuteBar(base, 3, 12, 12.5, 11, 11.5, 100),
		minuteBar(base, 4, 11.5, 12, 11, 11.8, 100),
		minuteBar(base, 5, 11.8, 12, 11.5, 11.9, 100),
	}

	run := func() feed.Bar {
		f := feed.NewFeed("5min", nil)
		r := NewResampler(cfg)
		local := append([]feed.Bar(nil), bars...)
		for i := range local {
			r.Apply(f, &local[i])
		}
		return f.Peek()[0]
	}

	a := run()
	b := run()
	require.Equal(t, a, b)
}

// Boundary alignment: a bar landing exactly on a 5-minute edge closes the
// window at that bar rather than waiting for the next one.
func TestResamplerBoundaryAlignment(t *testing.T) {
	cfg := DefaultConfig(Minutes, 5)
	r := NewResampler(cfg)
	f := feed.NewFeed("5min", nil)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	bars := []feed.Bar{
		minuteBar(base, 4, 10, 11, 9, 10.5, 10),
		minuteBar(base, 5, 11, 12, 10, 11.5, 10), // exact edge: new window starts here
		minuteBar(base, 9, 12, 13, 11, 12.5, 10),
		minuteBar(base, 10, 13, 14, 12, 13.5, 10), // closes second window
	}
	for i := range bars {
		r.Apply(f, &bars[i])
	}
	// offset4 opens a window, offset5 lands exactly on the next edge and
	// closes it immediately (alignment, not waiting for a bucket change),
	// offset9 continues the new window, offset10 closes it in turn.
	require.Equal(t, 2, r.Emits())
}

// Testable Scenario D (full): 10 one-minute bars resampled into 5-minute
// bars emit only 1 bar naturally (the window closing on the 09:35 edge);
// the second window (09:35-09:39) is still open when the data ends and
// only appears once CloseAtEOS force-flushes it, per spec §4.3 point 4.
func TestScenarioDResample10BarsForceClosesFinalWindowAtEOS(t *testing.T) {
	cfg := DefaultConfig(Minutes, 5)
	r := NewResampler(cfg)
	f := feed.NewFeed("5min", nil)
	base := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

	bars := make([]feed.Bar, 10)
	for i := 0; i < 10; i++ {
		bars[i] = minuteBar(base, i, 10+float64(i), 11+float64(i), 9+float64(i), 10.5+float64(i), 100)
	}
	for i := range bars {
		r.Apply(f, &bars[i])
	}
	require.Equal(t, 1, r.Emits(), "only the 09:35 edge closes a window on its own")

	require.True(t, r.CloseAtEOS(f), "end-of-stream must force-close the still-open second window")
	require.Equal(t, 2, r.Emits())

	emitted := f.Peek()
	require.Len(t, emitted, 2)
	require.Equal(t, base.Add(5*time.Minute), emitted[0].Datetime)  // 09:35
	require.Equal(t, base.Add(10*time.Minute), emitted[1].Datetime) // 09:40

	require.False(t, r.CloseAtEOS(f), "a second EOS call with nothing open is a no-op")
}

// feedEOSProducer serves a fixed bar sequence then signals End, exercising
// Feed.Load's end-of-stream filter flush directly rather than driving the
// Resampler's Apply in isolation.
type feedEOSProducer struct {
	bars []feed.Bar
	pos  int
}

func (p *feedEOSProducer) Start() error { return nil }
func (p *feedEOSProducer) Stop() error  { return nil }
func (p *feedEOSProducer) IsLive() bool { return false }
func (p *feedEOSProducer) GetNotifications() []feed.Notification { return nil }
func (p *feedEOSProducer) Load() (feed.LoadResult, error) {
	if p.pos >= len(p.bars) {
		return feed.LoadResult{End: true}, nil
	}
	b := p.bars[p.pos]
	p.pos++
	return feed.LoadResult{Bar: b, HasBar: true}, nil
}

func TestFeedLoadForceClosesResamplerWindowAtEndOfStream(t *testing.T) {
	cfg := DefaultConfig(Minutes, 5)
	r := NewResampler(cfg)
	base := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

	bars := make([]feed.Bar, 7)
	for i := 0; i < 7; i++ {
		bars[i] = minuteBar(base, i, 10+float64(i), 11+float64(i), 9+float64(i), 10.5+float64(i), 100)
	}

	f := feed.NewFeed("5min", &feedEOSProducer{bars: bars})
	f.AddFilter(r)

	require.NoError(t, f.Preload())
	require.Equal(t, 2, r.Emits(), "the open second window must be force-closed by end-of-stream, not dropped")
}

func TestReplayerQueuesEachUpdateOfOpenBar(t *testing.T) {
	cfg := DefaultConfig(Minutes, 5)
	r := NewReplayer(cfg)
	f := feed.NewFeed("5min", nil)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	bars := []feed.Bar{
		minuteBar(base, 0, 10, 11, 9, 10.5, 100),
		minuteBar(base, 1, 10.5, 12, 10, 11, 100),
	}
	for i := range bars {
		require.True(t, r.Apply(f, &bars[i]))
	}
	require.Len(t, f.Peek(), 2) // both the opening bar and its first rewrite were queued
	last := f.Peek()[len(f.Peek())-1]
	require.Equal(t, 12.0, last.High)
	require.Equal(t, 11.0, last.Close)
}

// CloseAtEOS must push the in-progress rewrite one final time so the last
// bar a replay consumer sees reflects the complete window.
func TestReplayerCloseAtEOSFlushesFinalRewrite(t *testing.T) {
	cfg := DefaultConfig(Minutes, 5)
	r := NewReplayer(cfg)
	f := feed.NewFeed("5min", nil)
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	bars := []feed.Bar{
		minuteBar(base, 0, 10, 11, 9, 10.5, 100),
		minuteBar(base, 1, 10.5, 12, 10, 11, 100),
	}
	for i := range bars {
		r.Apply(f, &bars[i])
	}

	require.True(t, r.CloseAtEOS(f))
	queued := f.Peek()
	last := queued[len(queued)-1]
	require.Equal(t, 12.0, last.High)
	require.Equal(t, 11.0, last.Close)

	require.False(t, r.CloseAtEOS(f), "a second EOS call with nothing open is a no-op")
}
