package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/chidi150c/backtrader/internal/linetime"
	"github.com/chidi150c/backtrader/internal/strategy"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `time,open,high,low,close,volume
2024-01-01T00:00:00Z,10,11,9,10.5,100
2024-01-01T00:01:00Z,10.5,12,10,11,100
2024-01-01T00:02:00Z,11,13,10.5,12,100
2024-01-01T00:03:00Z,12,12.5,11,11.5,100
`

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))
	return path
}

// buyOnceStrategy buys one unit on its first Next call, exercising the
// engine's order-construction-to-broker-to-notification path end to end.
type buyOnceStrategy struct {
	*strategy.Base
	dataRef string
	bought  bool
	orders  []string
}

func (s *buyOnceStrategy) Next() {
	if !s.bought {
		s.Buy(s.dataRef, 1, 0, 0, broker.Market, time.Time{})
		s.bought = true
	}
}

func (s *buyOnceStrategy) NotifyOrder(o *broker.Order) {
	if o != nil {
		s.orders = append(s.orders, o.Status.String())
	}
}

func TestVectorizedRunFillsOrderAndMarksValue(t *testing.T) {
	path := writeSampleCSV(t)
	prod, err := feed.NewCSVProducer(path)
	require.NoError(t, err)
	f := feed.NewFeed("BTC-USD", prod)

	b := broker.New(10000)
	b.SetCommission("BTC-USD", broker.CommissionScheme{})

	e := New(DefaultConfig(), b)
	e.AddData("BTC-USD", f)

	strat := &buyOnceStrategy{Base: strategy.NewBase("strat1", b), dataRef: "BTC-USD"}
	e.AddStrategy(strat)

	require.NoError(t, e.Run(context.Background()))

	require.True(t, strat.bought)
	require.Contains(t, strat.orders, "Completed")

	pos := b.GetPosition("BTC-USD")
	require.Equal(t, 1.0, pos.Size)
	require.InDelta(t, 10000.0-10.5+11.5, b.GetValue(), 1e-9)
}

// slowLiveProducer yields exactly one bar after a delay, then blocks
// forever on every subsequent Load — exercising collectNext's bounded
// per-feed timeout in live mode.
type slowLiveProducer struct {
	delay  time.Duration
	bar    feed.Bar
	served bool
}

func (p *slowLiveProducer) Start() error { return nil }
func (p *slowLiveProducer) Stop() error  { return nil }
func (p *slowLiveProducer) IsLive() bool { return true }
func (p *slowLiveProducer) GetNotifications() []feed.Notification { return nil }

func (p *slowLiveProducer) Load() (feed.LoadResult, error) {
	if !p.served {
		p.served = true
		time.Sleep(p.delay)
		return feed.LoadResult{Bar: p.bar, HasBar: true}, nil
	}
	select {} // block forever, simulating a stalled live connection
}

func TestCollectNextBoundsStalledLiveFeed(t *testing.T) {
	prod := &slowLiveProducer{
		delay: 10 * time.Millisecond,
		bar:   feed.Bar{Datetime: time.Now(), Open: 1, High: 1, Low: 1, Close: 1},
	}
	f := feed.NewFeed("SLOW", prod)

	b := broker.New(1000)
	e := New(Config{Live: true, LiveTimeout: 50 * time.Millisecond}, b)
	e.AddData("SLOW", f)

	dts, err := e.collectNext(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, 0.0, dts["SLOW"]) // first call returns the real bar's datetime

	dts, err = e.collectNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, linetime.None, dts["SLOW"]) // second call stalls past LiveTimeout, treated as idle
}

func TestRunStopCancelsEventDrivenLoop(t *testing.T) {
	path := writeSampleCSV(t)
	prod, err := feed.NewCSVProducer(path)
	require.NoError(t, err)
	f := feed.NewFeed("BTC-USD", prod)

	b := broker.New(10000)
	e := New(Config{Preload: false, Runonce: false}, b)
	e.AddData("BTC-USD", f)

	e.RunStop()
	require.NoError(t, e.Run(context.Background())) // stopping flag short-circuits before any bar is processed
	require.Equal(t, 0.0, b.GetPosition("BTC-USD").Size)
}
