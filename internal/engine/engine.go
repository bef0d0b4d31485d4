// Package engine implements the Cerebro-equivalent synchronization loop:
// owns every feed, strategy, and the broker; drives vectorized
// (preload+runonce) or event-driven (next) execution, per spec §4.8.
package engine

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/chidi150c/backtrader/internal/indicator"
	"github.com/chidi150c/backtrader/internal/linetime"
	"github.com/chidi150c/backtrader/internal/metrics"
)

const defaultLiveTimeout = 2 * time.Second

// Strategy is the subset of strategy.Strategy the engine needs to drive the
// per-tick callbacks. Kept narrow here to avoid an import cycle with
// internal/strategy, which itself imports broker and feed.
type Strategy interface {
	Next()
	Start()
	Stop()
	NotifyOrder(o *broker.Order)
	NotifyTrade(t *broker.Trade)
	NotifyCashValue(cash, value float64)
	NotifyData(dataRef string, n feed.Notification)
	NotifyTimer(id int, when time.Time)
}

// CheatStrategy is implemented by strategies that want next_open callbacks
// when Config.CheatOnOpen is set.
type CheatStrategy interface {
	NextOpen()
}

// Config controls the engine's execution mode, per spec §6's CLI/config
// surface.
type Config struct {
	Preload     bool
	Runonce     bool
	Live        bool
	ExactBars   int // 0, 1, -1, -2
	StdStats    bool
	CheatOnOpen bool
	BrokerCoo   bool

	// LiveTimeout bounds how long a single live feed's blocking Next() may
	// take before that feed is treated as idle for the tick. Only consulted
	// when Live is set. Zero means the 2s default.
	LiveTimeout time.Duration
}

// DefaultConfig matches the spec's stated defaults.
func DefaultConfig() Config {
	return Config{Preload: true, Runonce: true, StdStats: true, BrokerCoo: true}
}

// dataEntry pairs a feed with the indicators riding on it, for minperiod
// tracking.
type dataEntry struct {
	ref  string
	feed *feed.Feed
}

// Engine owns datas/strategies/broker and runs the synchronization loop.
type Engine struct {
	cfg Config

	datas      []dataEntry
	strategies []Strategy
	indicators []indicator.Indicator
	bro        *broker.Broker
	logger     *log.Logger

	stopping atomic.Bool
}

// New wires an Engine around a broker with the given execution config.
func New(cfg Config, bro *broker.Broker) *Engine {
	return &Engine{cfg: cfg, bro: bro, logger: log.Default()}
}

// AddData registers a feed under dataRef; the engine becomes its sole
// owner.
func (e *Engine) AddData(dataRef string, f *feed.Feed) {
	e.datas = append(e.datas, dataEntry{ref: dataRef, feed: f})
	if f.IsLive() {
		e.cfg.Preload = false
		e.cfg.Runonce = false
		e.cfg.Live = true
	}
}

// AddStrategy registers a strategy the engine will drive.
func (e *Engine) AddStrategy(s Strategy) { e.strategies = append(e.strategies, s) }

// AddIndicator registers an indicator for master-minperiod computation.
func (e *Engine) AddIndicator(ind indicator.Indicator) { e.indicators = append(e.indicators, ind) }

// RunStop cooperatively cancels the run; checked at each step of the loop.
func (e *Engine) RunStop() { e.stopping.Store(true) }

func (e *Engine) masterMinperiod() int {
	return indicator.MasterMinperiod(e.indicators...)
}

// Run drives the engine to completion, choosing vectorized or event-driven
// execution per the configured mode, and calls every strategy's Stop() hook
// on exit (normal or canceled).
func (e *Engine) Run(ctx context.Context) error {
	defer e.stopAll()

	for _, s := range e.strategies {
		s.Start()
	}

	if e.cfg.Preload && e.cfg.Runonce && !e.cfg.Live && e.cfg.ExactBars == 0 {
		e.logger.Printf("[ENGINE] vectorized run: %d feeds, %d strategies", len(e.datas), len(e.strategies))
		return e.runVectorized(ctx)
	}
	e.logger.Printf("[ENGINE] event-driven run: %d feeds, %d strategies, live=%v", len(e.datas), len(e.strategies), e.cfg.Live)
	return e.runNext(ctx)
}

func (e *Engine) stopAll() {
	for _, s := range e.strategies {
		s.Stop()
	}
}

// runVectorized implements spec §4.8's preload+runonce branch: preload every
// feed, compute indicators via Once over the full preloaded range, then walk
// forward one bar at a time calling broker and strategies.
func (e *Engine) runVectorized(ctx context.Context) error {
	for _, d := range e.datas {
		if err := d.feed.Preload(); err != nil {
			return err
		}
	}

	minLen := -1
	for _, d := range e.datas {
		if n := d.feed.Buflen(); minLen < 0 || n < minLen {
			minLen = n
		}
	}
	if minLen < 0 {
		minLen = 0
	}

	for _, d := range e.datas {
		d.feed.Advance(minLen)
	}
	for _, ind := range e.indicators {
		ind.Once(0, minLen)
		ind.Lines().Home()
	}
	for _, d := range e.datas {
		d.feed.Home()
	}

	master := e.masterMinperiod()

	for i := 0; i < minLen; i++ {
		if e.stopping.Load() || ctx.Err() != nil {
			return ctx.Err()
		}
		for _, d := range e.datas {
			d.feed.Advance(1)
			metrics.IncBar(d.ref)
		}
		for _, ind := range e.indicators {
			ind.Lines().Advance(1)
		}
		e.tickBroker()
		e.drainNotifications()
		if i+1 >= master {
			for _, s := range e.strategies {
				s.Next()
			}
		}
	}

	// flush any orders submitted in the last strategies.Next pass.
	e.tickBroker()
	e.drainNotifications()
	return nil
}

// tickBroker runs one broker matching pass per data feed against its
// current bar.
func (e *Engine) tickBroker() {
	for _, d := range e.datas {
		b := feed.Bar{
			Open:  d.feed.Line(feed.LineOpen).Get(0),
			High:  d.feed.Line(feed.LineHigh).Get(0),
			Low:   d.feed.Line(feed.LineLow).Get(0),
			Close: d.feed.Line(feed.LineClose).Get(0),
		}
		now := linetime.Decode(d.feed.Line(feed.LineDatetime).Get(0))
		e.bro.Next(d.ref, b, now)
	}
	metrics.SetAccount(e.bro.GetCash(), e.bro.GetValue())
	e.reportOpenPositions()
}

// reportOpenPositions counts instruments currently holding a nonzero
// position and updates the gauge.
func (e *Engine) reportOpenPositions() {
	n := 0
	for _, d := range e.datas {
		if e.bro.GetPosition(d.ref).Size != 0 {
			n++
		}
	}
	metrics.SetOpenPositions(n)
}

// runNext implements spec §4.8's event-driven branch.
func (e *Engine) runNext(ctx context.Context) error {
	master := e.masterMinperiod()
	ticks := 0

	for {
		if e.stopping.Load() || ctx.Err() != nil {
			return ctx.Err()
		}

		e.drainNotifications()

		dts, err := e.collectNext(ctx)
		if err != nil {
			return err
		}

		dt0, anyBar := minDatetime(dts)
		if !anyBar || dt0 == linetime.Max {
			break
		}

		for _, d := range e.datas {
			dt := dts[d.ref]
			switch {
			case dt == linetime.None:
				// no bar yet from this feed this tick (live producer idle)
			case !linetime.SameInstant(dt, dt0):
				d.feed.Rewind(1)
			default:
				metrics.IncBar(d.ref)
			}
		}
		for _, ind := range e.indicators {
			ind.Next()
		}

		if e.cfg.CheatOnOpen {
			for _, s := range e.strategies {
				if cs, ok := s.(CheatStrategy); ok {
					cs.NextOpen()
				}
			}
		}

		for _, d := range e.datas {
			if dts[d.ref] == linetime.None || !linetime.SameInstant(dts[d.ref], dt0) {
				continue
			}
			b := feed.Bar{
				Open:  d.feed.Line(feed.LineOpen).Get(0),
				High:  d.feed.Line(feed.LineHigh).Get(0),
				Low:   d.feed.Line(feed.LineLow).Get(0),
				Close: d.feed.Line(feed.LineClose).Get(0),
			}
			now := linetime.Decode(d.feed.Line(feed.LineDatetime).Get(0))
			e.bro.Next(d.ref, b, now)
		}
		ticks++
		metrics.SetAccount(e.bro.GetCash(), e.bro.GetValue())
		e.reportOpenPositions()

		e.drainNotifications()

		if ticks >= master {
			for _, s := range e.strategies {
				s.Next()
			}
		}
	}
	return nil
}

// collectNext pulls one tick's datetime from every feed. In backtest mode
// this is a plain sequential loop; in live mode each feed's potentially
// blocking Next() call runs concurrently via errgroup, bounded by
// LiveTimeout so one stalled feed can't hold up the others — a feed that
// doesn't answer in time is treated as idle for this tick.
func (e *Engine) collectNext(ctx context.Context) (map[string]float64, error) {
	dts := make(map[string]float64, len(e.datas))

	if !e.cfg.Live {
		for _, d := range e.datas {
			dt, err := d.feed.Next(nil)
			if err != nil {
				return nil, err
			}
			dts[d.ref] = dt
		}
		return dts, nil
	}

	timeout := e.cfg.LiveTimeout
	if timeout <= 0 {
		timeout = defaultLiveTimeout
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range e.datas {
		d := d
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			type result struct {
				dt  float64
				err error
			}
			ch := make(chan result, 1)
			go func() {
				dt, err := d.feed.Next(nil)
				ch <- result{dt: dt, err: err}
			}()

			select {
			case r := <-ch:
				if r.err != nil {
					return r.err
				}
				mu.Lock()
				dts[d.ref] = r.dt
				mu.Unlock()
			case <-cctx.Done():
				d.feed.ForceClose(time.Now().UTC())
				mu.Lock()
				dts[d.ref] = linetime.None
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dts, nil
}

// minDatetime returns the smallest non-None datetime among dts, ignoring
// feeds with nothing new this tick.
func minDatetime(dts map[string]float64) (float64, bool) {
	min := 0.0
	first := true
	for _, dt := range dts {
		if dt == linetime.None {
			continue
		}
		if first || dt < min {
			min = dt
			first = false
		}
	}
	return min, !first
}

// drainNotifications pulls order/trade notifications from the broker and
// dispatches them to every strategy, order-before-trade per bar, per the
// notification-ordering testable property.
func (e *Engine) drainNotifications() {
	orders := e.bro.DrainOrderNotifications()
	for _, n := range orders {
		metrics.ObserveOrderStatus(n.Order.Status.String(), n.Order.Side.String())
		if n.Order.Status == broker.Margin {
			metrics.IncMarginFailure()
		}
		for _, s := range e.strategies {
			s.NotifyOrder(n.Order)
		}
	}
	trades := e.bro.DrainTradeNotifications()
	for _, n := range trades {
		if !n.Trade.IsOpen() {
			result := "scratch"
			if n.Trade.PnLComm > 0 {
				result = "win"
			} else if n.Trade.PnLComm < 0 {
				result = "loss"
			}
			metrics.ObserveTradeResult(result)
		}
		for _, s := range e.strategies {
			s.NotifyTrade(n.Trade)
		}
	}
	for _, d := range e.datas {
		for _, n := range d.feed.DrainNotifications() {
			for _, s := range e.strategies {
				s.NotifyData(d.ref, n)
			}
		}
	}
}
