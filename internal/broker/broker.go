package broker

import (
	"sync"
	"time"

	"github.com/chidi150c/backtrader/internal/feed"
)

// SlippageConfig models the broker's fixed/percentage slippage applied to
// Market fills.
type SlippageConfig struct {
	Fixed   float64 // absolute price units
	Percent float64 // fraction of price
}

func (s SlippageConfig) apply(price float64, side Side) float64 {
	slip := s.Fixed + price*s.Percent
	if side == Buy {
		return price + slip
	}
	return price - slip
}

// OrderNotification is emitted whenever an order's status changes.
type OrderNotification struct {
	Order *Order
	At    time.Time
}

// TradeNotification is emitted whenever a trade opens, adjusts, or closes.
type TradeNotification struct {
	Trade *Trade
	At    time.Time
}

// Broker is the simulated broker: cash/positions, pending orders, and the
// per-bar matching loop described in spec §4.6.
type Broker struct {
	mu sync.Mutex

	cash  float64
	value float64

	positions   map[string]*Position
	commissions map[string]CommissionScheme
	trades      map[string][]*Trade // all trades (open + closed) per instrument

	pending []*Order

	orderNotifications []OrderNotification
	tradeNotifications  []TradeNotification

	slippage SlippageConfig

	// PartialFillCap bounds how much size a single bar can fill; 0 means
	// unlimited (the spec's default).
	PartialFillCap float64
}

// New returns a Broker seeded with startCash.
func New(startCash float64) *Broker {
	return &Broker{
		cash:        startCash,
		value:       startCash,
		positions:   map[string]*Position{},
		commissions: map[string]CommissionScheme{},
		trades:      map[string][]*Trade{},
	}
}

// SetCommission registers the commission scheme for an instrument.
func (b *Broker) SetCommission(dataRef string, scheme CommissionScheme) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commissions[dataRef] = scheme
}

// SetSlippage configures the broker's Market-order slippage model.
func (b *Broker) SetSlippage(cfg SlippageConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slippage = cfg
}

// GetCash returns current cash.
func (b *Broker) GetCash() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash
}

// GetValue returns cash + mark-to-market position value across all
// instruments currently held, as computed by the last Next call: the
// instrument passed to that call is marked at its bar close, every other
// instrument at its position's average entry price.
func (b *Broker) GetValue() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// GetPosition returns the position for an instrument (never nil; a fresh
// flat Position is created and cached on first access).
func (b *Broker) GetPosition(dataRef string) *Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position(dataRef)
}

func (b *Broker) position(dataRef string) *Position {
	p, ok := b.positions[dataRef]
	if !ok {
		p = &Position{}
		b.positions[dataRef] = p
	}
	return p
}

// Submit validates and queues an order. A validation failure transitions
// the order synchronously to Rejected and still returns it (the strategy
// observes the rejection via notify_order, per spec §7).
func (b *Broker) Submit(o *Order) *Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := o.Validate(); err != nil {
		o.Status = Rejected
		b.notifyOrder(o)
		return o
	}
	o.Status = Submitted
	o.transition(Accepted)
	b.pending = append(b.pending, o)
	b.notifyOrder(o)
	return o
}

// Cancel transitions a pending order to Canceled, if still open.
func (b *Broker) Cancel(ref string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.pending {
		if o.Ref == ref && !o.Status.Terminal() {
			o.transition(Canceled)
			b.notifyOrder(o)
			return true
		}
	}
	return false
}

// Next runs one bar's matching pass for dataRef against bar, per spec
// §4.6 point 3: scan pending orders in submission order, match by type,
// compute commission, apply partial fills, expire stale orders, and flag
// margin failures. Market orders fill at bar's open (after slippage); the
// Engine decides when in the tick this call happens, so bar is whichever
// bar the caller intends Market orders to fill against.
func (b *Broker) Next(dataRef string, bar feed.Bar, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.pending[:0]
	for _, o := range b.pending {
		if o.DataRef != dataRef {
			remaining = append(remaining, o)
			continue
		}
		if o.Status.Terminal() {
			continue
		}
		if o.ExpiredIfDue(now) {
			b.notifyOrder(o)
			continue
		}
		b.matchOne(o, bar, now)
		if !o.Status.Terminal() {
			remaining = append(remaining, o)
		}
	}
	b.pending = remaining
	b.markValue(dataRef, bar.Close)
}

func (b *Broker) matchOne(o *Order, bar feed.Bar, now time.Time) {
	fillPrice, ok := b.matchPrice(o, bar)
	if !ok {
		return
	}
	size := o.Remaining()
	if b.PartialFillCap > 0 && size > b.PartialFillCap {
		size = b.PartialFillCap
	}

	scheme := b.commissions[o.DataRef]
	notional := scheme.MarginRequired(size, fillPrice)
	if o.Side == Buy && notional > b.cash {
		// insufficient cash/margin at fill time
		o.transition(Margin)
		b.notifyOrder(o)
		return
	}

	commission := scheme.Commission(size, fillPrice)
	signedSize := size
	if o.Side == Sell {
		signedSize = -size
	}

	pos := b.position(o.DataRef)
	realized := pos.Update(signedSize, fillPrice)

	if o.Side == Buy {
		b.cash -= size*fillPrice + commission
	} else {
		b.cash += size*fillPrice - commission
	}

	o.RecordFill(size, fillPrice, commission)
	b.notifyOrder(o)
	b.bookTrade(o.DataRef, signedSize, fillPrice, commission, realized, now)
}

// matchPrice determines the fill price for o against bar, or false if the
// order does not touch this bar.
func (b *Broker) matchPrice(o *Order, bar feed.Bar) (float64, bool) {
	switch o.Type {
	case Market:
		return b.slippage.apply(bar.Open, o.Side), true
	case Close:
		return bar.Close, true
	case Limit:
		return matchLimit(o, bar)
	case Stop:
		return matchStop(o, bar)
	case StopLimit:
		return matchStopLimit(o, bar)
	case StopTrail, StopTrailLimit:
		o.UpdateTrailingStop(bar.High, bar.Low)
		return matchStop(o, bar)
	}
	return 0, false
}

func matchLimit(o *Order, bar feed.Bar) (float64, bool) {
	if o.Side == Buy {
		if bar.Low <= o.Price {
			if bar.Open <= o.Price {
				return bar.Open, true
			}
			return o.Price, true
		}
		return 0, false
	}
	if bar.High >= o.Price {
		if bar.Open >= o.Price {
			return bar.Open, true
		}
		return o.Price, true
	}
	return 0, false
}

func matchStop(o *Order, bar feed.Bar) (float64, bool) {
	if o.Side == Buy {
		if bar.High >= o.Price {
			if bar.Open >= o.Price {
				return bar.Open, true
			}
			return o.Price, true
		}
		return 0, false
	}
	if bar.Low <= o.Price {
		if bar.Open <= o.Price {
			return bar.Open, true
		}
		return o.Price, true
	}
	return 0, false
}

func matchStopLimit(o *Order, bar feed.Bar) (float64, bool) {
	triggered := false
	if o.Side == Buy && bar.High >= o.Price {
		triggered = true
	}
	if o.Side == Sell && bar.Low <= o.Price {
		triggered = true
	}
	if !triggered {
		return 0, false
	}
	limitOrder := &Order{Side: o.Side, Price: o.PriceLimit}
	return matchLimit(limitOrder, bar)
}

func (b *Broker) bookTrade(dataRef string, signedSize, price, commission, realizedPnL float64, at time.Time) {
	trades := b.trades[dataRef]
	var open *Trade
	if len(trades) > 0 && trades[len(trades)-1].IsOpen() {
		open = trades[len(trades)-1]
	}
	pos := b.position(dataRef)

	if open == nil {
		t := NewTrade(dataRef, signedSize, price, at)
		t.Commission = commission
		t.PnLComm = t.PnL - t.Commission
		b.trades[dataRef] = append(trades, t)
		b.notifyTrade(t, at)
		return
	}

	// does this fill cross through zero relative to the trade's recorded size?
	preSize := open.Size
	postSize := preSize + signedSize
	crossesZero := preSize != 0 && postSize != 0 && !sameSign(preSize, postSize)

	if !crossesZero {
		open.ApplyFill(signedSize, price, commission, realizedPnL, at)
		b.notifyTrade(open, at)
		_ = pos
		return
	}

	// reversal: close the existing trade with the overlapping size's
	// realized PnL, then open a new trade for the residual.
	overlap := minAbs(preSize, -signedSize)
	overlapSigned := overlap
	if preSize < 0 {
		overlapSigned = -overlap
	}
	open.ApplyFill(overlapSigned, price, commission, realizedPnL, at)
	b.notifyTrade(open, at)

	residual := signedSize - overlapSigned
	nt := NewTrade(dataRef, residual, price, at)
	b.trades[dataRef] = append(b.trades[dataRef], nt)
	b.notifyTrade(nt, at)
}

func (b *Broker) markValue(dataRef string, lastPrice float64) {
	total := b.cash
	for ref, pos := range b.positions {
		if ref == dataRef {
			total += pos.Size * lastPrice
		} else {
			total += pos.Size * pos.Price // stale mark for instruments not ticked this call
		}
	}
	b.value = total
}

func (b *Broker) notifyOrder(o *Order) {
	b.orderNotifications = append(b.orderNotifications, OrderNotification{Order: o, At: time.Now().UTC()})
}

func (b *Broker) notifyTrade(t *Trade, at time.Time) {
	b.tradeNotifications = append(b.tradeNotifications, TradeNotification{Trade: t, At: at})
}

// DrainOrderNotifications returns and clears pending order notifications.
// Per spec's notification-ordering property, callers must drain order
// notifications for a bar before trade notifications for the same bar,
// and both before Strategy.Next — the Engine enforces that ordering by
// draining in this method order.
func (b *Broker) DrainOrderNotifications() []OrderNotification {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns := b.orderNotifications
	b.orderNotifications = nil
	return ns
}

// DrainTradeNotifications returns and clears pending trade notifications.
func (b *Broker) DrainTradeNotifications() []TradeNotification {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns := b.tradeNotifications
	b.tradeNotifications = nil
	return ns
}

// Trades returns all trades (open and closed) recorded for an instrument.
func (b *Broker) Trades(dataRef string) []*Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Trade, len(b.trades[dataRef]))
	copy(out, b.trades[dataRef])
	return out
}

// Pending returns a snapshot of currently pending orders.
func (b *Broker) Pending() []*Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Order, len(b.pending))
	copy(out, b.pending)
	return out
}
