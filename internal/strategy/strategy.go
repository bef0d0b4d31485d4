// Package strategy implements the Strategy base contract: the
// Indicator-subtype lifecycle, default sizing, buy/sell/close/order-target
// order-construction helpers, and the notify_* callback set a concrete
// strategy overrides.
package strategy

import (
	"time"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/feed"
)

// Strategy is the interface the engine drives. A concrete strategy embeds
// Base and overrides the methods it needs; the rest fall back to Base's
// no-op defaults.
type Strategy interface {
	Next()
	Start()
	Stop()
	NotifyOrder(o *broker.Order)
	NotifyTrade(t *broker.Trade)
	NotifyCashValue(cash, value float64)
	NotifyStore(msg string)
	NotifyData(dataRef string, n feed.Notification)
	NotifyTimer(id int, when time.Time)
}

// Base provides the order-construction helpers and a Sizer, plus no-op
// defaults for every notify_* callback — a concrete strategy embeds this and
// only overrides what it needs, matching spec §4.7 and §7's callback
// contract.
type Base struct {
	Ref    string
	Broker *broker.Broker
	Sizer  Sizer

	// TradeID stamped on every order Buy and Sell build; nothing in this
	// package changes it, so it stays 0.
	nextTradeID int
}

// NewBase wires a strategy's broker handle and a default FixedSizer(1).
func NewBase(ref string, b *broker.Broker) *Base {
	return &Base{Ref: ref, Broker: b, Sizer: FixedSizer{Size: 1}}
}

func (s *Base) Start()                                          {}
func (s *Base) Stop()                                           {}
func (s *Base) NotifyOrder(o *broker.Order)                      {}
func (s *Base) NotifyTrade(t *broker.Trade)                      {}
func (s *Base) NotifyCashValue(cash, value float64)              {}
func (s *Base) NotifyStore(msg string)                           {}
func (s *Base) NotifyData(dataRef string, n feed.Notification)   {}
func (s *Base) NotifyTimer(id int, when time.Time)               {}

// Buy submits a market (or typed) buy order. size<=0 defers to the Sizer.
func (s *Base) Buy(dataRef string, size, price, priceLimit float64, typ broker.Type, validUntil time.Time) *broker.Order {
	if size <= 0 {
		size = s.Sizer.GetSizing(s.Broker.GetCash(), price, true)
	}
	o := broker.NewOrder(s.Ref, dataRef, broker.Buy, typ, size, price, priceLimit, 0, validUntil, s.nextTradeID)
	return s.Broker.Submit(o)
}

// Sell submits a market (or typed) sell order. size<=0 defers to the Sizer.
func (s *Base) Sell(dataRef string, size, price, priceLimit float64, typ broker.Type, validUntil time.Time) *broker.Order {
	if size <= 0 {
		size = s.Sizer.GetSizing(s.Broker.GetCash(), price, false)
	}
	o := broker.NewOrder(s.Ref, dataRef, broker.Sell, typ, size, price, priceLimit, 0, validUntil, s.nextTradeID)
	return s.Broker.Submit(o)
}

// Close flattens the current position on dataRef with a Close-type order,
// sized to the exact open position. If already flat it submits nothing and
// returns nil.
func (s *Base) Close(dataRef string) *broker.Order {
	pos := s.Broker.GetPosition(dataRef)
	if pos.Size == 0 {
		return nil
	}
	side := broker.Sell
	size := pos.Size
	if pos.Size < 0 {
		side = broker.Buy
		size = -pos.Size
	}
	o := broker.NewOrder(s.Ref, dataRef, side, broker.Close, size, 0, 0, 0, time.Time{}, s.nextTradeID)
	return s.Broker.Submit(o)
}

// OrderTargetSize submits whatever buy/sell is needed to bring the position
// on dataRef to exactly target units (signed).
func (s *Base) OrderTargetSize(dataRef string, target, price float64) *broker.Order {
	pos := s.Broker.GetPosition(dataRef)
	delta := target - pos.Size
	if delta == 0 {
		return nil
	}
	if delta > 0 {
		return s.Buy(dataRef, delta, price, 0, broker.Market, time.Time{})
	}
	return s.Sell(dataRef, -delta, price, 0, broker.Market, time.Time{})
}

// OrderTargetValue submits whatever buy/sell is needed to bring the
// position's notional value (at price) to targetValue.
func (s *Base) OrderTargetValue(dataRef string, targetValue, price float64) *broker.Order {
	if price <= 0 {
		return nil
	}
	targetSize := targetValue / price
	return s.OrderTargetSize(dataRef, targetSize, price)
}

// OrderTargetPercent submits whatever buy/sell is needed to bring the
// position's notional value to percent of current total equity.
func (s *Base) OrderTargetPercent(dataRef string, percent, price float64) *broker.Order {
	targetValue := s.Broker.GetValue() * percent
	return s.OrderTargetValue(dataRef, targetValue, price)
}
