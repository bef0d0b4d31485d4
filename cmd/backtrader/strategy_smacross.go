package main

import (
	"time"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/chidi150c/backtrader/internal/indicator"
	"github.com/chidi150c/backtrader/internal/strategy"
)

// smaCrossStrategy buys when the fast SMA crosses above the slow SMA and
// closes the position on the reverse cross. It's the stock example
// strategy wired up by the CLI: a minimal, legible exercise of the
// Buy/Close order-construction helpers and indicator dependency graph.
type smaCrossStrategy struct {
	*strategy.Base

	dataRef  string
	fast     *indicator.SMAIndicator
	slow     *indicator.SMAIndicator
	prevDiff float64
	primed   bool
}

func newSMACrossStrategy(ref string, b *broker.Broker, dataRef string, fast, slow *indicator.SMAIndicator) *smaCrossStrategy {
	return &smaCrossStrategy{
		Base:    strategy.NewBase(ref, b),
		dataRef: dataRef,
		fast:    fast,
		slow:    slow,
	}
}

func (s *smaCrossStrategy) Next() {
	diff := s.fast.Value().Get(0) - s.slow.Value().Get(0)
	defer func() { s.prevDiff = diff; s.primed = true }()
	if !s.primed {
		return
	}

	pos := s.Broker.GetPosition(s.dataRef)
	crossedUp := s.prevDiff <= 0 && diff > 0
	crossedDown := s.prevDiff >= 0 && diff < 0

	switch {
	case crossedUp && pos.Size == 0:
		s.Buy(s.dataRef, 0, 0, 0, broker.Market, time.Time{})
	case crossedDown && pos.Size > 0:
		s.Close(s.dataRef)
	}
}
