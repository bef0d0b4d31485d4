// Package analyzer implements per-run statistics consumers attach to the
// engine: a uniform path-based Value accessor (the static-struct
// replacement for the original's auto-vivifying nested dicts, per spec's
// DESIGN NOTES) plus the TradeAnalyzer itself.
package analyzer

import "github.com/chidi150c/backtrader/internal/broker"

// Value is a leaf result reachable via Analyzer.Get's path lookup.
type Value struct {
	Int   int64
	Float float64
	IsInt bool
}

// Analyzer is the uniform read interface: a flat path of field names
// resolves to a leaf Value, replacing the original's AutoDict dot-notation
// with statically defined nested structs plus this lookup.
type Analyzer interface {
	Get(path []string) (Value, bool)
}

// streak tracks the current/longest run length for one side of won/lost.
type streak struct {
	current int
	longest int
}

func (s *streak) record(hit bool) {
	if !hit {
		s.current = 0
		return
	}
	s.current++
	if s.current > s.longest {
		s.longest = s.current
	}
}

// pnlBucket accumulates total/average/max for one class of trade.
type pnlBucket struct {
	count int
	total float64
	max   float64
}

func (b *pnlBucket) add(pnl float64) {
	if b.count == 0 || pnl > b.max {
		b.max = pnl
	}
	b.count++
	b.total += pnl
}

func (b *pnlBucket) average() float64 {
	if b.count == 0 {
		return 0
	}
	return b.total / float64(b.count)
}

// TradeAnalyzer tabulates won/lost trade counts, streaks, and average pnl
// for every closed trade notified to it — the statically-typed equivalent
// of the original's AutoOrderedDict-based accumulator.
type TradeAnalyzer struct {
	TotalOpen   int
	TotalClosed int

	WonStreak  streak
	LostStreak streak

	Won  pnlBucket
	Lost pnlBucket

	PnLTotal   float64
	PnLAverage float64

	seen map[string]bool // trade refs already counted as open, to detect the open->closed transition once
}

// NewTradeAnalyzer returns an analyzer ready to receive NotifyTrade calls.
func NewTradeAnalyzer() *TradeAnalyzer {
	return &TradeAnalyzer{seen: map[string]bool{}}
}

// NotifyTrade folds one trade notification into the running statistics,
// mirroring the original's notify_trade: count the open transition once,
// then fold the closed transition's pnl into won/lost buckets and streaks.
func (a *TradeAnalyzer) NotifyTrade(t *broker.Trade) {
	if t == nil {
		return
	}
	if !a.seen[t.Ref] {
		a.seen[t.Ref] = true
		a.TotalOpen++
	}
	if t.Status != broker.TradeClosed {
		return
	}
	a.TotalOpen--
	a.TotalClosed++

	won := t.PnLComm >= 0
	a.WonStreak.record(won)
	a.LostStreak.record(!won)

	if won {
		a.Won.add(t.PnLComm)
	} else {
		a.Lost.add(t.PnLComm)
	}

	a.PnLTotal += t.PnLComm
	a.PnLAverage = a.PnLTotal / float64(a.TotalClosed)
}

// Get implements Analyzer's path-based accessor for the fields this
// analyzer exposes: total.open, total.closed, won.total, won.average,
// lost.total, lost.average, streak.won.longest, streak.lost.longest.
func (a *TradeAnalyzer) Get(path []string) (Value, bool) {
	if len(path) == 0 {
		return Value{}, false
	}
	switch path[0] {
	case "total":
		if len(path) < 2 {
			return Value{}, false
		}
		switch path[1] {
		case "open":
			return Value{Int: int64(a.TotalOpen), IsInt: true}, true
		case "closed":
			return Value{Int: int64(a.TotalClosed), IsInt: true}, true
		}
	case "won":
		if len(path) < 2 {
			return Value{}, false
		}
		switch path[1] {
		case "total":
			return Value{Float: a.Won.total}, true
		case "average":
			return Value{Float: a.Won.average()}, true
		case "count":
			return Value{Int: int64(a.Won.count), IsInt: true}, true
		}
	case "lost":
		if len(path) < 2 {
			return Value{}, false
		}
		switch path[1] {
		case "total":
			return Value{Float: a.Lost.total}, true
		case "average":
			return Value{Float: a.Lost.average()}, true
		case "count":
			return Value{Int: int64(a.Lost.count), IsInt: true}, true
		}
	case "streak":
		if len(path) < 3 {
			return Value{}, false
		}
		var s *streak
		switch path[1] {
		case "won":
			s = &a.WonStreak
		case "lost":
			s = &a.LostStreak
		default:
			return Value{}, false
		}
		switch path[2] {
		case "current":
			return Value{Int: int64(s.current), IsInt: true}, true
		case "longest":
			return Value{Int: int64(s.longest), IsInt: true}, true
		}
	case "pnl":
		if len(path) < 2 {
			return Value{}, false
		}
		switch path[1] {
		case "total":
			return Value{Float: a.PnLTotal}, true
		case "average":
			return Value{Float: a.PnLAverage}, true
		}
	}
	return Value{}, false
}
