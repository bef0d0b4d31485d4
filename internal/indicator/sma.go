package indicator

import (
	"math"

	"github.com/chidi150c/backtrader/internal/lineseries"
)

// SMAIndicator is a LineSeries-backed simple moving average over an input
// buffer (typically a feed's close line). It implements Indicator with both
// an imperative Next and a vectorized Once, as required by spec §4.5/§8.1.
type SMAIndicator struct {
	*Base
	in  *lineseries.Buffer
	out *lineseries.Buffer
}

// NewSMA wires an SMA of length n over in.
func NewSMA(in *lineseries.Buffer, n int) *SMAIndicator {
	s := lineseries.NewSeries(lineseries.ModeFull)
	idx := s.AddLine("sma")
	base := NewBase(s, n, in.Minperiod)
	return &SMAIndicator{Base: base, in: in, out: s.Line(idx)}
}

// Next computes position 0 from the last Period values of the input.
func (s *SMAIndicator) Next() {
	s.out.Forward(1)
	n := s.Period()
	if s.in.Len() < n {
		s.out.Set(0, math.NaN())
		return
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += s.in.Get(i)
	}
	s.out.Set(0, sum/float64(n))
}

// Once computes the array slice [start,end) directly from the input
// buffer's array, matching Next()'s output bit-for-bit.
func (s *SMAIndicator) Once(start, end int) {
	for s.out.Len() < end {
		s.out.Forward(1)
	}
	n := s.Period()
	for i := start; i < end; i++ {
		ago := s.out.Len() - 1 - i
		if s.in.Len()-ago < n {
			s.out.Set(ago, math.NaN())
			continue
		}
		var sum float64
		for k := 0; k < n; k++ {
			sum += s.in.Get(ago + k)
		}
		s.out.Set(ago, sum/float64(n))
	}
}

// Value returns the line buffer holding the SMA output.
func (s *SMAIndicator) Value() *lineseries.Buffer { return s.out }

// EMAIndicator is a LineSeries-backed exponential moving average.
type EMAIndicator struct {
	*Base
	in     *lineseries.Buffer
	out    *lineseries.Buffer
	k      float64
	seeded bool
}

// NewEMA wires an EMA of length n over in.
func NewEMA(in *lineseries.Buffer, n int) *EMAIndicator {
	s := lineseries.NewSeries(lineseries.ModeFull)
	idx := s.AddLine("ema")
	base := NewBase(s, n, in.Minperiod)
	return &EMAIndicator{Base: base, in: in, out: s.Line(idx), k: 2.0 / (float64(n) + 1.0)}
}

func (e *EMAIndicator) Next() {
	e.out.Forward(1)
	cur := e.in.Get(0)
	if !e.seeded {
		e.out.Set(0, cur)
		e.seeded = true
		return
	}
	prev := e.out.Get(1)
	e.out.Set(0, cur*e.k+prev*(1-e.k))
}

// Once recomputes the whole range sequentially since EMA is recursive; it
// must still match Next()'s output exactly when run over the same inputs.
func (e *EMAIndicator) Once(start, end int) {
	for e.out.Len() < end {
		e.out.Forward(1)
	}
	for i := start; i < end; i++ {
		ago := e.out.Len() - 1 - i
		cur := e.in.Get(ago)
		if ago == e.out.Len()-1 {
			e.out.Set(ago, cur)
			continue
		}
		prev := e.out.Get(ago + 1)
		e.out.Set(ago, cur*e.k+prev*(1-e.k))
	}
}

func (e *EMAIndicator) Value() *lineseries.Buffer { return e.out }
