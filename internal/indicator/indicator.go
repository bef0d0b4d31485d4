// Package indicator implements derived LineSeries computed from parent
// lines, plus the standard technical indicators used by strategies.
package indicator

import (
	"math"

	"github.com/chidi150c/backtrader/internal/lineseries"
)

// Indicator is a LineSeries that declares its own lookback (Period) and
// computes via either Next (imperative, writes position 0) or Once
// (vectorized, writes an array slice). Both paths must produce identical
// output — the engine picks Once only when every dependency is preloaded
// and no feed is live.
type Indicator interface {
	Lines() *lineseries.Series
	Period() int
	Next()
	Once(start, end int)
}

// Base provides the minimum-period bookkeeping shared by all indicators:
// minperiod = max(inputs' minperiods) + ownLookback - 1, per spec §4.1.
type Base struct {
	Series *lineseries.Series
	period int
}

// NewBase wires a fresh Base with a given own-lookback and the minperiods
// of its input lines.
func NewBase(series *lineseries.Series, ownLookback int, inputMinperiods ...int) *Base {
	mp := ownLookback
	for _, m := range inputMinperiods {
		if m+ownLookback-1 > mp {
			mp = m + ownLookback - 1
		}
	}
	if mp < 1 {
		mp = 1
	}
	series.SetMinperiod(mp)
	return &Base{Series: series, period: ownLookback}
}

func (b *Base) Lines() *lineseries.Series { return b.Series }
func (b *Base) Period() int               { return b.period }

// MasterMinperiod returns the largest minperiod across a set of indicators,
// the value the engine uses to suppress Strategy.Next calls until reached.
func MasterMinperiod(inds ...Indicator) int {
	mp := 1
	for _, ind := range inds {
		if m := ind.Lines().Minperiod(); m > mp {
			mp = m
		}
	}
	return mp
}

func isNaN(v float64) bool { return math.IsNaN(v) }
