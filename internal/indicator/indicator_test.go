package indicator

import (
	"math"
	"testing"

	"github.com/chidi150c/backtrader/internal/lineseries"
	"github.com/stretchr/testify/require"
)

func TestSMAHelperMatchesManualAverage(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	out := SMA(closes, 3)
	require.InDelta(t, (3.0+4.0+5.0)/3.0, out[4], 1e-9)
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	out := RSI(closes, 14)
	require.InDelta(t, 100.0, out[14], 1e-9)
}

func TestSMAIndicatorNextAveragesLatestWindow(t *testing.T) {
	in := lineseries.NewBuffer(lineseries.ModeFull)
	vals := []float64{1, 2, 3, 4, 5, 6}
	for _, v := range vals {
		in.Forward(1)
		in.Set(0, v)
	}

	next := NewSMA(in, 3)
	for i := 0; i < len(vals); i++ {
		// Simulate the event-driven path reading ago-aligned inputs: rewind
		// the input to the i-th bar would require a shared pointer; here we
		// exercise Next() directly against the fully loaded input, matching
		// how the engine drives indicators once minperiod is reached.
		next.Next()
	}
	require.InDelta(t, (4.0+5.0+6.0)/3.0, next.Value().Get(0), 1e-9)
}

// Testable Property #1: event-driven Next() and vectorized Once() must
// produce bit-identical output over the same input, ago-position by
// ago-position.
func TestSMAIndicatorOnceMatchesNext(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7}

	inNext := lineseries.NewBuffer(lineseries.ModeFull)
	smaNext := NewSMA(inNext, 3)
	for _, v := range vals {
		inNext.Forward(1)
		inNext.Set(0, v)
		smaNext.Next()
	}

	inOnce := lineseries.NewBuffer(lineseries.ModeFull)
	for _, v := range vals {
		inOnce.Forward(1)
		inOnce.Set(0, v)
	}
	smaOnce := NewSMA(inOnce, 3)
	smaOnce.Once(0, len(vals))

	for ago := 0; ago < len(vals); ago++ {
		want := smaNext.Value().Get(ago)
		got := smaOnce.Value().Get(ago)
		if math.IsNaN(want) {
			require.Truef(t, math.IsNaN(got), "ago=%d: want NaN, got %v", ago, got)
			continue
		}
		require.InDeltaf(t, want, got, 1e-9, "ago=%d", ago)
	}
}

func TestEMAIndicatorOnceMatchesNext(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7}

	inNext := lineseries.NewBuffer(lineseries.ModeFull)
	emaNext := NewEMA(inNext, 3)
	for _, v := range vals {
		inNext.Forward(1)
		inNext.Set(0, v)
		emaNext.Next()
	}

	inOnce := lineseries.NewBuffer(lineseries.ModeFull)
	for _, v := range vals {
		inOnce.Forward(1)
		inOnce.Set(0, v)
	}
	emaOnce := NewEMA(inOnce, 3)
	emaOnce.Once(0, len(vals))

	for ago := 0; ago < len(vals); ago++ {
		require.InDeltaf(t, emaNext.Value().Get(ago), emaOnce.Value().Get(ago), 1e-9, "ago=%d", ago)
	}
}
