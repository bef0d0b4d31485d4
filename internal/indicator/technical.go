package indicator

import "math"

// The functions below mirror the teacher's indicators.go shape (array in,
// array out, aligned to input length, NaN/0 for the unavailable lookback)
// but operate over plain []float64 closes/candles so strategies can build
// feature vectors cheaply.

// SMA returns the n-period simple moving average, aligned to closes. Values
// before the window fills are NaN.
func SMA(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 0 || len(closes) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i := range closes {
		sum += closes[i]
		if i >= n {
			sum -= closes[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// EMA returns the n-period exponential moving average, seeded with the
// first value and aligned to closes.
func EMA(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 0 || len(closes) == 0 {
		return out
	}
	k := 2.0 / (float64(n) + 1.0)
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = closes[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI returns the n-period Relative Strength Index using Wilder's
// smoothing. Indices before the first full window are zero.
func RSI(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 0 || len(closes) == 0 {
		return out
	}
	var gain, loss float64
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if i <= n {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			if i == n {
				out[i] = rsiFromAvg(gain/float64(n), loss/float64(n))
			}
		} else {
			if d > 0 {
				gain = (gain*float64(n-1) + d) / float64(n)
				loss = (loss * float64(n-1)) / float64(n)
			} else {
				gain = (gain * float64(n-1)) / float64(n)
				loss = (loss*float64(n-1) - d) / float64(n)
			}
			out[i] = rsiFromAvg(gain, loss)
		}
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// ZScore returns the rolling z-score of closes over window n. Indices
// before the window fills are zero.
func ZScore(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 1 || len(closes) == 0 {
		return out
	}
	var sum, sumSq float64
	for i := range closes {
		x := closes[i]
		sum += x
		sumSq += x * x
		if i >= n {
			y := closes[i-n]
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := (sumSq / float64(n)) - (mean * mean)
			std := math.Sqrt(math.Max(variance, 1e-12))
			out[i] = (x - mean) / std
		}
	}
	return out
}

// RollingStd returns the rolling standard deviation of closes over window n.
func RollingStd(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 1 || len(closes) == 0 {
		return out
	}
	var sum, sumSq float64
	for i := range closes {
		x := closes[i]
		sum += x
		sumSq += x * x
		if i >= n {
			y := closes[i-n]
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := math.Max((sumSq/float64(n))-(mean*mean), 0)
			out[i] = math.Sqrt(variance)
		}
	}
	return out
}

// TrueRange returns the per-bar true range given high/low/close slices.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(high))
	for i := range high {
		if i == 0 {
			out[i] = high[i] - low[i]
			continue
		}
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR returns the n-period Average True Range (Wilder smoothed).
func ATR(high, low, close []float64, n int) []float64 {
	tr := TrueRange(high, low, close)
	out := make([]float64, len(tr))
	if n <= 0 || len(tr) == 0 {
		return out
	}
	var sum float64
	for i := range tr {
		if i < n {
			sum += tr[i]
			if i == n-1 {
				out[i] = sum / float64(n)
			}
			continue
		}
		out[i] = (out[i-1]*float64(n-1) + tr[i]) / float64(n)
	}
	return out
}

// MACD returns the MACD line, signal line, and histogram for closes.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// OBV returns the On-Balance-Volume series given closes/volumes.
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
