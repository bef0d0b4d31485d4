package broker

// Position is the per-(broker, instrument) ledger. Size's sign encodes
// long/short; Price is the volume-weighted average entry of the currently
// held size.
type Position struct {
	Size    float64
	Price   float64
	AdjBase float64
}

// Update applies a fill of signed size (positive=buy, negative=sell) at
// price to the position and returns the realized PnL generated by any
// reduction/close, per spec §3's Position invariants.
//
// VWAP bookkeeping: a fill that extends the position (same sign, or from
// flat) updates Price as a volume-weighted average. A fill that reduces or
// reverses the position realizes PnL against the existing Price for the
// overlapping size, then — if it reverses — opens a fresh Price for the
// residual.
func (p *Position) Update(size, price float64) (realizedPnL float64) {
	switch {
	case p.Size == 0:
		p.Size = size
		p.Price = price
		return 0
	case sameSign(p.Size, size):
		// extend: new VWAP
		newSize := p.Size + size
		p.Price = (p.Price*absf(p.Size) + price*absf(size)) / absf(newSize)
		p.Size = newSize
		return 0
	default:
		// reduces or reverses
		closing := minAbs(p.Size, -size)
		// closing is the closed size as a magnitude; the sign of the realized
		// PnL comes from the direction of the existing position below.
		if p.Size > 0 {
			realizedPnL = closing * (price - p.Price)
		} else {
			realizedPnL = closing * (p.Price - price)
		}
		newSize := p.Size + size
		if sameSign(newSize, p.Size) || newSize == 0 {
			p.Size = newSize
			if newSize == 0 {
				p.Price = 0
			}
			return realizedPnL
		}
		// reversed through zero: residual opens a fresh position at price.
		p.Size = newSize
		p.Price = price
		return realizedPnL
	}
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minAbs(a, b float64) float64 {
	if absf(a) < absf(b) {
		return absf(a)
	}
	return absf(b)
}

// IsFlat reports whether the position has no size.
func (p *Position) IsFlat() bool { return p.Size == 0 }
