package strategy

// Sizer decides how many units an order-construction helper should use when
// the caller doesn't specify a size explicitly, per spec §4.7's default
// sizing hook.
type Sizer interface {
	GetSizing(cash, price float64, isBuy bool) float64
}

// FixedSizer always returns the same size regardless of cash or price.
type FixedSizer struct {
	Size float64
}

func (f FixedSizer) GetSizing(cash, price float64, isBuy bool) float64 { return f.Size }

// PercentCashSizer sizes to consume a fraction of available cash at the
// given price, in fractional units (no rounding).
type PercentCashSizer struct {
	Percent float64 // 0..1
}

func (p PercentCashSizer) GetSizing(cash, price float64, isBuy bool) float64 {
	if price <= 0 {
		return 0
	}
	budget := cash * p.Percent
	units := budget / price
	if units < 0 {
		return 0
	}
	return units
}
