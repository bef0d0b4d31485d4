package broker

// CommissionKind selects how a CommissionScheme prices a fill.
type CommissionKind int

const (
	CommissionPercentage CommissionKind = iota
	CommissionPerContract
	CommissionFutures // margin + multiplier
)

// CommissionScheme computes the commission for a fill on one instrument.
type CommissionScheme struct {
	Kind CommissionKind

	// CommissionPercentage: Rate is a fraction of notional (e.g. 0.001).
	Rate float64

	// CommissionPerContract: Rate is currency per contract/share.
	// CommissionFutures: Margin is cash required per contract, Mult is the
	// value of one price point (e.g. $50/point). Only ValueFromPriceMove
	// applies Mult; the Broker does not call it, so fills move cash by the
	// full size*price and realized PnL is not scaled by Mult. The Broker
	// reads Margin only in its cash check before a buy fill.
	Margin float64
	Mult   float64
}

// Commission returns the commission charged for a fill of size at price.
func (c CommissionScheme) Commission(size, price float64) float64 {
	switch c.Kind {
	case CommissionPercentage:
		return absf(size) * price * c.Rate
	case CommissionPerContract:
		return absf(size) * c.Rate
	case CommissionFutures:
		return absf(size) * c.Rate
	default:
		return 0
	}
}

// MarginRequired returns the cash a futures position of size must reserve.
// Non-futures schemes require the full notional.
func (c CommissionScheme) MarginRequired(size, price float64) float64 {
	if c.Kind == CommissionFutures {
		return absf(size) * c.Margin
	}
	return absf(size) * price
}

// ValueFromPriceMove converts a price delta into PnL for one unit of size,
// applying the futures multiplier where relevant.
func (c CommissionScheme) ValueFromPriceMove(priceDelta float64) float64 {
	if c.Kind == CommissionFutures && c.Mult != 0 {
		return priceDelta * c.Mult
	}
	return priceDelta
}
