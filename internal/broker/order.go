// Package broker implements the simulated broker: order lifecycle, fills,
// slippage, commission, and position/PnL tracking.
package broker

import (
	"time"

	"github.com/google/uuid"
)

// Side is the side of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Type is the order execution type.
type Type int

const (
	Market Type = iota
	Close
	Limit
	Stop
	StopLimit
	StopTrail
	StopTrailLimit
)

// Status is the order's lifecycle state. Created -> Submitted -> Accepted
// -> (Partial|Completed|Canceled|Expired|Rejected|Margin). Terminal states
// are sticky: once set, a later transition attempt is a no-op.
type Status int

const (
	Created Status = iota
	Submitted
	Accepted
	Partial
	Completed
	Canceled
	Expired
	Rejected
	Margin
)

func (s Status) Terminal() bool {
	switch s {
	case Completed, Canceled, Expired, Rejected, Margin:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case Created:
		return "Created"
	case Submitted:
		return "Submitted"
	case Accepted:
		return "Accepted"
	case Partial:
		return "Partial"
	case Completed:
		return "Completed"
	case Canceled:
		return "Canceled"
	case Expired:
		return "Expired"
	case Rejected:
		return "Rejected"
	case Margin:
		return "Margin"
	default:
		return "Unknown"
	}
}

// Order is the engine's order record.
type Order struct {
	Ref         string
	OwnerRef    string // strategy identifier
	DataRef     string // instrument identifier

	Side  Side
	Type  Type
	Size  float64 // always positive; Side encodes direction
	Price float64 // limit/stop price, 0 for Market/Close
	PriceLimit float64 // StopLimit's limit leg
	TrailAmount float64

	ValidUntil time.Time // zero means good-till-canceled
	TradeID    int

	Status Status

	SubmittedAt time.Time

	ExecutedSize  float64
	ExecutedPrice float64 // volume-weighted average fill price
	Commission    float64

	// trailing-stop bookkeeping: best favorable price seen since submission.
	trailWatermark float64
	trailSeeded    bool
}

// NewOrder constructs an order in the Created state with a fresh ref.
func NewOrder(ownerRef, dataRef string, side Side, typ Type, size, price, priceLimit, trailAmount float64, validUntil time.Time, tradeID int) *Order {
	return &Order{
		Ref:         uuid.New().String(),
		OwnerRef:    ownerRef,
		DataRef:     dataRef,
		Side:        side,
		Type:        typ,
		Size:        size,
		Price:       price,
		PriceLimit:  priceLimit,
		TrailAmount: trailAmount,
		ValidUntil:  validUntil,
		TradeID:     tradeID,
		Status:      Created,
	}
}

// Validate performs the synchronous checks the spec requires before an
// order may be submitted: nonzero size, known side, known instrument.
func (o *Order) Validate() error {
	if o.Size <= 0 {
		return &ValidationError{Reason: "size must be positive"}
	}
	if o.DataRef == "" {
		return &ValidationError{Reason: "unknown instrument"}
	}
	switch o.Side {
	case Buy, Sell:
	default:
		return &ValidationError{Reason: "unknown side"}
	}
	return nil
}

// ValidationError is OrderValidationError from spec §7.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return "order validation: " + e.Reason }

// transition moves to a new status unless the current one is terminal
// (terminal states are sticky, per spec's order status machine).
func (o *Order) transition(to Status) {
	if o.Status.Terminal() {
		return
	}
	o.Status = to
}

// ExpiredIfDue marks the order Expired if now is past ValidUntil and the
// order has not yet been filled or otherwise terminated.
func (o *Order) ExpiredIfDue(now time.Time) bool {
	if o.ValidUntil.IsZero() || o.Status.Terminal() {
		return false
	}
	if now.After(o.ValidUntil) {
		o.transition(Expired)
		return true
	}
	return false
}

// RecordFill updates the order's executed size/price/commission and moves
// it to Partial or Completed depending on whether the full size was
// absorbed. fillSize must be <= remaining size.
func (o *Order) RecordFill(fillSize, fillPrice, commission float64) {
	totalNotional := o.ExecutedPrice*o.ExecutedSize + fillPrice*fillSize
	o.ExecutedSize += fillSize
	if o.ExecutedSize > 0 {
		o.ExecutedPrice = totalNotional / o.ExecutedSize
	}
	o.Commission += commission
	if o.ExecutedSize >= o.Size {
		o.transition(Completed)
	} else {
		o.transition(Partial)
	}
}

// Remaining returns the size not yet filled.
func (o *Order) Remaining() float64 {
	r := o.Size - o.ExecutedSize
	if r < 0 {
		return 0
	}
	return r
}

// UpdateTrailingStop recomputes the trigger price for a StopTrail/
// StopTrailLimit order from the watched side's high/low, per spec §4.6.
func (o *Order) UpdateTrailingStop(high, low float64) {
	watched := low
	if o.Side == Sell {
		watched = high
	}
	if !o.trailSeeded {
		o.trailWatermark = watched
		o.trailSeeded = true
	} else if o.Side == Buy && watched < o.trailWatermark {
		o.trailWatermark = watched
	} else if o.Side == Sell && watched > o.trailWatermark {
		o.trailWatermark = watched
	}
	if o.Side == Buy {
		o.Price = o.trailWatermark + o.TrailAmount
	} else {
		o.Price = o.trailWatermark - o.TrailAmount
	}
}
