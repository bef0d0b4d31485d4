package broker

import (
	"time"

	"github.com/google/uuid"
)

// TradeStatus is a Trade's lifecycle stage.
type TradeStatus int

const (
	TradeCreated TradeStatus = iota
	TradeOpen
	TradeClosed
)

func (s TradeStatus) String() string {
	switch s {
	case TradeCreated:
		return "Created"
	case TradeOpen:
		return "Open"
	case TradeClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Trade is the lifecycle ledger between a position's size crossing zero and
// crossing zero again. Commission is attributed to whichever trade absorbs
// the fill that generated it.
type Trade struct {
	Ref         string
	DataRef     string
	Size        float64 // signed, current open size (0 once closed)
	EntryPrice  float64
	OpenAt      time.Time
	CloseAt     time.Time
	Commission  float64
	PnL         float64 // gross realized PnL
	PnLComm     float64 // PnL net of commission
	Status      TradeStatus
}

// NewTrade opens a trade from an initial signed fill.
func NewTrade(dataRef string, size, price float64, at time.Time) *Trade {
	return &Trade{
		Ref:        uuid.New().String(),
		DataRef:    dataRef,
		Size:       size,
		EntryPrice: price,
		OpenAt:     at,
		Status:     TradeOpen,
	}
}

// ApplyFill folds an additional fill of signed size/price into an open
// trade, adding realizedPnL (already computed by Position.Update) to PnL,
// and closes the trade once size returns to zero.
func (t *Trade) ApplyFill(size, price, commission, realizedPnL float64, at time.Time) {
	t.Commission += commission
	t.PnL += realizedPnL
	t.PnLComm = t.PnL - t.Commission
	t.Size += size
	if t.Size == 0 {
		t.Status = TradeClosed
		t.CloseAt = at
	}
}

// IsOpen reports whether the trade still has open size.
func (t *Trade) IsOpen() bool { return t.Status != TradeClosed }
