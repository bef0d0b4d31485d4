package strategy

import (
	"testing"
	"time"

	"github.com/chidi150c/backtrader/internal/broker"
	"github.com/chidi150c/backtrader/internal/feed"
	"github.com/stretchr/testify/require"
)

const instrument = "TEST"

func TestBuySizesFromSizerWhenSizeZero(t *testing.T) {
	b := broker.New(1000)
	b.SetCommission(instrument, broker.CommissionScheme{})
	s := NewBase("strat", b)
	s.Sizer = FixedSizer{Size: 3}

	o := s.Buy(instrument, 0, 10, 0, broker.Market, time.Time{})
	require.Equal(t, 3.0, o.Size)
}

func TestOrderTargetSizeComputesDelta(t *testing.T) {
	b := broker.New(1000)
	b.SetCommission(instrument, broker.CommissionScheme{})
	s := NewBase("strat", b)

	b.Next(instrument, feed.Bar{Open: 10, High: 10, Low: 10, Close: 10}, time.Now())
	o := s.OrderTargetSize(instrument, 5, 10)
	require.Equal(t, broker.Buy, o.Side)
	require.Equal(t, 5.0, o.Size)
}

func TestCloseReturnsNilWhenFlat(t *testing.T) {
	b := broker.New(1000)
	s := NewBase("strat", b)
	require.Nil(t, s.Close(instrument))
}

func TestBaseNotifyDefaultsAreNoOps(t *testing.T) {
	b := broker.New(1000)
	s := NewBase("strat", b)
	require.NotPanics(t, func() {
		s.NotifyOrder(nil)
		s.NotifyTrade(nil)
		s.NotifyCashValue(0, 0)
		s.NotifyStore("")
		s.NotifyData(instrument, feed.Notification{})
		s.NotifyTimer(0, time.Time{})
	})
}
