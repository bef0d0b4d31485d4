// Package feed implements the DataFeed data model: Bar, the standard seven
// OHLCV lines, lifecycle states, and the producer contract external
// adapters (CSV/exchange feeds) must satisfy.
package feed

import (
	"math"
	"time"
)

// Bar is a single OHLCV record for a timeframe.
type Bar struct {
	Datetime      time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        float64
	OpenInterest  float64
}

// IsOpen reports whether the bar has been opened (Open is not NaN).
func (b Bar) IsOpen() bool { return !math.IsNaN(b.Open) }

// Update combines b with other in place: High=max, Low=min, Close=latest,
// Volume+=, OpenInterest=latest, Datetime=latest. Used by resamplers
// aggregating smaller bars into a larger one.
func (b *Bar) Update(other Bar) {
	if math.IsNaN(b.High) || other.High > b.High {
		b.High = other.High
	}
	if math.IsNaN(b.Low) || other.Low < b.Low {
		b.Low = other.Low
	}
	b.Close = other.Close
	b.Volume += other.Volume
	b.OpenInterest = other.OpenInterest
	b.Datetime = other.Datetime
}

// NewOpenBar starts a fresh bar from a single input bar (used when a
// resampler/replayer opens a new aggregation window).
func NewOpenBar(b Bar) Bar {
	return Bar{
		Datetime:     b.Datetime,
		Open:         b.Open,
		High:         b.High,
		Low:          b.Low,
		Close:        b.Close,
		Volume:       b.Volume,
		OpenInterest: b.OpenInterest,
	}
}

// State is a feed's lifecycle state.
type State int

const (
	StateCreated State = iota
	StateStarted
	StateConnected
	StateDelayed
	StateLive
	StateDisconnected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateStarted:
		return "Started"
	case StateConnected:
		return "Connected"
	case StateDelayed:
		return "Delayed"
	case StateLive:
		return "Live"
	case StateDisconnected:
		return "Disconnected"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// NotificationKind enumerates producer status-change notifications.
type NotificationKind int

const (
	NotifyConnected NotificationKind = iota
	NotifyDisconnected
	NotifyDelayed
	NotifyLive
	NotifyConnBroken
	NotifyNotSubscribed
	NotifyNotSupportedTimeframe
	NotifyUnknown
)

// Notification is one entry in a feed's FIFO status-change queue.
type Notification struct {
	Kind NotificationKind
	At   time.Time
	Msg  string
}

// LoadResult is the sum type returned by Load(): either a fresh Bar, "no
// data yet" (live feed with nothing new), or End of stream.
type LoadResult struct {
	Bar   Bar
	HasBar bool
	End   bool
}
