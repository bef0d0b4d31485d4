package feed

import "github.com/chidi150c/backtrader/internal/linetime"

// Clone is a weak observer of a parent Feed: it shares the parent's bars
// but never owns them, only replays them. This is how resamplers and
// indicators watch a feed without holding an owning reference, matching
// the spec's "parent: WeakRef<DataFeed>" design note — the engine remains
// the sole owner of every feed, and clones are registered as siblings.
type Clone struct {
	*Feed
	parent *Feed
}

// NewClone wires a Clone to observe parent; the Feed's own producer is a
// no-op pass-through since bars arrive by replay, not by independent load.
func NewClone(name string, parent *Feed) *Clone {
	return &Clone{
		Feed:   NewFeed(name, &passthroughProducer{}),
		parent: parent,
	}
}

// Parent returns the observed feed passed to the constructor.
func (c *Clone) Parent() *Feed { return c.parent }

// ReplayFrom copies the parent's current bar (at ago=0) into the clone,
// advancing the clone's own pointer.
func (c *Clone) ReplayFrom() {
	if c.parent == nil {
		return
	}
	b := Bar{
		Datetime:     linetime.Decode(c.parent.Line(LineDatetime).Get(0)),
		Open:         c.parent.Line(LineOpen).Get(0),
		High:         c.parent.Line(LineHigh).Get(0),
		Low:          c.parent.Line(LineLow).Get(0),
		Close:        c.parent.Line(LineClose).Get(0),
		Volume:       c.parent.Line(LineVolume).Get(0),
		OpenInterest: c.parent.Line(LineOpenInterest).Get(0),
	}
	c.writeBar(b)
}

// passthroughProducer never produces bars on its own; a Clone is fed only
// via ReplayFrom.
type passthroughProducer struct{}

func (passthroughProducer) Start() error               { return nil }
func (passthroughProducer) Stop() error                { return nil }
func (passthroughProducer) IsLive() bool                { return false }
func (passthroughProducer) GetNotifications() []Notification { return nil }
func (passthroughProducer) Load() (LoadResult, error)   { return LoadResult{End: true}, nil }
