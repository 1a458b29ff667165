package layer

import (
	"context"
	"errors"
	"time"

	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/queue"
	"github.com/gekko3d/geomap/tile"
)

// base is the part of a layer shared by every kind: identity, coverage,
// visibility and the per-tile fetch state.
type base struct {
	id   string
	kind Kind
	opts Options

	visible bool
	frozen  bool

	host   Host
	states *tracker
	now    time.Time
}

func newBase(id string, kind Kind, opts Options) base {
	return base{
		id:      id,
		kind:    kind,
		opts:    opts,
		visible: !opts.Hidden,
		states:  newTracker(),
	}
}

func (b *base) ID() string    { return b.id }
func (b *base) Kind() Kind    { return b.kind }
func (b *base) Visible() bool { return b.visible }
func (b *base) Frozen() bool  { return b.frozen }

// SetVisible returns whether the value changed.
func (b *base) SetVisible(v bool) bool {
	changed := b.visible != v
	b.visible = v
	return changed
}

// SetFrozen stops or resumes fetching. It returns whether the value changed.
func (b *base) SetFrozen(v bool) bool {
	changed := b.frozen != v
	b.frozen = v
	return changed
}

func (b *base) Loading() bool     { return b.states.loading > 0 }
func (b *base) Progress() float64 { return b.states.progress() }

// State is the fetch state of the tile with the given id.
func (b *base) State(id tile.ID) State { return b.states.state(id) }

func (b *base) Contains(e geo.Extent) bool {
	if b.opts.Extent.IsZero() {
		return true
	}
	return b.opts.Extent.Intersects(e)
}

func (b *base) inZoom(level uint32) bool {
	if level < b.opts.MinLevel {
		return false
	}
	return b.opts.MaxLevel == 0 || level <= b.opts.MaxLevel
}

func (b *base) Attach(h Host) error {
	if b.host != nil {
		return ErrAttached
	}
	b.host = h
	return nil
}

func (b *base) Detach() {
	b.host = nil
	b.states.reset()
}

func (b *base) UnregisterNode(t *tile.Tile) {
	b.states.forget(t.ID)
}

// wants reports whether Update should fetch data for t.
func (b *base) wants(ctx Context, t *tile.Tile) bool {
	b.now = ctx.Time
	if b.host == nil || !b.visible || b.frozen {
		return false
	}
	if !b.Contains(t.Extent) || !b.inZoom(t.Coord.Level) {
		return false
	}
	return b.states.shouldFetch(t.ID, ctx.Time)
}

// fetch submits execute for t. apply runs on the frame thread with the
// result, unless the tile was retired in the meantime.
func (b *base) fetch(t *tile.Tile, execute func(ctx context.Context) (any, error), apply func(t *tile.Tile, v any)) {
	b.states.begin(t.ID)
	host := b.host
	host.Scheduler().Submit(queue.NewRequest(
		execute,
		func() bool { return t.Disposed() || !t.Visible() },
		func(v any, err error) { b.complete(host, t, v, err, apply) },
	))
}

func (b *base) complete(host Host, t *tile.Tile, v any, err error, apply func(t *tile.Tile, v any)) {
	if t.Disposed() || b.host != host {
		return
	}
	switch {
	case errors.Is(err, queue.ErrDropped), errors.Is(err, context.Canceled):
		b.states.drop(t.ID)
	case err != nil:
		retryAt, final := b.states.fail(t.ID, b.now)
		if final {
			host.Logger().Warnf("layer %s: tile %s failed after %d attempts: %v", b.id, t.Coord, MaxRetries, err)
		} else {
			host.Logger().Debugf("layer %s: tile %s: %v, retry at %s", b.id, t.Coord, err, retryAt.Format(time.StampMilli))
			host.RetryAt(t.ID, retryAt)
		}
	default:
		apply(t, v)
		b.states.succeed(t.ID)
	}
	host.TileChanged(t.ID)
}
