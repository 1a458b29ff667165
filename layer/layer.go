// Package layer defines the data sources that populate map tiles.
//
// A layer never blocks the frame: Update submits fetches to the host's
// scheduler and the results are applied when the scheduler drains its inbox
// on the frame thread.
package layer

import (
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/geomap/geo"
	"github.com/gekko3d/geomap/queue"
	"github.com/gekko3d/geomap/tile"
)

var ErrAttached = errors.New("layer already attached")

type Kind int

const (
	Color Kind = iota
	Elevation
)

func (k Kind) String() string {
	switch k {
	case Color:
		return "color"
	case Elevation:
		return "elevation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Host is what a layer needs from the map it is attached to.
type Host interface {
	Scheduler() queue.Scheduler
	// TileChanged asks for the tile to be revisited on the next frame.
	TileChanged(id tile.ID)
	// RetryAt asks for the tile to be revisited once at has passed, when a
	// failed fetch becomes eligible again.
	RetryAt(id tile.ID, at time.Time)
	Logger() Logger
}

// Context carries per-frame data into Update.
type Context struct {
	Time time.Time
}

type Layer interface {
	ID() string
	Kind() Kind

	Loading() bool
	// Progress is in [0, 1].
	Progress() float64
	Ready() bool
	Frozen() bool
	Visible() bool
	Contains(e geo.Extent) bool

	Attach(h Host) error
	Detach()

	// Update requests the layer's data for t if it has none yet.
	Update(ctx Context, t *tile.Tile)
	// UnregisterNode forgets t; pending completions for it are discarded.
	UnregisterNode(t *tile.Tile)
	// SeedChild gives child a coarse copy of the parent's data.
	SeedChild(parent, child *tile.Tile)
	// TileReady reports whether the layer has nothing left to load for t.
	TileReady(t *tile.Tile) bool
}

// Options are shared by every layer kind.
type Options struct {
	// Extent limits the layer coverage. The zero extent covers everything.
	Extent geo.Extent
	// MinLevel and MaxLevel bound the tile levels the layer fetches data
	// for. A zero MaxLevel means no upper bound.
	MinLevel uint32
	MaxLevel uint32
	Hidden   bool
}
