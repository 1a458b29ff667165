package layer

import (
	"time"

	"github.com/gekko3d/geomap/tile"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

const (
	// MaxRetries is the number of failed fetches after which a tile stops
	// being retried.
	MaxRetries     = 3
	BaseRetryDelay = 500 * time.Millisecond
)

type tileState struct {
	state    State
	failures int
	retryAt  time.Time
}

// tracker holds the fetch state of every tile a layer has seen.
type tracker struct {
	tiles   map[tile.ID]*tileState
	loading int
}

func newTracker() *tracker {
	return &tracker{tiles: make(map[tile.ID]*tileState)}
}

func (tr *tracker) get(id tile.ID) *tileState {
	s, ok := tr.tiles[id]
	if !ok {
		s = &tileState{}
		tr.tiles[id] = s
	}
	return s
}

func (tr *tracker) state(id tile.ID) State {
	if s, ok := tr.tiles[id]; ok {
		return s.state
	}
	return Idle
}

// settled reports whether the tile's fetch has an outcome, loaded or
// failed. A failed tile waiting for a retry is settled: its siblings must
// not wait for it.
func (tr *tracker) settled(id tile.ID) bool {
	s := tr.state(id)
	return s == Ready || s == Failed
}

func (tr *tracker) shouldFetch(id tile.ID, now time.Time) bool {
	s, ok := tr.tiles[id]
	if !ok {
		return true
	}
	switch s.state {
	case Idle:
		return true
	case Failed:
		return s.failures < MaxRetries && !now.Before(s.retryAt)
	}
	return false
}

func (tr *tracker) setState(s *tileState, next State) {
	if s.state == Loading {
		tr.loading--
	}
	if next == Loading {
		tr.loading++
	}
	s.state = next
}

func (tr *tracker) begin(id tile.ID) {
	tr.setState(tr.get(id), Loading)
}

func (tr *tracker) succeed(id tile.ID) {
	s := tr.get(id)
	tr.setState(s, Ready)
	s.failures = 0
}

func (tr *tracker) drop(id tile.ID) {
	tr.setState(tr.get(id), Idle)
}

// fail schedules a retry with exponential backoff and returns its time.
// final is true once the tile has used up its retries.
func (tr *tracker) fail(id tile.ID, now time.Time) (retryAt time.Time, final bool) {
	s := tr.get(id)
	tr.setState(s, Failed)
	s.failures++
	s.retryAt = now.Add(BaseRetryDelay << (s.failures - 1))
	return s.retryAt, s.failures >= MaxRetries
}

func (tr *tracker) forget(id tile.ID) {
	if s, ok := tr.tiles[id]; ok {
		tr.setState(s, Idle)
		delete(tr.tiles, id)
	}
}

func (tr *tracker) reset() {
	tr.tiles = make(map[tile.ID]*tileState)
	tr.loading = 0
}

func (tr *tracker) progress() float64 {
	if len(tr.tiles) == 0 {
		return 1
	}
	return 1 - float64(tr.loading)/float64(len(tr.tiles))
}
