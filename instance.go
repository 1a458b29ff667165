package geomap

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/gekko3d/geomap/queue"
	"github.com/gekko3d/geomap/tile"
)

var ErrAlreadyAdded = errors.New("map already added to an instance")

type InstanceOptions struct {
	Logger Logger
	Clock  Clock
}

// FrameStats describes one frame.
type FrameStats struct {
	Frame uint64
	// Completions is the number of layer fetches applied.
	Completions int
	Sources     int
	Visited     int
	Displayed   int
	Tiles       int
	Duration    time.Duration
}

// Instance is the host main loop: it owns the camera and the scheduler and
// runs the frame stages over its maps.
type Instance struct {
	camera    Camera
	scheduler queue.Scheduler
	logger    Logger
	clock     Clock
	profiler  *Profiler

	maps    []*Map
	pending []ChangeSource
	drained int

	frame uint64
	time  Time
}

func NewInstance(camera Camera, scheduler queue.Scheduler, opts InstanceOptions) *Instance {
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &Instance{
		camera:    camera,
		scheduler: scheduler,
		logger:    opts.Logger,
		clock:     opts.Clock,
		profiler:  NewProfiler(),
	}
}

func (in *Instance) Camera() Camera             { return in.camera }
func (in *Instance) Scheduler() queue.Scheduler { return in.scheduler }
func (in *Instance) Logger() Logger             { return in.logger }
func (in *Instance) Profiler() *Profiler        { return in.profiler }
func (in *Instance) Time() Time                 { return in.time }

func (in *Instance) Maps() []*Map {
	return slices.Clone(in.maps)
}

// Add attaches m to the instance, which enables AddLayer on it.
func (in *Instance) Add(m *Map) error {
	if m.disposed {
		return ErrDisposed
	}
	if m.instance != nil {
		return ErrAlreadyAdded
	}
	m.instance = in
	m.logger = in.logger
	in.maps = append(in.maps, m)
	in.Notify(MapChange(m))
	return nil
}

func (in *Instance) remove(m *Map) {
	in.maps = slices.DeleteFunc(in.maps, func(x *Map) bool { return x == m })
}

// Notify records a change to process on the next frame.
func (in *Instance) Notify(src ChangeSource) {
	in.pending = append(in.pending, src)
}

// NotifyCamera must be called after moving the camera.
func (in *Instance) NotifyCamera() {
	in.Notify(CameraChange())
}

func (in *Instance) HasPendingChanges() bool {
	return len(in.pending) > 0
}

// Frame runs one frame: completions are applied, then every map runs
// PreUpdate, Update on the returned tiles breadth-first, and PostUpdate.
func (in *Instance) Frame() FrameStats {
	start := time.Now()
	in.time.advance(in.clock.Now())
	in.frame++
	ctx := FrameContext{Camera: in.camera, Time: in.time.Time, Frame: in.frame}
	p := in.profiler
	p.Reset()

	p.BeginScope(Prelude)
	in.drained += in.scheduler.Drain()
	in.wakeRetries(in.time.Time)
	p.EndScope(Prelude)

	sources := in.pending
	in.pending = nil
	stats := FrameStats{Frame: in.frame, Completions: in.drained, Sources: len(sources)}
	in.drained = 0

	p.BeginScope(PreUpdate)
	roots := make([][]tile.ID, len(in.maps))
	for i, m := range in.maps {
		roots[i] = m.PreUpdate(ctx, sources)
	}
	p.EndScope(PreUpdate)

	p.BeginScope(Update)
	for i, m := range in.maps {
		mapStart := time.Now()
		next := roots[i]
		for len(next) > 0 {
			id := next[0]
			next = next[1:]
			next = append(next, m.Update(ctx, id)...)
			stats.Visited++
		}
		m.metrics.observeFrame(time.Since(mapStart).Seconds())
	}
	p.EndScope(Update)

	p.BeginScope(PostUpdate)
	for _, m := range in.maps {
		m.PostUpdate(ctx)
	}
	p.EndScope(PostUpdate)

	p.BeginScope(Finale)
	for _, m := range in.maps {
		stats.Displayed += len(m.DisplayedTiles())
		stats.Tiles += m.TileCount()
	}
	p.SetCount("visited", stats.Visited)
	p.SetCount("displayed", stats.Displayed)
	p.SetCount("tiles", stats.Tiles)
	p.SetCount("completions", stats.Completions)
	p.EndScope(Finale)

	stats.Duration = time.Since(start)
	if in.logger.DebugEnabled() {
		in.logger.Debugf("frame %d: %d sources, %d visited, %d displayed, %d tiles in %s",
			stats.Frame, stats.Sources, stats.Visited, stats.Displayed, stats.Tiles, stats.Duration)
	}
	return stats
}

func (in *Instance) wakeRetries(now time.Time) {
	for _, m := range in.maps {
		m.wakeRetries(now)
	}
}

// Tick applies completions and due retries, then renders a frame if they or
// anything else changed the scene. It reports whether a frame ran.
func (in *Instance) Tick() bool {
	in.drained += in.scheduler.Drain()
	in.wakeRetries(in.clock.Now())
	if !in.HasPendingChanges() {
		return false
	}
	in.Frame()
	return true
}

// Run renders a first frame, then calls Tick every interval until ctx is
// done.
func (in *Instance) Run(ctx context.Context, interval time.Duration) error {
	in.Frame()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		in.Tick()
	}
}
