package geomap

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Stage is one step of a frame. Stages run in the order Prelude, PreUpdate,
// Update, PostUpdate, Finale.
type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	Finale     = Stage{Name: "Finale"}
)

// StageTiming is how long a stage took in the last frame.
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
}

// Profiler times the stages of the current frame and keeps per-frame
// counters. Frame resets it before the first stage begins.
type Profiler struct {
	timings []StageTiming
	open    map[Stage]time.Time
	counts  map[string]int
}

func NewProfiler() *Profiler {
	return &Profiler{
		open:   make(map[Stage]time.Time),
		counts: make(map[string]int),
	}
}

// BeginScope starts timing s. Stages are reported in the order they were
// first begun.
func (p *Profiler) BeginScope(s Stage) {
	p.open[s] = time.Now()
	if p.index(s) < 0 {
		p.timings = append(p.timings, StageTiming{Stage: s})
	}
}

// EndScope stops timing s. Ending a stage that was never begun does nothing.
func (p *Profiler) EndScope(s Stage) {
	start, ok := p.open[s]
	if !ok {
		return
	}
	delete(p.open, s)
	p.timings[p.index(s)].Duration = time.Since(start)
}

func (p *Profiler) index(s Stage) int {
	return slices.IndexFunc(p.timings, func(st StageTiming) bool { return st.Stage == s })
}

// Timings returns a copy of the stage timings in stage order.
func (p *Profiler) Timings() []StageTiming {
	return slices.Clone(p.timings)
}

// Duration reports how long s took, or zero if it did not run.
func (p *Profiler) Duration(s Stage) time.Duration {
	if i := p.index(s); i >= 0 {
		return p.timings[i].Duration
	}
	return 0
}

func (p *Profiler) SetCount(name string, n int) {
	p.counts[name] = n
}

func (p *Profiler) Count(name string) int {
	return p.counts[name]
}

// Reset zeroes the timings and drops the counters of the previous frame.
// The stage order is kept.
func (p *Profiler) Reset() {
	for i := range p.timings {
		p.timings[i].Duration = 0
	}
	clear(p.open)
	clear(p.counts)
}

func (p *Profiler) String() string {
	var sb strings.Builder
	sb.WriteString("Timings:\n")
	for _, st := range p.timings {
		fmt.Fprintf(&sb, "  %-15s: %.2f ms\n", st.Stage.Name, float64(st.Duration.Microseconds())/1000)
	}
	sb.WriteString("\nStats:\n")
	for _, name := range slices.Sorted(maps.Keys(p.counts)) {
		fmt.Fprintf(&sb, "  %-15s: %d\n", name, p.counts[name])
	}
	return sb.String()
}
