package geomap

import (
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Time is the frame clock of an Instance.
type Time struct {
	Time time.Time
	Dt   time.Duration
}

func (t *Time) advance(now time.Time) {
	if !t.Time.IsZero() {
		t.Dt = now.Sub(t.Time)
	}
	t.Time = now
}
