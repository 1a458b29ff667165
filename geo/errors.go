package geo

import (
	"errors"
	"fmt"
)

// ErrCRSMismatch is returned when combining extents of different CRS.
var ErrCRSMismatch = errors.New("crs mismatch")

// InvalidExtentError indicates bounds with west >= east or south >= north.
type InvalidExtentError struct {
	CRS                      string
	West, East, South, North float64
}

func (e *InvalidExtentError) Error() string {
	return fmt.Sprintf("invalid extent %s: west=%g east=%g south=%g north=%g (need west < east and south < north)",
		e.CRS, e.West, e.East, e.South, e.North)
}
