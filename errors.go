package geomap

import (
	"errors"
	"fmt"
)

var ErrDisposed = errors.New("map disposed")

// DuplicateLayerError is returned when a layer id is already attached to the
// map.
type DuplicateLayerError struct {
	LayerID string
}

func (e *DuplicateLayerError) Error() string {
	return fmt.Sprintf("layer %q is already attached", e.LayerID)
}

// NotAttachedError is returned when layers are added to a map that is not
// part of an Instance yet.
type NotAttachedError struct {
	LayerID string
}

func (e *NotAttachedError) Error() string {
	return fmt.Sprintf("cannot add layer %q: map is not attached to an instance", e.LayerID)
}

type LayerNotFoundError struct {
	LayerID string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("layer %q not found", e.LayerID)
}
