package geomap

import (
	"github.com/gekko3d/geomap/tile"
	"github.com/google/uuid"
)

type ChangeKind int

const (
	// ChangeFull asks for a complete re-evaluation.
	ChangeFull ChangeKind = iota
	ChangeCamera
	// ChangeMap is a change of a whole map, e.g. a layer added.
	ChangeMap
	ChangeTile
)

// ChangeSource is something that changed since the last frame.
type ChangeSource struct {
	Kind  ChangeKind
	Owner uuid.UUID
	Tile  tile.ID
}

func FullChange() ChangeSource   { return ChangeSource{Kind: ChangeFull} }
func CameraChange() ChangeSource { return ChangeSource{Kind: ChangeCamera} }

func MapChange(m *Map) ChangeSource {
	return ChangeSource{Kind: ChangeMap, Owner: m.ID()}
}

func TileChange(m *Map, id tile.ID) ChangeSource {
	return ChangeSource{Kind: ChangeTile, Owner: m.ID(), Tile: id}
}
