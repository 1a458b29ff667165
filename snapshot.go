package geomap

import (
	"sync/atomic"
	"time"

	"github.com/gekko3d/geomap/tile"
	"github.com/segmentio/encoding/json"
)

type TileSnapshot struct {
	ID         tile.ID             `json:"id"`
	Level      uint32              `json:"level"`
	X          uint32              `json:"x"`
	Y          uint32              `json:"y"`
	Extent     [4]float64          `json:"extent"`
	Parent     tile.ID             `json:"parent,omitempty"`
	Displayed  bool                `json:"displayed"`
	Visible    bool                `json:"visible"`
	Elevation  tile.ElevationRange `json:"elevation"`
	Layers     []string            `json:"layers,omitempty"`
	Neighbours map[string]tile.ID  `json:"neighbours,omitempty"`
}

type LayerSnapshot struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Ready    bool    `json:"ready"`
	Loading  bool    `json:"loading"`
	Progress float64 `json:"progress"`
	Visible  bool    `json:"visible"`
	Frozen   bool    `json:"frozen"`
}

// MapSnapshot is a read-only copy of a map's tile tree, taken on the frame
// thread for readers on other goroutines.
type MapSnapshot struct {
	MapID  string          `json:"map_id"`
	CRS    string          `json:"crs"`
	Frame  uint64          `json:"frame"`
	Time   time.Time       `json:"time"`
	Tiles  []TileSnapshot  `json:"tiles"`
	Layers []LayerSnapshot `json:"layers"`
}

func (s *MapSnapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSnapshot(data []byte) (*MapSnapshot, error) {
	var s MapSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Displayed returns the snapshots of the displayed tiles.
func (s *MapSnapshot) Displayed() []TileSnapshot {
	var out []TileSnapshot
	for _, t := range s.Tiles {
		if t.Displayed {
			out = append(out, t)
		}
	}
	return out
}

type SnapshotContainer struct {
	latest atomic.Pointer[MapSnapshot]
}

func (c *SnapshotContainer) Update(s *MapSnapshot) {
	c.latest.Store(s)
}

func (c *SnapshotContainer) Get() *MapSnapshot {
	return c.latest.Load()
}
