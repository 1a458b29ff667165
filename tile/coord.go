package tile

import "fmt"

// Coord locates a tile in its quadtree. Roots are at level 0; every
// subdivision adds one level and doubles x and y.
type Coord struct {
	Level uint32
	X     uint32
	Y     uint32
}

// Child returns the coordinate of child i, using the fixed quadrant mapping
// 0=(2x, 2y), 1=(2x, 2y+1), 2=(2x+1, 2y), 3=(2x+1, 2y+1).
func (c Coord) Child(i int) Coord {
	if i < 0 || i > 3 {
		panic(fmt.Sprintf("tile: quadrant %d out of range", i))
	}
	return Coord{
		Level: c.Level + 1,
		X:     2*c.X + uint32(i/2),
		Y:     2*c.Y + uint32(i%2),
	}
}

// Parent returns the coordinate one level up; false for a root.
func (c Coord) Parent() (Coord, bool) {
	if c.Level == 0 {
		return Coord{}, false
	}
	return Coord{Level: c.Level - 1, X: c.X / 2, Y: c.Y / 2}, true
}

// Quadrant is the index of c among its siblings.
func (c Coord) Quadrant() int {
	return int(c.X%2)*2 + int(c.Y%2)
}

func (c Coord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Level, c.X, c.Y)
}
