// Package hex provides the cube-coordinate model for the hexagonal board.
// Coordinates satisfy Q+R+S == 0; values are immutable and comparable, so
// they can be used directly as map keys.
package hex

import "fmt"

// Hex is a cube coordinate on the board.
type Hex struct {
	Q, R, S int
}

// New derives the implicit third cube coordinate from axial (q, r).
func New(q, r int) Hex {
	return Hex{Q: q, R: r, S: -q - r}
}

// Direction indexes the six neighbor offsets in a fixed order. Iteration
// order matters for deterministic range and highlight computations.
type Direction int

const (
	DirE Direction = iota
	DirNE
	DirNW
	DirW
	DirSW
	DirSE
)

var directionNames = map[Direction]string{
	DirE:  "E",
	DirNE: "NE",
	DirNW: "NW",
	DirW:  "W",
	DirSW: "SW",
	DirSE: "SE",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DIR_%d", int(d))
}

// Directions lists the six unit offsets, ordered E, NE, NW, W, SW, SE.
var Directions = [6]Hex{
	{Q: 1, R: 0, S: -1},
	{Q: 1, R: -1, S: 0},
	{Q: 0, R: -1, S: 1},
	{Q: -1, R: 0, S: 1},
	{Q: -1, R: 1, S: 0},
	{Q: 0, R: 1, S: -1},
}

// Add returns the component-wise sum of two coordinates.
func (h Hex) Add(o Hex) Hex {
	return Hex{Q: h.Q + o.Q, R: h.R + o.R, S: h.S + o.S}
}

// Scale multiplies the coordinate by an integer factor.
func (h Hex) Scale(k int) Hex {
	return Hex{Q: h.Q * k, R: h.R * k, S: h.S * k}
}

// Neighbor returns the adjacent hex in the given direction.
func (h Hex) Neighbor(d Direction) Hex {
	return h.Add(Directions[d])
}

// Neighbors returns the six adjacent coordinates in fixed direction order.
func (h Hex) Neighbors() [6]Hex {
	var result [6]Hex
	for i, dir := range Directions {
		result[i] = h.Add(dir)
	}
	return result
}

// Distance returns the hex distance (|dq|+|dr|+|ds|)/2 between a and b.
func Distance(a, b Hex) int {
	return (abs(a.Q-b.Q) + abs(a.R-b.R) + abs(a.S-b.S)) / 2
}

// DirectionFrom returns the unit step that moves along the line from `from`
// through `to`, i.e. the direction pointing away from `from`. The second
// return value is false when the two coordinates are equal or not aligned on
// any of the six axes.
func DirectionFrom(from, to Hex) (Hex, bool) {
	dq := to.Q - from.Q
	dr := to.R - from.R
	ds := to.S - from.S
	dist := Distance(from, to)
	if dist == 0 {
		return Hex{}, false
	}
	if dq%dist != 0 || dr%dist != 0 || ds%dist != 0 {
		return Hex{}, false
	}
	step := Hex{Q: dq / dist, R: dr / dist, S: ds / dist}
	for _, dir := range Directions {
		if step == dir {
			return step, true
		}
	}
	return Hex{}, false
}

// Anchor is the layout-space position of a hex, consumed only by the
// renderer collaborator. The core produces it and never reasons in render
// space beyond this value.
type Anchor struct {
	X, Y, Z float64
}

// sqrt3 is precomputed for the pointy-top axial layout conversion.
const sqrt3 = 1.7320508075688772

// ToAnchor converts the coordinate to a layout-space anchor with the given
// vertical layer offset.
func (h Hex) ToAnchor(layerOffset float64) Anchor {
	return Anchor{
		X: sqrt3*float64(h.Q) + sqrt3/2*float64(h.R),
		Y: layerOffset,
		Z: 1.5 * float64(h.R),
	}
}

func (h Hex) String() string {
	return fmt.Sprintf("(%d,%d,%d)", h.Q, h.R, h.S)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
