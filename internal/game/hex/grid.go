package hex

// Cell is a generated grid position together with its stair layer offset.
type Cell struct {
	At          Hex
	LayerOffset float64
}

// Grid enumerates every hex with max(|q|,|r|,|s|) <= radius, yielding exactly
// 3R²+3R+1 cells. Each cell's layer offset is its distance from the origin
// multiplied by stairStep, a generation invariant the renderer relies on.
// Enumeration order is deterministic: q ascending, then r ascending.
func Grid(radius int, stairStep float64) []Cell {
	if radius < 0 {
		return nil
	}
	origin := Hex{}
	cells := make([]Cell, 0, 3*radius*radius+3*radius+1)
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			h := New(q, r)
			if !InRadius(h, radius) {
				continue
			}
			cells = append(cells, Cell{
				At:          h,
				LayerOffset: float64(Distance(origin, h)) * stairStep,
			})
		}
	}
	return cells
}

// InRadius reports whether h lies within the board of the given radius.
func InRadius(h Hex, radius int) bool {
	return abs(h.Q) <= radius && abs(h.R) <= radius && abs(h.S) <= radius
}
