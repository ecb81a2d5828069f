package hex

import "testing"

func TestNewDerivesThirdCoordinate(t *testing.T) {
	cases := []struct {
		q, r, s int
	}{
		{0, 0, 0},
		{1, 0, -1},
		{2, -3, 1},
		{-4, 4, 0},
	}
	for _, c := range cases {
		h := New(c.q, c.r)
		if h.S != c.s {
			t.Fatalf("New(%d,%d): expected s=%d, got %d", c.q, c.r, c.s, h.S)
		}
		if h.Q+h.R+h.S != 0 {
			t.Fatalf("New(%d,%d): coordinates do not sum to zero", c.q, c.r)
		}
	}
}

func TestNeighborsFixedOrder(t *testing.T) {
	h := New(0, 0)
	expected := [6]Hex{
		New(1, 0),  // E
		New(1, -1), // NE
		New(0, -1), // NW
		New(-1, 0), // W
		New(-1, 1), // SW
		New(0, 1),  // SE
	}
	got := h.Neighbors()
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("neighbor %d (%s): expected %s, got %s", i, Direction(i), expected[i], got[i])
		}
	}
}

func TestNeighborsSumToZero(t *testing.T) {
	h := New(3, -2)
	for i, n := range h.Neighbors() {
		if n.Q+n.R+n.S != 0 {
			t.Fatalf("neighbor %d of %s breaks the cube invariant: %s", i, h, n)
		}
		if Distance(h, n) != 1 {
			t.Fatalf("neighbor %d of %s is not adjacent: %s", i, h, n)
		}
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b Hex
		want int
	}{
		{New(0, 0), New(0, 0), 0},
		{New(0, 0), New(1, 0), 1},
		{New(0, 0), New(3, -3), 3},
		{New(-2, 1), New(2, -1), 4},
		{New(0, 0), New(2, 2), 4},
	}
	for _, c := range cases {
		if got := Distance(c.a, c.b); got != c.want {
			t.Fatalf("Distance(%s,%s): expected %d, got %d", c.a, c.b, c.want, got)
		}
		if got := Distance(c.b, c.a); got != c.want {
			t.Fatalf("Distance(%s,%s): expected symmetric %d, got %d", c.b, c.a, c.want, got)
		}
	}
}

func TestDirectionFrom(t *testing.T) {
	step, ok := DirectionFrom(New(0, 0), New(3, 0))
	if !ok || step != New(1, 0) {
		t.Fatalf("expected unit step E, got %s ok=%t", step, ok)
	}

	step, ok = DirectionFrom(New(2, -1), New(2, 2))
	if !ok || step != New(0, 1) {
		t.Fatalf("expected unit step SE, got %s ok=%t", step, ok)
	}

	if _, ok := DirectionFrom(New(0, 0), New(0, 0)); ok {
		t.Fatal("equal coordinates must not yield a direction")
	}
	if _, ok := DirectionFrom(New(0, 0), New(2, 1)); ok {
		t.Fatal("off-axis coordinates must not yield a direction")
	}
}

func TestGridCellCount(t *testing.T) {
	for radius := 0; radius <= 6; radius++ {
		cells := Grid(radius, 0.25)
		want := 3*radius*radius + 3*radius + 1
		if len(cells) != want {
			t.Fatalf("radius %d: expected %d cells, got %d", radius, want, len(cells))
		}
		seen := make(map[Hex]bool, len(cells))
		for _, c := range cells {
			if seen[c.At] {
				t.Fatalf("radius %d: duplicate cell %s", radius, c.At)
			}
			seen[c.At] = true
		}
	}
}

func TestGridStairOffsets(t *testing.T) {
	const step = 0.5
	for _, c := range Grid(3, step) {
		want := float64(Distance(Hex{}, c.At)) * step
		if c.LayerOffset != want {
			t.Fatalf("cell %s: expected layer offset %f, got %f", c.At, want, c.LayerOffset)
		}
	}
}

func TestBoundaryNeighborsOutsideGrid(t *testing.T) {
	radius := 2
	inGrid := make(map[Hex]bool)
	for _, c := range Grid(radius, 0) {
		inGrid[c.At] = true
	}

	corner := New(radius, 0)
	outside := 0
	for _, n := range corner.Neighbors() {
		if !inGrid[n] {
			outside++
			if InRadius(n, radius) {
				t.Fatalf("neighbor %s reported in radius but missing from grid", n)
			}
		}
	}
	if outside == 0 {
		t.Fatal("boundary hex should have neighbors outside the grid")
	}
}

func TestToAnchor(t *testing.T) {
	a := New(0, 0).ToAnchor(0)
	if a.X != 0 || a.Y != 0 || a.Z != 0 {
		t.Fatalf("origin anchor should be zero, got %+v", a)
	}

	b := New(0, 2).ToAnchor(0.5)
	if b.Z != 3.0 {
		t.Fatalf("expected z=3.0 for r=2, got %f", b.Z)
	}
	if b.Y != 0.5 {
		t.Fatalf("expected layer offset carried to y, got %f", b.Y)
	}
}
