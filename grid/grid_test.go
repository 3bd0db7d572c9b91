package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pthm-cable/flip/linsolve"
)

func mustGrid(t *testing.T, w, h float64, cols, rows int) *Grid {
	t.Helper()
	g, err := New(w, h, cols, rows)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

// labelRing marks the outer ring SOLID and everything else with inner.
func labelRing(g *Grid, inner Label) {
	for i := range g.cells {
		c := &g.cells[i]
		if c.x == 0 || c.y == 0 || c.x == g.nColumns-1 || c.y == g.nRows-1 {
			c.SetLabel(Solid)
		} else {
			c.SetLabel(inner)
		}
	}
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	tests := []struct {
		name       string
		w, h       float64
		cols, rows int
	}{
		{"zero width", 0, 10, 5, 5},
		{"negative height", 10, -1, 5, 5},
		{"zero columns", 10, 10, 0, 5},
		{"negative rows", 10, 10, 5, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h, tt.cols, tt.rows)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("expected ErrInvalidDimensions, got %v", err)
			}
		})
	}
}

func TestIndexRoundTrip(t *testing.T) {
	g := mustGrid(t, 7, 3, 7, 3)
	for idx := 0; idx < g.Size(); idx++ {
		x, y := g.ToCartesian(idx)
		if got := g.ToIndex(x, y); got != idx {
			t.Errorf("ToIndex(ToCartesian(%d)) = %d", idx, got)
		}
		if c := g.Cell(idx); c.X() != x || c.Y() != y || c.Index() != idx {
			t.Errorf("cell %d has coordinates (%d,%d)", idx, c.X(), c.Y())
		}
	}
}

func TestToIndexPanicsOutOfRange(t *testing.T) {
	g := mustGrid(t, 4, 4, 4, 4)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for x = nColumns")
		}
	}()
	g.ToIndex(4, 0)
}

func TestGeometry(t *testing.T) {
	g := mustGrid(t, 10, 6, 5, 3)
	if g.DeltaU() != 2 || g.DeltaV() != 2 {
		t.Fatalf("delta = (%v,%v), want (2,2)", g.DeltaU(), g.DeltaV())
	}
	if n := len(g.GridPointsU()); n != 6 {
		t.Errorf("len(GridPointsU) = %d, want 6", n)
	}
	if last := g.GridPointsU()[5]; last != 10 {
		t.Errorf("last U grid point = %v, want 10", last)
	}

	c := g.CellAt(1, 2)
	if want := (mgl64.Vec2{3, 5}); c.Centre() != want {
		t.Errorf("centre = %v, want %v", c.Centre(), want)
	}
	if want := (mgl64.Vec2{2, 5}); c.HalfEdge(West) != want {
		t.Errorf("west half-edge = %v, want %v", c.HalfEdge(West), want)
	}
	if want := (mgl64.Vec2{3, 4}); c.HalfEdge(South) != want {
		t.Errorf("south half-edge = %v, want %v", c.HalfEdge(South), want)
	}
	if _, ok := c.Neighbour(North); ok {
		t.Error("top row cell should have no north neighbour")
	}
	if e, ok := c.Neighbour(East); !ok || e.Index() != g.ToIndex(2, 2) {
		t.Error("east neighbour mismatch")
	}
	if got := len(g.CellAt(0, 0).NeighbourIndices()); got != 2 {
		t.Errorf("corner has %d neighbours, want 2", got)
	}
}

func TestCellSettersAliasGridSlices(t *testing.T) {
	g := mustGrid(t, 4, 4, 4, 4)
	c := g.CellAt(2, 1)

	c.SetInitialVelocityU(1.5)
	if g.initialVelocityU[c.Index()] != 1.5 || g.velocityU[c.Index()] != 1.5 {
		t.Error("SetInitialVelocityU did not write both slices")
	}
	c.SetVelocityU(4)
	c.SetVelocityV(-2)
	g.DeltaVelocityUpdate()
	if c.DeltaVelocityU() != 2.5 {
		t.Errorf("delta U = %v, want 2.5", c.DeltaVelocityU())
	}
	if c.DeltaVelocityV() != -2 {
		t.Errorf("delta V = %v, want -2", c.DeltaVelocityV())
	}

	g.ResetInitialVelocity()
	if c.InitialVelocityU() != 0 {
		t.Error("ResetInitialVelocity not visible through cell")
	}
	if err := g.SetPressures(make([]float64, g.Size())); err != nil {
		t.Fatal(err)
	}
	c.SetPressure(7)
	if g.pressure[c.Index()] != 7 {
		t.Error("SetPressure did not reach the grid slice")
	}
}

func TestColumnRow(t *testing.T) {
	g := mustGrid(t, 3, 2, 3, 2)
	col, err := g.Column(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(col) != 2 || col[0].Index() != 1 || col[1].Index() != 4 {
		t.Errorf("Column(1) = %v", col)
	}
	row, err := g.Row(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != 3 || row[0].Index() != 3 || row[2].Index() != 5 {
		t.Errorf("Row(1) = %v", row)
	}

	if _, err := g.Column(3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Column(3): expected ErrOutOfRange, got %v", err)
	}
	if _, err := g.Row(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Row(-1): expected ErrOutOfRange, got %v", err)
	}
}

func TestCellContaining(t *testing.T) {
	g := mustGrid(t, 1, 1, 3, 3)
	tests := []struct {
		name  string
		point mgl64.Vec2
		x, y  int
	}{
		{"origin", mgl64.Vec2{0, 0}, 0, 0},
		{"interior", mgl64.Vec2{0.5, 0.9}, 1, 2},
		{"far edge", mgl64.Vec2{1, 1}, 2, 2},
		{"beyond far edge", mgl64.Vec2{5, 0.1}, 2, 0},
		{"negative", mgl64.Vec2{-3, 0.5}, 0, 1},
		{"on interior edge", mgl64.Vec2{1.0 / 3, 2.0 / 3}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := g.CellContaining(tt.point)
			if c.X() != tt.x || c.Y() != tt.y {
				t.Errorf("got (%d,%d), want (%d,%d)", c.X(), c.Y(), tt.x, tt.y)
			}
		})
	}
}

func TestVelocityOutsideDomainIsZero(t *testing.T) {
	g := mustGrid(t, 2, 2, 2, 2)
	for i := range g.cells {
		g.cells[i].SetVelocityU(1)
		g.cells[i].SetVelocityV(1)
	}
	for _, p := range []mgl64.Vec2{{-0.1, 1}, {1, 2.5}, {3, 3}} {
		if v := g.Velocity(p); v != (mgl64.Vec2{}) {
			t.Errorf("Velocity(%v) = %v, want zero", p, v)
		}
		if v := g.DeltaVelocity(p); v != (mgl64.Vec2{}) {
			t.Errorf("DeltaVelocity(%v) = %v, want zero", p, v)
		}
	}
}

func TestCellVelocityOutsideCell(t *testing.T) {
	g := mustGrid(t, 2, 2, 2, 2)
	_, err := g.CellAt(0, 0).Velocity(mgl64.Vec2{1.5, 0.5})
	if !errors.Is(err, ErrPointOutsideCell) {
		t.Errorf("expected ErrPointOutsideCell, got %v", err)
	}
}

func TestInterpolation(t *testing.T) {
	g := mustGrid(t, 4, 4, 4, 4)
	c := g.CellAt(1, 1)
	c.SetVelocityU(1)
	e, _ := c.Neighbour(East)
	e.SetVelocityU(3)
	c.SetVelocityV(-2)
	n, _ := c.Neighbour(North)
	n.SetVelocityV(2)

	if got := g.VelocityAtCell(1, 1); got != (mgl64.Vec2{2, 0}) {
		t.Errorf("centre velocity = %v, want (2,0)", got)
	}
	v, err := c.Velocity(mgl64.Vec2{1.25, 1.75})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v.X()-1.5) > 1e-12 || math.Abs(v.Y()-1) > 1e-12 {
		t.Errorf("velocity = %v, want (1.5,1)", v)
	}

	// Missing neighbours contribute zero.
	edge := g.CellAt(3, 3)
	edge.SetVelocityU(2)
	if got := g.VelocityAtCell(3, 3); got.X() != 1 {
		t.Errorf("edge centre U = %v, want 1", got.X())
	}
}

func TestDivergence(t *testing.T) {
	g := mustGrid(t, 3, 3, 3, 3)
	c := g.CellAt(1, 1)
	c.SetVelocityU(1)
	c.SetVelocityV(1)
	e, _ := c.Neighbour(East)
	e.SetVelocityU(4)
	n, _ := c.Neighbour(North)
	n.SetVelocityV(0)
	if got := g.DivergenceAtCell(1, 1); got != 2 {
		t.Errorf("divergence = %v, want 2", got)
	}
}

func TestMaxVelocityUpdate(t *testing.T) {
	g := mustGrid(t, 2, 2, 2, 2)
	g.CellAt(1, 0).SetVelocityU(3)
	g.CellAt(1, 0).SetVelocityV(-4)
	g.CellAt(0, 1).SetVelocityU(1)
	g.MaxVelocityUpdate()
	if g.MaxVelocity() != 5 {
		t.Errorf("MaxVelocity = %v, want 5", g.MaxVelocity())
	}
}

func TestDensity(t *testing.T) {
	g := mustGrid(t, 2, 2, 2, 2)
	c := g.CellAt(0, 0)
	c.IncrementParticleCount()
	if c.Density() != 0 {
		t.Error("density with empty pool should be 0")
	}
	g.SetParticlePoolSize(4)
	if got := g.DensityAtCell(0, 0); got != 0.25 {
		t.Errorf("density = %v, want 0.25", got)
	}
}

func TestPressureMatrixStructure(t *testing.T) {
	g := mustGrid(t, 4, 4, 4, 4)
	labelRing(g, Fluid)
	dt, rho := 0.5, 2.0
	scale := dt / (rho * g.DeltaU() * g.DeltaU())

	a := g.PressureMatrix(dt, rho)
	i := g.ToIndex(1, 1)
	if got := a.At(i, i); got != 2*scale {
		t.Errorf("diagonal = %v, want %v", got, 2*scale)
	}
	east, north := g.ToIndex(2, 1), g.ToIndex(1, 2)
	if got := a.At(i, east); got != -scale {
		t.Errorf("east coupling = %v, want %v", got, -scale)
	}
	if got := a.At(north, i); got != -scale {
		t.Errorf("north coupling (mirrored) = %v, want %v", got, -scale)
	}
	if got := a.At(i, g.ToIndex(2, 2)); got != 0 {
		t.Errorf("diagonal neighbour coupling = %v, want 0", got)
	}
	if got := a.At(0, 0); got != 0 {
		t.Errorf("solid row diagonal = %v, want 0", got)
	}

	// An EMPTY neighbour still counts on the diagonal but is not coupled.
	g.CellAt(2, 1).SetLabel(Empty)
	a = g.PressureMatrix(dt, rho)
	if got := a.At(i, i); got != 2*scale {
		t.Errorf("diagonal with empty neighbour = %v, want %v", got, 2*scale)
	}
	if got := a.At(i, east); got != 0 {
		t.Errorf("coupling to empty cell = %v, want 0", got)
	}
}

func TestNegativeDivergenceSolidFaces(t *testing.T) {
	g := mustGrid(t, 3, 3, 3, 3)
	labelRing(g, Fluid)
	c := g.CellAt(1, 1)
	c.SetVelocityU(2) // west face, shared with a solid cell
	e, _ := c.Neighbour(East)
	e.SetVelocityU(5) // east face, shared with a solid cell

	b := g.NegativeDivergence()
	// Both solid faces are taken at zero velocity.
	if b[c.Index()] != 0 {
		t.Errorf("rhs = %v, want 0", b[c.Index()])
	}
	for i, v := range b {
		if i != c.Index() && v != 0 {
			t.Errorf("non-fluid cell %d has rhs %v", i, v)
		}
	}
}

func TestProjectionIsDivergenceFree(t *testing.T) {
	g := mustGrid(t, 8, 8, 8, 8)
	labelRing(g, Fluid)
	for x := 1; x < 7; x++ {
		g.CellAt(x, 6).SetLabel(Empty)
	}
	for i := range g.cells {
		g.cells[i].SetVelocityU(math.Sin(float64(3 * i)))
		g.cells[i].SetVelocityV(math.Cos(float64(5 * i)))
	}

	dt, rho := 0.1, 1.0
	res, err := linsolve.ConjugateGradient(g.PressureMatrix(dt, rho), g.NegativeDivergence(),
		linsolve.Settings{Tolerance: 1e-12})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if err := g.SetPressures(res.X); err != nil {
		t.Fatal(err)
	}
	g.ApplyPressureGradient(dt, rho)

	checked := 0
	for i := range g.cells {
		c := &g.cells[i]
		if c.Label() != Fluid {
			continue
		}
		interior := true
		for _, d := range Directions {
			if c.neighbourLabel(d) == Empty {
				interior = false
			}
		}
		if !interior {
			continue
		}
		checked++
		if div := c.Divergence(); math.Abs(div) > 1e-8 {
			t.Errorf("cell (%d,%d) divergence = %v", c.X(), c.Y(), div)
		}
	}
	if checked == 0 {
		t.Fatal("no interior fluid cells checked")
	}

	// Faces touching a solid cell are pinned.
	if u := g.CellAt(1, 3).VelocityU(); u != 0 {
		t.Errorf("solid wall face U = %v, want 0", u)
	}
}

func TestSetPressuresLength(t *testing.T) {
	g := mustGrid(t, 2, 2, 2, 2)
	if err := g.SetPressures([]float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}
