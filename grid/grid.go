// Package grid implements the staggered (MAC) grid used by the FLIP solver:
// grid-wide velocity and pressure storage, the cells that view it, and the
// pieces of the pressure-projection linear system.
package grid

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Grid owns the cells and every grid-wide scalar field. The slices are the
// single source of truth; cells only hold their index into them.
type Grid struct {
	width, height   float64
	nColumns, nRows int
	size            int
	deltaU, deltaV  float64

	gridPointsU []float64 // nColumns+1 vertical edge coordinates
	gridPointsV []float64 // nRows+1 horizontal edge coordinates
	cells       []Cell

	initialVelocityU []float64
	velocityU        []float64
	deltaVelocityU   []float64
	initialVelocityV []float64
	velocityV        []float64
	deltaVelocityV   []float64
	pressure         []float64

	maxVelocity      float64
	particlePoolSize int
}

// New builds a width×height domain split into nColumns×nRows cells.
func New(width, height float64, nColumns, nRows int) (*Grid, error) {
	if !(width > 0 && height > 0) {
		return nil, fmt.Errorf("%w: width=%g height=%g", ErrInvalidDimensions, width, height)
	}
	if !(nColumns > 0 && nRows > 0) {
		return nil, fmt.Errorf("%w: columns=%d rows=%d", ErrInvalidDimensions, nColumns, nRows)
	}

	size := nColumns * nRows
	g := &Grid{
		width:    width,
		height:   height,
		nColumns: nColumns,
		nRows:    nRows,
		size:     size,
		deltaU:   width / float64(nColumns),
		deltaV:   height / float64(nRows),

		initialVelocityU: make([]float64, size),
		velocityU:        make([]float64, size),
		deltaVelocityU:   make([]float64, size),
		initialVelocityV: make([]float64, size),
		velocityV:        make([]float64, size),
		deltaVelocityV:   make([]float64, size),
		pressure:         make([]float64, size),
	}

	// Edge coordinates are computed from the extent so the last one is exact.
	g.gridPointsU = make([]float64, nColumns+1)
	for i := range g.gridPointsU {
		g.gridPointsU[i] = float64(i) * width / float64(nColumns)
	}
	g.gridPointsV = make([]float64, nRows+1)
	for i := range g.gridPointsV {
		g.gridPointsV[i] = float64(i) * height / float64(nRows)
	}

	g.cells = make([]Cell, size)
	for y := 0; y < nRows; y++ {
		for x := 0; x < nColumns; x++ {
			minUV := mgl64.Vec2{g.gridPointsU[x], g.gridPointsV[y]}
			maxUV := mgl64.Vec2{g.gridPointsU[x+1], g.gridPointsV[y+1]}
			g.cells[g.ToIndex(x, y)] = newCell(g, x, y, minUV, maxUV)
		}
	}
	return g, nil
}

func (g *Grid) Width() float64  { return g.width }
func (g *Grid) Height() float64 { return g.height }
func (g *Grid) NColumns() int   { return g.nColumns }
func (g *Grid) NRows() int      { return g.nRows }
func (g *Grid) Size() int       { return g.size }
func (g *Grid) DeltaU() float64 { return g.deltaU }
func (g *Grid) DeltaV() float64 { return g.deltaV }

// GridPointsU returns the x coordinates of the vertical cell edges.
func (g *Grid) GridPointsU() []float64 { return g.gridPointsU }

// GridPointsV returns the y coordinates of the horizontal cell edges.
func (g *Grid) GridPointsV() []float64 { return g.gridPointsV }

// MaxVelocity returns the value computed by the last MaxVelocityUpdate.
func (g *Grid) MaxVelocity() float64 { return g.maxVelocity }

// SetParticlePoolSize sets the denominator used by Cell.Density.
func (g *Grid) SetParticlePoolSize(n int) { g.particlePoolSize = n }

// ParticlePoolSize returns the pool size used by Cell.Density.
func (g *Grid) ParticlePoolSize() int { return g.particlePoolSize }

// ToIndex converts cell coordinates to a row-major index.
func (g *Grid) ToIndex(x, y int) int {
	if x < 0 || x >= g.nColumns {
		panic(fmt.Sprintf("grid: invalid x-index: %d", x))
	}
	if y < 0 || y >= g.nRows {
		panic(fmt.Sprintf("grid: invalid y-index: %d", y))
	}
	return y*g.nColumns + x
}

// ToCartesian converts a row-major index back to cell coordinates.
func (g *Grid) ToCartesian(index int) (x, y int) {
	if index < 0 || index >= g.size {
		panic(fmt.Sprintf("grid: invalid index: %d", index))
	}
	return index % g.nColumns, index / g.nColumns
}

// Cells exposes the backing cell slice in index order.
func (g *Grid) Cells() []Cell { return g.cells }

// Cell returns the cell with the given index.
func (g *Grid) Cell(index int) *Cell {
	if index < 0 || index >= g.size {
		panic(fmt.Sprintf("grid: invalid index: %d", index))
	}
	return &g.cells[index]
}

// CellAt returns the cell at column x, row y.
func (g *Grid) CellAt(x, y int) *Cell {
	return &g.cells[g.ToIndex(x, y)]
}

// CellContaining maps a position to its cell. Coordinates are clamped to the
// grid, so points on (or beyond) the far edge map to the last column/row.
func (g *Grid) CellContaining(point mgl64.Vec2) *Cell {
	x := clampIndex(int(math.Floor(point.X()/g.deltaU)), g.nColumns)
	y := clampIndex(int(math.Floor(point.Y()/g.deltaV)), g.nRows)

	// floor(p/delta) and the stored edges can disagree by one ulp. A point
	// on a shared edge belongs to the upper cell.
	if x > 0 && point.X() < g.gridPointsU[x] {
		x--
	} else if x < g.nColumns-1 && point.X() >= g.gridPointsU[x+1] {
		x++
	}
	if y > 0 && point.Y() < g.gridPointsV[y] {
		y--
	} else if y < g.nRows-1 && point.Y() >= g.gridPointsV[y+1] {
		y++
	}
	return &g.cells[y*g.nColumns+x]
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (g *Grid) inside(point mgl64.Vec2) bool {
	return point.X() >= 0 && point.X() <= g.width &&
		point.Y() >= 0 && point.Y() <= g.height
}

// Velocity samples the velocity field. Points outside the domain read as
// zero so that advection overshoot never fails.
func (g *Grid) Velocity(point mgl64.Vec2) mgl64.Vec2 {
	if !g.inside(point) {
		return mgl64.Vec2{}
	}
	v, err := g.CellContaining(point).Velocity(point)
	if err != nil {
		return mgl64.Vec2{}
	}
	return v
}

// DeltaVelocity samples the per-step velocity change.
func (g *Grid) DeltaVelocity(point mgl64.Vec2) mgl64.Vec2 {
	if !g.inside(point) {
		return mgl64.Vec2{}
	}
	v, err := g.CellContaining(point).DeltaVelocity(point)
	if err != nil {
		return mgl64.Vec2{}
	}
	return v
}

// VelocityAtCell samples the velocity at the centre of cell (x, y).
func (g *Grid) VelocityAtCell(x, y int) mgl64.Vec2 {
	c := g.CellAt(x, y)
	v, _ := c.Velocity(c.centre)
	return v
}

// DeltaVelocityAtCell samples the velocity change at the centre of cell (x, y).
func (g *Grid) DeltaVelocityAtCell(x, y int) mgl64.Vec2 {
	c := g.CellAt(x, y)
	v, _ := c.DeltaVelocity(c.centre)
	return v
}

// DivergenceAtCell returns the divergence of cell (x, y).
func (g *Grid) DivergenceAtCell(x, y int) float64 {
	return g.CellAt(x, y).Divergence()
}

// DensityAtCell returns the particle density of cell (x, y).
func (g *Grid) DensityAtCell(x, y int) float64 {
	return g.CellAt(x, y).Density()
}

// CellCentres returns the centre of every cell in index order.
func (g *Grid) CellCentres() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, g.size)
	for i := range g.cells {
		out[i] = g.cells[i].centre
	}
	return out
}

// DeltaVelocityUpdate recomputes delta = current - initial for both
// components. Call it after anything that writes the current velocity.
func (g *Grid) DeltaVelocityUpdate() {
	for i := 0; i < g.size; i++ {
		g.deltaVelocityU[i] = g.velocityU[i] - g.initialVelocityU[i]
		g.deltaVelocityV[i] = g.velocityV[i] - g.initialVelocityV[i]
	}
}

// MaxVelocityUpdate recomputes the largest face-velocity magnitude.
func (g *Grid) MaxVelocityUpdate() {
	maxSq := 0.0
	for i := 0; i < g.size; i++ {
		sq := g.velocityU[i]*g.velocityU[i] + g.velocityV[i]*g.velocityV[i]
		if sq > maxSq {
			maxSq = sq
		}
	}
	g.maxVelocity = math.Sqrt(maxSq)
}

// ResetInitialVelocity zeroes the scatter accumulators.
func (g *Grid) ResetInitialVelocity() {
	clear(g.initialVelocityU)
	clear(g.initialVelocityV)
}

// ResetVelocity zeroes the current face velocities.
func (g *Grid) ResetVelocity() {
	clear(g.velocityU)
	clear(g.velocityV)
}

// Column returns the cells of column i ordered by row.
func (g *Grid) Column(i int) ([]*Cell, error) {
	if i < 0 || i >= g.nColumns {
		return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, i, g.nColumns)
	}
	out := make([]*Cell, 0, g.nRows)
	for idx := i; idx < g.size; idx += g.nColumns {
		out = append(out, &g.cells[idx])
	}
	return out, nil
}

// Row returns the cells of row i ordered by column.
func (g *Grid) Row(i int) ([]*Cell, error) {
	if i < 0 || i >= g.nRows {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, g.nRows)
	}
	out := make([]*Cell, 0, g.nColumns)
	start := i * g.nColumns
	for idx := start; idx < start+g.nColumns; idx++ {
		out = append(out, &g.cells[idx])
	}
	return out, nil
}

// CountLabel returns how many cells carry label l.
func (g *Grid) CountLabel(l Label) int {
	n := 0
	for i := range g.cells {
		if g.cells[i].label == l {
			n++
		}
	}
	return n
}
