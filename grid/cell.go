package grid

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Cell is one MAC-grid cell. It owns no scalar storage: velocity and
// pressure live in the grid-wide slices and are reached through the cell's
// index, so grid-level bulk updates and per-cell writes see the same memory.
//
// U is sampled at the cell's west half-edge and V at its south half-edge.
type Cell struct {
	g     *Grid
	index int
	x, y  int

	label  Label
	status Status

	minU, minV float64
	maxU, maxV float64
	deltaU     float64
	deltaV     float64
	centre     mgl64.Vec2
	halfEdge   [4]mgl64.Vec2

	particleCount int
	neighbours    [4]int
}

func newCell(g *Grid, x, y int, minUV, maxUV mgl64.Vec2) Cell {
	c := Cell{
		g:      g,
		index:  g.ToIndex(x, y),
		x:      x,
		y:      y,
		label:  Empty,
		status: Inactive,
		minU:   minUV.X(),
		minV:   minUV.Y(),
		maxU:   maxUV.X(),
		maxV:   maxUV.Y(),
	}
	c.deltaU = c.maxU - c.minU
	c.deltaV = c.maxV - c.minV
	c.centre = mgl64.Vec2{c.minU + c.deltaU/2, c.minV + c.deltaV/2}
	c.halfEdge[North] = mgl64.Vec2{c.centre.X(), c.maxV}
	c.halfEdge[South] = mgl64.Vec2{c.centre.X(), c.minV}
	c.halfEdge[East] = mgl64.Vec2{c.maxU, c.centre.Y()}
	c.halfEdge[West] = mgl64.Vec2{c.minU, c.centre.Y()}

	c.neighbours = [4]int{noNeighbour, noNeighbour, noNeighbour, noNeighbour}
	if y+1 < g.nRows {
		c.neighbours[North] = g.ToIndex(x, y+1)
	}
	if y > 0 {
		c.neighbours[South] = g.ToIndex(x, y-1)
	}
	if x+1 < g.nColumns {
		c.neighbours[East] = g.ToIndex(x+1, y)
	}
	if x > 0 {
		c.neighbours[West] = g.ToIndex(x-1, y)
	}
	return c
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell %d (%d,%d) %s/%s", c.index, c.x, c.y, c.label, c.status)
}

func (c *Cell) Index() int         { return c.index }
func (c *Cell) X() int             { return c.x }
func (c *Cell) Y() int             { return c.y }
func (c *Cell) Label() Label       { return c.label }
func (c *Cell) Status() Status     { return c.status }
func (c *Cell) DeltaU() float64    { return c.deltaU }
func (c *Cell) DeltaV() float64    { return c.deltaV }
func (c *Cell) MinU() float64      { return c.minU }
func (c *Cell) MinV() float64      { return c.minV }
func (c *Cell) MaxU() float64      { return c.maxU }
func (c *Cell) MaxV() float64      { return c.maxV }
func (c *Cell) Centre() mgl64.Vec2 { return c.centre }

// HalfEdge returns the midpoint of the given face. West and South are the
// U and V sample points.
func (c *Cell) HalfEdge(d Direction) mgl64.Vec2 { return c.halfEdge[d] }

func (c *Cell) SetLabel(l Label)   { c.label = l }
func (c *Cell) SetStatus(s Status) { c.status = s }

func (c *Cell) ParticleCount() int      { return c.particleCount }
func (c *Cell) IncrementParticleCount() { c.particleCount++ }
func (c *Cell) ResetParticleCount()     { c.particleCount = 0 }

// Neighbour returns the adjacent cell in direction d, or false at the domain
// edge.
func (c *Cell) Neighbour(d Direction) (*Cell, bool) {
	idx := c.neighbours[d]
	if idx == noNeighbour {
		return nil, false
	}
	return &c.g.cells[idx], true
}

// NeighbourIndices returns the indices of the existing neighbours in N, S,
// E, W order.
func (c *Cell) NeighbourIndices() []int {
	out := make([]int, 0, 4)
	for _, idx := range c.neighbours {
		if idx != noNeighbour {
			out = append(out, idx)
		}
	}
	return out
}

// neighbourLabel treats a missing neighbour as a wall.
func (c *Cell) neighbourLabel(d Direction) Label {
	n, ok := c.Neighbour(d)
	if !ok {
		return Solid
	}
	return n.label
}

// Density is the cell's share of the particle pool.
func (c *Cell) Density() float64 {
	if c.g.particlePoolSize == 0 {
		return 0
	}
	return float64(c.particleCount) / float64(c.g.particlePoolSize)
}

func (c *Cell) VelocityU() float64        { return c.g.velocityU[c.index] }
func (c *Cell) VelocityV() float64        { return c.g.velocityV[c.index] }
func (c *Cell) InitialVelocityU() float64 { return c.g.initialVelocityU[c.index] }
func (c *Cell) InitialVelocityV() float64 { return c.g.initialVelocityV[c.index] }
func (c *Cell) DeltaVelocityU() float64   { return c.g.deltaVelocityU[c.index] }
func (c *Cell) DeltaVelocityV() float64   { return c.g.deltaVelocityV[c.index] }
func (c *Cell) Pressure() float64         { return c.g.pressure[c.index] }

// SetInitialVelocityU stores the scattered U and makes it the current U until
// something else overwrites it.
func (c *Cell) SetInitialVelocityU(v float64) {
	c.g.initialVelocityU[c.index] = v
	c.SetVelocityU(v)
}

// SetInitialVelocityV is the V counterpart of SetInitialVelocityU.
func (c *Cell) SetInitialVelocityV(v float64) {
	c.g.initialVelocityV[c.index] = v
	c.SetVelocityV(v)
}

func (c *Cell) SetVelocityU(v float64) { c.g.velocityU[c.index] = v }
func (c *Cell) SetVelocityV(v float64) { c.g.velocityV[c.index] = v }
func (c *Cell) SetPressure(p float64)  { c.g.pressure[c.index] = p }

// Contains reports whether point lies inside the closed cell bounds.
func (c *Cell) Contains(point mgl64.Vec2) bool {
	return point.X() >= c.minU && point.X() <= c.maxU &&
		point.Y() >= c.minV && point.Y() <= c.maxV
}

// Velocity interpolates the velocity field at point, which must lie inside
// the cell.
func (c *Cell) Velocity(point mgl64.Vec2) (mgl64.Vec2, error) {
	return c.interpolate(point, c.g.velocityU, c.g.velocityV)
}

// DeltaVelocity interpolates the per-step velocity change at point.
func (c *Cell) DeltaVelocity(point mgl64.Vec2) (mgl64.Vec2, error) {
	return c.interpolate(point, c.g.deltaVelocityU, c.g.deltaVelocityV)
}

func (c *Cell) interpolate(point mgl64.Vec2, u, v []float64) (mgl64.Vec2, error) {
	if !c.Contains(point) {
		return mgl64.Vec2{}, fmt.Errorf("%w: (%g,%g) not in [%g,%g]x[%g,%g]",
			ErrPointOutsideCell, point.X(), point.Y(), c.minU, c.maxU, c.minV, c.maxV)
	}
	alphaU := (point.X() - c.minU) / c.deltaU
	alphaV := (point.Y() - c.minV) / c.deltaV

	var eastU, northV float64
	if idx := c.neighbours[East]; idx != noNeighbour {
		eastU = u[idx]
	}
	if idx := c.neighbours[North]; idx != noNeighbour {
		northV = v[idx]
	}
	return mgl64.Vec2{
		(1-alphaU)*u[c.index] + alphaU*eastU,
		(1-alphaV)*v[c.index] + alphaV*northV,
	}, nil
}

// Divergence is the forward difference of the face velocities towards the
// east and north faces.
func (c *Cell) Divergence() float64 {
	var eastU, northV float64
	if idx := c.neighbours[East]; idx != noNeighbour {
		eastU = c.g.velocityU[idx]
	}
	if idx := c.neighbours[North]; idx != noNeighbour {
		northV = c.g.velocityV[idx]
	}
	return (eastU - c.VelocityU()) + (northV - c.VelocityV())
}
