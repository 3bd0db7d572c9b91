package grid

import (
	"fmt"

	"github.com/pthm-cable/flip/linsolve"
)

// NegativeDivergence builds the right-hand side of the pressure system.
// Only FLUID cells get a non-zero entry. Faces shared with a SOLID (or
// missing) neighbour are taken at the solid velocity, which is zero.
func (g *Grid) NegativeDivergence() []float64 {
	b := make([]float64, g.size)
	inv := 1 / g.deltaU
	for i := range g.cells {
		c := &g.cells[i]
		if c.label != Fluid {
			continue
		}
		rhs := -inv * c.Divergence()

		if c.neighbourLabel(West) == Solid {
			rhs -= inv * c.VelocityU()
		}
		if c.neighbourLabel(East) == Solid {
			if e, ok := c.Neighbour(East); ok {
				rhs += inv * e.VelocityU()
			}
		}
		if c.neighbourLabel(South) == Solid {
			rhs -= inv * c.VelocityV()
		}
		if c.neighbourLabel(North) == Solid {
			if n, ok := c.Neighbour(North); ok {
				rhs += inv * n.VelocityV()
			}
		}
		b[i] = rhs
	}
	return b
}

// PressureMatrix assembles the symmetric pressure operator for the current
// labelling. Rows of non-FLUID cells are left empty.
func (g *Grid) PressureMatrix(dt, density float64) *linsolve.SymSparse {
	a := linsolve.NewSymSparse(g.size)
	scale := dt / (density * g.deltaU * g.deltaU)
	for i := range g.cells {
		c := &g.cells[i]
		if c.label != Fluid {
			continue
		}
		for _, d := range Directions {
			if c.neighbourLabel(d) != Solid {
				a.AddDiag(i, scale)
			}
		}
		// Only the +x and +y couplings are stored; the rest is symmetry.
		if e, ok := c.Neighbour(East); ok && e.label == Fluid {
			a.Add(i, e.index, -scale)
		}
		if n, ok := c.Neighbour(North); ok && n.label == Fluid {
			a.Add(i, n.index, -scale)
		}
	}
	return a
}

// SetPressures copies a solved pressure vector into the grid.
func (g *Grid) SetPressures(p []float64) error {
	if len(p) != g.size {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(p), g.size)
	}
	copy(g.pressure, p)
	return nil
}

// ApplyPressureGradient subtracts the pressure gradient from every face
// velocity. Each cell updates its own west (U) and south (V) face.
func (g *Grid) ApplyPressureGradient(dt, density float64) {
	scale := dt / (density * g.deltaU)
	for i := range g.cells {
		c := &g.cells[i]
		if u, ok := g.faceUpdate(c, West, scale); ok {
			c.SetVelocityU(c.VelocityU() - u)
		} else {
			c.SetVelocityU(0)
		}
		if v, ok := g.faceUpdate(c, South, scale); ok {
			c.SetVelocityV(c.VelocityV() - v)
		} else {
			c.SetVelocityV(0)
		}
	}
}

// faceUpdate returns the correction for the face of c towards d. A false
// result means the face is pinned to zero.
func (g *Grid) faceUpdate(c *Cell, d Direction, scale float64) (float64, bool) {
	other := c.neighbourLabel(d)
	if c.label != Fluid && other != Fluid {
		return 0, false
	}
	if c.label == Solid || other == Solid {
		return 0, false
	}
	if c.label == Empty {
		return 0, true
	}
	n, _ := c.Neighbour(d)
	return scale * (c.Pressure() - n.Pressure()), true
}
