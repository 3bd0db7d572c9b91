package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flip/components"
	"github.com/pthm-cable/flip/grid"
)

// boundaryMargin is the distance from a domain edge inside which a particle
// has its velocity reflected.
const boundaryMargin = 1.0

// BoundaryCollide negates each velocity component whose axis puts the
// particle within boundaryMargin of the domain edge. Position is not
// corrected.
func BoundaryCollide(pos *components.Position, vel *components.Velocity, width, height float64) {
	if pos.X < boundaryMargin || pos.X > width-boundaryMargin {
		vel.X = -vel.X
	}
	if pos.Y < boundaryMargin || pos.Y > height-boundaryMargin {
		vel.Y = -vel.Y
	}
}

// ClassifySystem recomputes cell occupancy from particle positions.
type ClassifySystem struct {
	filter ecs.Filter2[components.Position, components.Velocity]
}

// NewClassifySystem creates a new classification system.
func NewClassifySystem(w *ecs.World) *ClassifySystem {
	return &ClassifySystem{
		filter: *ecs.NewFilter2[components.Position, components.Velocity](w),
	}
}

// Update demotes every FLUID cell to EMPTY, then promotes the cell of each
// particle. A particle landing in a cell that is already claimed (or SOLID)
// bounces off the domain edge instead of being counted twice. Returns the
// number of FLUID cells.
func (s *ClassifySystem) Update(g *grid.Grid) int {
	cells := g.Cells()
	for i := range cells {
		c := &cells[i]
		if c.Label() == grid.Fluid {
			c.SetLabel(grid.Empty)
			c.SetStatus(grid.Inactive)
			c.ResetParticleCount()
		}
	}

	fluid := 0
	width, height := g.Width(), g.Height()
	query := s.filter.Query()
	for query.Next() {
		pos, vel := query.Get()
		c := g.CellContaining(pos.Vec())
		if c.Label() == grid.Empty {
			c.SetLabel(grid.Fluid)
			c.SetStatus(grid.Active)
			c.IncrementParticleCount()
			fluid++
			continue
		}
		BoundaryCollide(pos, vel, width, height)
	}
	return fluid
}
