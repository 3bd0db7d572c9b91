// Package systems contains the ECS systems that move the particle pool
// through one FLIP sub-step.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flip/components"
	"github.com/pthm-cable/flip/grid"
)

// TransferSystem scatters particle velocities onto the grid faces.
type TransferSystem struct {
	filter ecs.Filter2[components.Position, components.Velocity]
}

// NewTransferSystem creates a new transfer system.
func NewTransferSystem(w *ecs.World) *TransferSystem {
	return &TransferSystem{
		filter: *ecs.NewFilter2[components.Position, components.Velocity](w),
	}
}

// Update accumulates every particle's velocity into the initial (and current)
// face velocities. Contributions are divided by particles/simulationSize so
// the result does not scale with seeding density. The caller resets the
// accumulators beforehand.
func (s *TransferSystem) Update(g *grid.Grid, particles, simulationSize int) {
	if particles == 0 || simulationSize == 0 {
		return
	}
	invW := float64(simulationSize) / float64(particles)
	du, dv := g.DeltaU(), g.DeltaV()

	query := s.filter.Query()
	for query.Next() {
		pos, vel := query.Get()
		home := g.CellContaining(pos.Vec())

		// The kernel support is one spacing, so the 3x3 block around the
		// containing cell sees every non-zero weight.
		x0, x1 := max(home.X()-1, 0), min(home.X()+1, g.NColumns()-1)
		y0, y1 := max(home.Y()-1, 0), min(home.Y()+1, g.NRows()-1)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				c := g.CellAt(x, y)

				u := c.HalfEdge(grid.West)
				if k := Kernel(pos.X-u.X(), pos.Y-u.Y(), du, dv); k != 0 {
					c.SetInitialVelocityU(c.InitialVelocityU() + vel.X*k*invW)
				}
				v := c.HalfEdge(grid.South)
				if k := Kernel(pos.X-v.X(), pos.Y-v.Y(), du, dv); k != 0 {
					c.SetInitialVelocityV(c.InitialVelocityV() + vel.Y*k*invW)
				}
			}
		}
	}
}
