package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flip/components"
	"github.com/pthm-cable/flip/grid"
)

// AdvectionSystem applies the grid's velocity change to each particle and
// moves it forward.
type AdvectionSystem struct {
	filter ecs.Filter2[components.Position, components.Velocity]
}

// NewAdvectionSystem creates a new advection system.
func NewAdvectionSystem(w *ecs.World) *AdvectionSystem {
	return &AdvectionSystem{
		filter: *ecs.NewFilter2[components.Position, components.Velocity](w),
	}
}

// Update runs one explicit Euler step of length dt.
func (s *AdvectionSystem) Update(g *grid.Grid, dt float64) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel := query.Get()
		v := vel.Vec().Add(g.DeltaVelocity(pos.Vec()))
		vel.Set(v)
		pos.Set(pos.Vec().Add(v.Mul(dt)))
	}
}
