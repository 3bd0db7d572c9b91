package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/flip/config"
	"github.com/pthm-cable/flip/grid"
	"github.com/pthm-cable/flip/systems"
)

// initBoundaries marks a SOLID ring of the given thickness around the domain
// and returns the number of cells left for the fluid.
func (s *Simulator) initBoundaries(thickness int) (int, error) {
	cols, rows := s.grid.NColumns(), s.grid.NRows()
	for t := 0; t < thickness; t++ {
		for _, line := range []struct {
			get func(int) ([]*grid.Cell, error)
			i   int
		}{
			{s.grid.Column, t},
			{s.grid.Column, cols - 1 - t},
			{s.grid.Row, t},
			{s.grid.Row, rows - 1 - t},
		} {
			cells, err := line.get(line.i)
			if err != nil {
				return 0, fmt.Errorf("marking boundary: %w", err)
			}
			for _, c := range cells {
				c.SetLabel(grid.Solid)
				c.SetStatus(grid.Inactive)
			}
		}
	}
	return s.grid.Size() - s.grid.CountLabel(grid.Solid), nil
}

// seedRegion resolves the configured region, defaulting to the area inside
// the boundary ring.
func (s *Simulator) seedRegion() systems.Region {
	r := s.cfg.Particles.Region
	if !r.IsZero() {
		return systems.Region{Min: mgl64.Vec2{r.MinX, r.MinY}, Max: mgl64.Vec2{r.MaxX, r.MaxY}}
	}
	t := float64(s.cfg.Grid.BoundaryThickness)
	dx, dy := s.grid.DeltaU(), s.grid.DeltaV()
	return systems.Region{
		Min: mgl64.Vec2{t * dx, t * dy},
		Max: mgl64.Vec2{s.grid.Width() - t*dx, s.grid.Height() - t*dy},
	}
}

func (s *Simulator) seedParticles() {
	p := s.cfg.Particles
	region := s.seedRegion()
	if p.Velocity == config.VelocityCurl {
		s.emitter.SetVelocityFunc(systems.CurlField(systems.NewNoise(p.Seed), p.NoiseScale, p.MaxSpeed))
	}
	switch p.Mode {
	case config.ModePerCell:
		s.emitter.EmitPerCell(s.grid, p.PerCell, p.Seed, p.MaxSpeed, region)
	default:
		s.emitter.EmitRandom(p.Count, p.Seed, p.MaxSpeed, region)
	}
	s.grid.SetParticlePoolSize(s.emitter.Emitted())
}
