// Package sim runs the FLIP fluid simulation: it owns the MAC grid and the
// particle pool and advances them one frame at a time.
package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flip/components"
	"github.com/pthm-cable/flip/config"
	"github.com/pthm-cable/flip/grid"
	"github.com/pthm-cable/flip/linsolve"
	"github.com/pthm-cable/flip/systems"
	"github.com/pthm-cable/flip/telemetry"
)

// Options configures telemetry around a Simulator.
type Options struct {
	LogStats      bool                        // Log window and perf stats via slog
	OutputDir     string                      // Directory for CSV output (empty = disabled)
	StatsCallback func(telemetry.WindowStats) // Called after every flushed window
}

// Particle is a read-only snapshot of one particle.
type Particle struct {
	ID       uint32
	Position mgl64.Vec2
	Velocity mgl64.Vec2
}

// Simulator holds the complete simulation state.
type Simulator struct {
	cfg   *config.Config
	grid  *grid.Grid
	world *ecs.World

	particleFilter *ecs.Filter3[components.Position, components.Velocity, components.ParticleID]

	// Systems
	emitter   *systems.Emitter
	transfer  *systems.TransferSystem
	advection *systems.AdvectionSystem
	classify  *systems.ClassifySystem

	// Solver parameters
	simulationSize int
	cfl            float64
	density        float64
	pressure       bool
	solver         linsolve.Settings
	maxSubsteps    int

	// State
	frame      int
	simTime    float64
	fluidCells int

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool
}

// New builds the grid, marks the boundary, seeds the particle pool and
// classifies the initial cells. A nil cfg means the embedded defaults.
func New(cfg *config.Config, opts Options) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	g, err := grid.New(cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.Columns, cfg.Grid.Rows)
	if err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}

	world := ecs.NewWorld()
	s := &Simulator{
		cfg:   cfg,
		grid:  g,
		world: world,

		cfl:      cfg.Solver.CFL,
		density:  cfg.Solver.FluidDensity,
		pressure: cfg.Solver.Pressure,
		solver: linsolve.Settings{
			Tolerance:     cfg.Solver.Tolerance,
			MaxIterations: cfg.Solver.MaxIterations,
		},
		maxSubsteps: cfg.Frame.MaxSubsteps,

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:          telemetry.NewPerfCollector(),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
	}
	s.particleFilter = ecs.NewFilter3[components.Position, components.Velocity, components.ParticleID](s.world)
	s.emitter = systems.NewEmitter(s.world)
	s.transfer = systems.NewTransferSystem(s.world)
	s.advection = systems.NewAdvectionSystem(s.world)
	s.classify = systems.NewClassifySystem(s.world)

	if s.simulationSize, err = s.initBoundaries(cfg.Grid.BoundaryThickness); err != nil {
		return nil, err
	}
	s.seedParticles()
	s.fluidCells = s.classify.Update(s.grid)
	s.grid.MaxVelocityUpdate()

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, fmt.Errorf("writing config snapshot: %w", err)
		}
		s.output = om
	}

	slog.Info("simulator ready",
		"columns", cfg.Grid.Columns,
		"rows", cfg.Grid.Rows,
		"particles", s.emitter.Emitted(),
		"simulation_size", s.simulationSize,
		"pressure", s.pressure,
	)
	return s, nil
}

// Close flushes and closes telemetry output.
func (s *Simulator) Close() error {
	return s.output.Close()
}

// AddParticle places one particle. Its cell is classified on the next
// sub-step.
func (s *Simulator) AddParticle(position, velocity mgl64.Vec2) {
	s.emitter.Add(position, velocity)
	s.grid.SetParticlePoolSize(s.emitter.Emitted())
}

// SetPressureSolverMode turns the pressure projection on or off.
func (s *Simulator) SetPressureSolverMode(enabled bool) {
	s.pressure = enabled
	slog.Debug("pressure solver", "enabled", enabled)
}

func (s *Simulator) PressureSolverEnabled() bool { return s.pressure }
func (s *Simulator) Grid() *grid.Grid            { return s.grid }
func (s *Simulator) Config() *config.Config      { return s.cfg }
func (s *Simulator) SimulationSize() int         { return s.simulationSize }
func (s *Simulator) ParticleCount() int          { return s.emitter.Emitted() }
func (s *Simulator) Frame() int                  { return s.frame }
func (s *Simulator) SimTime() float64            { return s.simTime }
func (s *Simulator) FluidCells() int             { return s.fluidCells }

// CellCentres returns every cell centre.
func (s *Simulator) CellCentres() []mgl64.Vec3 {
	centres := s.grid.CellCentres()
	out := make([]mgl64.Vec3, len(centres))
	for i, c := range centres {
		out[i] = c.Vec3(0)
	}
	return out
}

// VelocityField returns the interpolated velocity at every cell centre.
func (s *Simulator) VelocityField() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, s.grid.Size())
	for y := 0; y < s.grid.NRows(); y++ {
		for x := 0; x < s.grid.NColumns(); x++ {
			out = append(out, s.grid.VelocityAtCell(x, y).Vec3(0))
		}
	}
	return out
}

// ActiveCells returns the centres of FLUID cells that are ACTIVE.
func (s *Simulator) ActiveCells() []mgl64.Vec3 {
	var out []mgl64.Vec3
	cells := s.grid.Cells()
	for i := range cells {
		c := &cells[i]
		if c.Label() == grid.Fluid && c.Status() == grid.Active {
			out = append(out, c.Centre().Vec3(0))
		}
	}
	return out
}

// Boundaries returns the centres of SOLID cells.
func (s *Simulator) Boundaries() []mgl64.Vec3 {
	var out []mgl64.Vec3
	cells := s.grid.Cells()
	for i := range cells {
		if cells[i].Label() == grid.Solid {
			out = append(out, cells[i].Centre().Vec3(0))
		}
	}
	return out
}

// Particles returns a snapshot of the pool ordered by creation.
func (s *Simulator) Particles() []Particle {
	out := make([]Particle, 0, s.emitter.Emitted())
	query := s.particleFilter.Query()
	for query.Next() {
		pos, vel, id := query.Get()
		out = append(out, Particle{ID: id.ID, Position: pos.Vec(), Velocity: vel.Vec()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ParticlePositions returns every particle position ordered by creation.
func (s *Simulator) ParticlePositions() []mgl64.Vec3 {
	particles := s.Particles()
	out := make([]mgl64.Vec3, len(particles))
	for i, p := range particles {
		out[i] = p.Position.Vec3(0)
	}
	return out
}
