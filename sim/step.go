package sim

import (
	"errors"
	"log/slog"
	"math"

	"github.com/pthm-cable/flip/linsolve"
	"github.com/pthm-cable/flip/telemetry"
)

// AdvanceFrame advances the simulation by one frame. The frame is split
// into CFL-limited sub-steps; a zero grid velocity runs it as one step.
func (s *Simulator) AdvanceFrame() telemetry.FrameStats {
	frameDuration := s.cfg.Derived.FrameDuration
	stats := telemetry.FrameStats{MinDt: frameDuration}

	remaining := frameDuration
	for remaining > 0 {
		dt := remaining
		if maxV := s.grid.MaxVelocity(); maxV > 0 {
			dt = math.Min(s.cfl/maxV, remaining)
		}
		if stats.Substeps == s.maxSubsteps-1 && dt < remaining {
			slog.Warn("sub-step limit reached, finishing frame in one step",
				"frame", s.frame+1,
				"substeps", stats.Substeps,
				"remaining", remaining,
				"max_velocity", s.grid.MaxVelocity(),
			)
			dt = remaining
			stats.Collapsed = true
		}

		s.step(dt, &stats)

		remaining -= dt
		stats.Substeps++
		stats.MinDt = math.Min(stats.MinDt, dt)
	}

	s.frame++
	s.simTime += frameDuration

	stats.Frame = s.frame
	stats.SimTimeSec = s.simTime
	stats.MaxVelocity = s.grid.MaxVelocity()
	stats.FluidCells = s.fluidCells

	s.recordFrame(stats)
	return stats
}

// step runs one FLIP sub-step of length dt.
func (s *Simulator) step(dt float64, stats *telemetry.FrameStats) {
	s.perf.StartStep()

	s.perf.StartPhase(telemetry.PhaseTransfer)
	s.grid.ResetInitialVelocity()
	s.grid.ResetVelocity()
	s.transfer.Update(s.grid, s.emitter.Emitted(), s.simulationSize)

	if s.pressure {
		s.perf.StartPhase(telemetry.PhasePressure)
		s.project(dt, stats)
	}
	stats.DivergenceMean, stats.DivergenceP90 = s.divergenceStats()
	s.grid.DeltaVelocityUpdate()

	s.perf.StartPhase(telemetry.PhaseAdvect)
	s.advection.Update(s.grid, dt)
	s.grid.MaxVelocityUpdate()

	s.perf.StartPhase(telemetry.PhaseClassify)
	s.fluidCells = s.classify.Update(s.grid)

	s.perf.EndStep()
}

// project makes the face velocities divergence free on the current FLUID
// cells. A solve that does not converge is logged and its last iterate used.
func (s *Simulator) project(dt float64, stats *telemetry.FrameStats) {
	b := s.grid.NegativeDivergence()
	a := s.grid.PressureMatrix(dt, s.density)

	res, err := linsolve.ConjugateGradient(a, b, s.solver)
	stats.CGIterations += res.Iterations
	stats.CGResidual = math.Max(stats.CGResidual, res.Residual)
	if err != nil {
		if !errors.Is(err, linsolve.ErrNotConverged) {
			slog.Error("pressure solve failed", "frame", s.frame+1, "error", err)
			return
		}
		stats.SolveFailures++
		slog.Warn("pressure solve did not converge",
			"frame", s.frame+1,
			"iterations", res.Iterations,
			"residual", res.Residual,
			"nonzeros", a.NonZeros(),
		)
	}

	if err := s.grid.SetPressures(res.X); err != nil {
		slog.Error("storing pressures", "error", err)
		return
	}
	s.grid.ApplyPressureGradient(dt, s.density)
}
