package telemetry

import "log/slog"

// FrameStats describes one call to AdvanceFrame.
type FrameStats struct {
	Frame         int     `csv:"frame"`
	SimTimeSec    float64 `csv:"sim_time"`
	Substeps      int     `csv:"substeps"`
	MinDt         float64 `csv:"min_dt"`
	MaxVelocity   float64 `csv:"max_velocity"`
	FluidCells    int     `csv:"fluid_cells"`
	CGIterations  int     `csv:"cg_iterations"` // Summed over sub-steps
	CGResidual    float64 `csv:"cg_residual"`   // Worst final residual of the frame
	SolveFailures int     `csv:"solve_failures"`
	Collapsed     bool    `csv:"collapsed"` // Sub-step guard fired

	// |divergence| over FLUID cells after the last sub-step
	DivergenceMean float64 `csv:"divergence_mean"`
	DivergenceP90  float64 `csv:"divergence_p90"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", s.Frame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("substeps", s.Substeps),
		slog.Float64("min_dt", s.MinDt),
		slog.Float64("max_velocity", s.MaxVelocity),
		slog.Int("fluid_cells", s.FluidCells),
		slog.Int("cg_iterations", s.CGIterations),
		slog.Float64("cg_residual", s.CGResidual),
		slog.Int("solve_failures", s.SolveFailures),
		slog.Bool("collapsed", s.Collapsed),
		slog.Float64("divergence_mean", s.DivergenceMean),
		slog.Float64("divergence_p90", s.DivergenceP90),
	)
}
