package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a run of frames.
type WindowStats struct {
	WindowStartFrame int     `csv:"-"`
	WindowEndFrame   int     `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`

	Frames           int     `csv:"frames"`
	Substeps         int     `csv:"substeps"`
	SubstepsPerFrame float64 `csv:"substeps_per_frame"`
	CollapsedFrames  int     `csv:"collapsed_frames"`

	// Solver
	CGIterations   int     `csv:"cg_iterations"`
	CGResidualMax  float64 `csv:"cg_residual_max"`
	SolveFailures  int     `csv:"solve_failures"`
	IterationsMean float64 `csv:"cg_iterations_per_substep"`

	// Flow (sampled per frame)
	MaxVelocityMean float64 `csv:"max_velocity_mean"`
	MaxVelocityP90  float64 `csv:"max_velocity_p90"`
	FluidCellsMean  float64 `csv:"fluid_cells_mean"`
	FluidCellsP10   float64 `csv:"fluid_cells_p10"`
	FluidCellsP90   float64 `csv:"fluid_cells_p90"`
	DivergenceMean  float64 `csv:"divergence_mean"`
	DivergenceP90   float64 `csv:"divergence_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean and percentiles of values. The input is not
// modified.
func ComputeStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartFrame),
		slog.Int("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("frames", s.Frames),
		slog.Int("substeps", s.Substeps),
		slog.Float64("substeps_per_frame", s.SubstepsPerFrame),
		slog.Int("collapsed_frames", s.CollapsedFrames),
		slog.Int("cg_iterations", s.CGIterations),
		slog.Float64("cg_residual_max", s.CGResidualMax),
		slog.Int("solve_failures", s.SolveFailures),
		slog.Float64("max_velocity_mean", s.MaxVelocityMean),
		slog.Float64("fluid_cells_mean", s.FluidCellsMean),
		slog.Float64("divergence_mean", s.DivergenceMean),
		slog.Float64("divergence_p90", s.DivergenceP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTimeSec,
		"substeps_per_frame", s.SubstepsPerFrame,
		"collapsed_frames", s.CollapsedFrames,
		"cg_iterations_per_substep", s.IterationsMean,
		"cg_residual_max", s.CGResidualMax,
		"solve_failures", s.SolveFailures,
		"max_velocity_mean", s.MaxVelocityMean,
		"max_velocity_p90", s.MaxVelocityP90,
		"fluid_cells_mean", s.FluidCellsMean,
		"fluid_cells_p10", s.FluidCellsP10,
		"fluid_cells_p90", s.FluidCellsP90,
		"divergence_mean", s.DivergenceMean,
		"divergence_p90", s.DivergenceP90,
	)
}
