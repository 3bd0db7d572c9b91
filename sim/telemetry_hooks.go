package sim

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/flip/grid"
	"github.com/pthm-cable/flip/telemetry"
)

// interiorFluid reports whether c is FLUID with no EMPTY neighbour. Only
// such cells are held to zero divergence by the projection.
func interiorFluid(c *grid.Cell) bool {
	if c.Label() != grid.Fluid {
		return false
	}
	for _, d := range grid.Directions {
		if n, ok := c.Neighbour(d); ok && n.Label() == grid.Empty {
			return false
		}
	}
	return true
}

// divergenceStats samples |divergence| over the interior FLUID cells.
func (s *Simulator) divergenceStats() (mean, p90 float64) {
	var values []float64
	cells := s.grid.Cells()
	for i := range cells {
		if interiorFluid(&cells[i]) {
			values = append(values, math.Abs(cells[i].Divergence()))
		}
	}
	mean, _, _, p90 = telemetry.ComputeStats(values)
	return mean, p90
}

// recordFrame feeds the collectors and writes frame output.
func (s *Simulator) recordFrame(stats telemetry.FrameStats) {
	slog.Debug("frame", "stats", stats)

	s.collector.RecordFrame(stats)
	if err := s.output.WriteFrame(stats); err != nil {
		slog.Error("failed to write frame", "error", err)
	}
	s.flushTelemetry()
}

// flushTelemetry checks if the stats window should be flushed.
func (s *Simulator) flushTelemetry() {
	if !s.collector.ShouldFlush(s.frame) {
		return
	}

	stats := s.collector.Flush(s.frame, s.simTime)
	perfStats := s.perf.Flush()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteWindow(stats); err != nil {
		slog.Error("failed to write window stats", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
