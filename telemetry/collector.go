package telemetry

import "math"

// Collector accumulates FrameStats and produces WindowStats every
// windowFrames frames.
type Collector struct {
	windowFrames     int
	windowStartFrame int

	frames        int
	substeps      int
	collapsed     int
	cgIterations  int
	cgResidualMax float64
	solveFailures int

	maxVelocities []float64
	fluidCells    []float64
	divergences   []float64
}

// NewCollector creates a new stats collector.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{
		windowFrames:  windowFrames,
		maxVelocities: make([]float64, 0, windowFrames),
		fluidCells:    make([]float64, 0, windowFrames),
		divergences:   make([]float64, 0, windowFrames),
	}
}

// RecordFrame adds one frame to the current window.
func (c *Collector) RecordFrame(s FrameStats) {
	c.frames++
	c.substeps += s.Substeps
	if s.Collapsed {
		c.collapsed++
	}
	c.cgIterations += s.CGIterations
	c.cgResidualMax = math.Max(c.cgResidualMax, s.CGResidual)
	c.solveFailures += s.SolveFailures

	c.maxVelocities = append(c.maxVelocities, s.MaxVelocity)
	c.fluidCells = append(c.fluidCells, float64(s.FluidCells))
	c.divergences = append(c.divergences, s.DivergenceMean)
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int) bool {
	return currentFrame-c.windowStartFrame >= c.windowFrames
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentFrame int, simTimeSec float64) WindowStats {
	velMean, _, _, velP90 := ComputeStats(c.maxVelocities)
	fluidMean, fluidP10, _, fluidP90 := ComputeStats(c.fluidCells)
	divMean, _, _, divP90 := ComputeStats(c.divergences)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		SimTimeSec:       simTimeSec,

		Frames:          c.frames,
		Substeps:        c.substeps,
		CollapsedFrames: c.collapsed,

		CGIterations:  c.cgIterations,
		CGResidualMax: c.cgResidualMax,
		SolveFailures: c.solveFailures,

		MaxVelocityMean: velMean,
		MaxVelocityP90:  velP90,
		FluidCellsMean:  fluidMean,
		FluidCellsP10:   fluidP10,
		FluidCellsP90:   fluidP90,
		DivergenceMean:  divMean,
		DivergenceP90:   divP90,
	}
	if c.frames > 0 {
		stats.SubstepsPerFrame = float64(c.substeps) / float64(c.frames)
	}
	if c.substeps > 0 {
		stats.IterationsMean = float64(c.cgIterations) / float64(c.substeps)
	}

	// Reset for next window
	c.windowStartFrame = currentFrame
	c.frames = 0
	c.substeps = 0
	c.collapsed = 0
	c.cgIterations = 0
	c.cgResidualMax = 0
	c.solveFailures = 0
	c.maxVelocities = c.maxVelocities[:0]
	c.fluidCells = c.fluidCells[:0]
	c.divergences = c.divergences[:0]

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int {
	return c.windowFrames
}
