package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one part of a FLIP sub-step.
type Phase uint8

const (
	PhaseTransfer Phase = iota
	PhasePressure
	PhaseAdvect
	PhaseClassify
	numPhases
	noPhase Phase = numPhases
)

var phaseNames = [numPhases]string{"transfer", "pressure", "advect", "classify"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "none"
}

// PerfCollector accumulates sub-step timing until the next Flush, so its
// window lines up with the stats window.
type PerfCollector struct {
	steps    int
	total    time.Duration
	minStep  time.Duration
	maxStep  time.Duration
	phaseSum [numPhases]time.Duration

	stepStart  time.Time
	phaseStart time.Time
	current    Phase
}

// NewPerfCollector creates an empty collector.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{current: noPhase}
}

// StartStep begins timing a new sub-step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.current = noPhase
}

// StartPhase closes the running phase and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.current = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.current < numPhases {
		p.phaseSum[p.current] += now.Sub(p.phaseStart)
	}
	p.current = noPhase
}

// EndStep finishes timing the current sub-step.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)

	d := now.Sub(p.stepStart)
	if p.steps == 0 || d < p.minStep {
		p.minStep = d
	}
	p.maxStep = max(p.maxStep, d)
	p.total += d
	p.steps++
}

// PerfStats holds timing aggregated over one window of sub-steps.
type PerfStats struct {
	Steps           int
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration
	StepsPerSecond  float64

	// Share of the total step time spent in each phase, in percent
	PhasePct [numPhases]float64
}

// Flush returns the stats since the last Flush and starts a new window.
func (p *PerfCollector) Flush() PerfStats {
	var s PerfStats
	if p.steps > 0 {
		s = PerfStats{
			Steps:           p.steps,
			AvgStepDuration: p.total / time.Duration(p.steps),
			MinStepDuration: p.minStep,
			MaxStepDuration: p.maxStep,
		}
		if p.total > 0 {
			s.StepsPerSecond = float64(p.steps) * float64(time.Second) / float64(p.total)
			for i, sum := range p.phaseSum {
				s.PhasePct[i] = float64(sum) / float64(p.total) * 100
			}
		}
	}
	*p = PerfCollector{current: noPhase}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("steps", s.Steps),
		slog.Int64("avg_step_us", s.AvgStepDuration.Microseconds()),
		slog.Int64("min_step_us", s.MinStepDuration.Microseconds()),
		slog.Int64("max_step_us", s.MaxStepDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	for i, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(Phase(i).String()+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd   int     `csv:"window_end"`
	Steps       int     `csv:"steps"`
	AvgStepUS   int64   `csv:"avg_step_us"`
	MinStepUS   int64   `csv:"min_step_us"`
	MaxStepUS   int64   `csv:"max_step_us"`
	StepsPerSec float64 `csv:"steps_per_sec"`
	TransferPct float64 `csv:"transfer_pct"`
	PressurePct float64 `csv:"pressure_pct"`
	AdvectPct   float64 `csv:"advect_pct"`
	ClassifyPct float64 `csv:"classify_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:   windowEnd,
		Steps:       s.Steps,
		AvgStepUS:   s.AvgStepDuration.Microseconds(),
		MinStepUS:   s.MinStepDuration.Microseconds(),
		MaxStepUS:   s.MaxStepDuration.Microseconds(),
		StepsPerSec: s.StepsPerSecond,
		TransferPct: s.PhasePct[PhaseTransfer],
		PressurePct: s.PhasePct[PhasePressure],
		AdvectPct:   s.PhasePct[PhaseAdvect],
		ClassifyPct: s.PhasePct[PhaseClassify],
	}
}
