package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/flip/config"
)

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(3)
	frames := []FrameStats{
		{Frame: 1, Substeps: 2, MaxVelocity: 1, FluidCells: 10, CGIterations: 8, CGResidual: 1e-7},
		{Frame: 2, Substeps: 4, MaxVelocity: 3, FluidCells: 20, CGIterations: 12, CGResidual: 3e-7, SolveFailures: 1},
		{Frame: 3, Substeps: 3, MaxVelocity: 2, FluidCells: 30, CGIterations: 10, Collapsed: true},
	}
	for _, f := range frames {
		if c.ShouldFlush(f.Frame - 1) {
			t.Fatalf("flush requested early at frame %d", f.Frame)
		}
		c.RecordFrame(f)
	}
	if !c.ShouldFlush(3) {
		t.Fatal("expected flush after 3 frames")
	}

	w := c.Flush(3, 0.1)
	if w.Frames != 3 || w.Substeps != 9 {
		t.Errorf("frames/substeps = %d/%d, want 3/9", w.Frames, w.Substeps)
	}
	if w.SubstepsPerFrame != 3 {
		t.Errorf("substeps per frame = %v, want 3", w.SubstepsPerFrame)
	}
	if w.CGIterations != 30 || math.Abs(w.IterationsMean-30.0/9) > 1e-12 {
		t.Errorf("iterations = %d (mean %v)", w.CGIterations, w.IterationsMean)
	}
	if w.CGResidualMax != 3e-7 || w.SolveFailures != 1 || w.CollapsedFrames != 1 {
		t.Errorf("solver summary wrong: %+v", w)
	}
	if w.FluidCellsMean != 20 || w.MaxVelocityMean != 2 {
		t.Errorf("flow summary wrong: %+v", w)
	}

	// Counters reset for the next window.
	if c.ShouldFlush(4) {
		t.Error("new window should not be ready after one frame")
	}
	next := c.Flush(6, 0.2)
	if next.WindowStartFrame != 3 || next.Frames != 0 || next.SolveFailures != 0 {
		t.Errorf("window not reset: %+v", next)
	}
}

func TestOutputManagerNilIsNoop(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	if err := om.WriteFrame(FrameStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should have no dir")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if err := om.WriteFrame(FrameStats{Frame: i, Substeps: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteWindow(WindowStats{WindowEndFrame: 3}); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(NewPerfCollector().Flush(), 3); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("frames.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "frame,sim_time,substeps") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "frame,") != 1 {
		t.Error("header written more than once")
	}

	for _, name := range []string{"windows.csv", "perf.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}
