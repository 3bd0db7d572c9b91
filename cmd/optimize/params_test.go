package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/flip/config"
)

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	got := pv.Clamp([]float64{-1, 5})
	if got[0] != pv.Specs[0].Min || got[1] != pv.Specs[1].Max {
		t.Errorf("Clamp = %v", got)
	}
}

func TestParamVectorApplyExtract(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	pv.ApplyToConfig(cfg, []float64{0.5, -8})

	if cfg.Solver.CFL != 0.5 {
		t.Errorf("CFL = %v, want 0.5", cfg.Solver.CFL)
	}
	if math.Abs(cfg.Solver.Tolerance-1e-8) > 1e-20 {
		t.Errorf("Tolerance = %v, want 1e-8", cfg.Solver.Tolerance)
	}
	got := pv.ExtractFromConfig(cfg)
	if math.Abs(got[1]+8) > 1e-9 {
		t.Errorf("extracted log10 tolerance = %v, want -8", got[1])
	}
}

func TestComputeFitnessOrdering(t *testing.T) {
	clean := computeFitness(runCost{Divergence: 1e-6, SubstepsPerFrame: 2, IterationsPerFrame: 20})
	dirty := computeFitness(runCost{Divergence: 1e-2, SubstepsPerFrame: 2, IterationsPerFrame: 20})
	failed := computeFitness(runCost{Divergence: 1e-6, SubstepsPerFrame: 2, IterationsPerFrame: 20, SolveFailures: 1})
	if !(clean < dirty) {
		t.Errorf("higher divergence should cost more: %v vs %v", clean, dirty)
	}
	if !(clean < failed) {
		t.Errorf("solve failures should cost more: %v vs %v", clean, failed)
	}
}

func TestFitnessEvaluatorRuns(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Columns, cfg.Grid.Rows = 6, 6
	cfg.Grid.Width, cfg.Grid.Height = 6, 6
	cfg.Particles.Count = 40

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 2, []uint64{1, 2}, cfg)
	f := fe.Evaluate(pv.DefaultVector())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		t.Fatalf("fitness = %v", f)
	}
	if fe.LastCost().SubstepsPerFrame < 1 {
		t.Errorf("substeps per frame = %v, want >= 1", fe.LastCost().SubstepsPerFrame)
	}
	if cfg.Solver.CFL != config.Default().Solver.CFL {
		t.Error("evaluation mutated the base config")
	}
}
