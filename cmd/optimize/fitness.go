package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/flip/config"
	"github.com/pthm-cable/flip/sim"
	"github.com/pthm-cable/flip/telemetry"
)

// Cost weights. Divergence dominates; the rest breaks ties towards cheaper
// configurations.
const (
	weightDivergence = 1e3
	weightSubsteps   = 0.05
	weightIterations = 1e-3
	penaltyFailure   = 10.0
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	frames     int
	seeds      []uint64
	baseConfig *config.Config

	mu       sync.Mutex
	lastCost runCost // averaged breakdown of the most recent Evaluate call
}

// runCost is the per-frame breakdown of one run.
type runCost struct {
	Divergence         float64
	SubstepsPerFrame   float64
	IterationsPerFrame float64
	SolveFailures      int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		frames:     frames,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastCost returns the averaged cost breakdown from the most recent evaluation.
func (fe *FitnessEvaluator) LastCost() runCost {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastCost
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runCost, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runCost
	for _, r := range results {
		avg.Divergence += r.Divergence
		avg.SubstepsPerFrame += r.SubstepsPerFrame
		avg.IterationsPerFrame += r.IterationsPerFrame
		avg.SolveFailures += r.SolveFailures
	}
	n := float64(len(results))
	avg.Divergence /= n
	avg.SubstepsPerFrame /= n
	avg.IterationsPerFrame /= n

	fe.mu.Lock()
	fe.lastCost = avg
	fe.mu.Unlock()

	return computeFitness(avg)
}

func computeFitness(c runCost) float64 {
	return weightDivergence*c.Divergence +
		weightSubsteps*c.SubstepsPerFrame +
		weightIterations*c.IterationsPerFrame +
		penaltyFailure*float64(c.SolveFailures)
}

// runSimulation executes a single headless run of fe.frames frames.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) runCost {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Particles.Seed = seed
	cfg.Solver.Pressure = true

	s, err := sim.New(cfg, sim.Options{})
	if err != nil {
		return runCost{Divergence: math.Inf(1)}
	}
	defer s.Close()

	var frames []telemetry.FrameStats
	for i := 0; i < fe.frames; i++ {
		frames = append(frames, s.AdvanceFrame())
	}

	var c runCost
	for _, f := range frames {
		c.Divergence += f.DivergenceMean
		c.SubstepsPerFrame += float64(f.Substeps)
		c.IterationsPerFrame += float64(f.CGIterations)
		c.SolveFailures += f.SolveFailures
	}
	if n := float64(len(frames)); n > 0 {
		c.Divergence /= n
		c.SubstepsPerFrame /= n
		c.IterationsPerFrame /= n
	}
	return c
}

// copyConfig creates a copy of the base config. Config holds only values, so
// a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
