package main

import (
	"math"

	"github.com/pthm-cable/flip/config"
)

// ParamSpec is one searched solver setting. The optimizer works on the unit
// interval; Min/Max map it back to the setting's own units.
type ParamSpec struct {
	Name    string
	Path    string // config key, for reporting
	Min     float64
	Max     float64
	Default float64

	apply   func(cfg *config.Config, v float64)
	extract func(cfg *config.Config) float64
}

func (s ParamSpec) toUnit(v float64) float64   { return (v - s.Min) / (s.Max - s.Min) }
func (s ParamSpec) fromUnit(u float64) float64 { return s.Min + u*(s.Max-s.Min) }
func (s ParamSpec) clamp(v float64) float64    { return math.Max(s.Min, math.Min(s.Max, v)) }

// ParamVector is the ordered set of searched settings.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the CFL number and the CG tolerance, the latter
// searched as a power of ten.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{
			Name: "cfl", Path: "solver.cfl",
			Min: 0.05, Max: 2.0, Default: 0.25,
			apply:   func(cfg *config.Config, v float64) { cfg.Solver.CFL = v },
			extract: func(cfg *config.Config) float64 { return cfg.Solver.CFL },
		},
		{
			Name: "log10_tolerance", Path: "solver.tolerance",
			Min: -10, Max: -3, Default: -6,
			apply:   func(cfg *config.Config, v float64) { cfg.Solver.Tolerance = math.Pow(10, v) },
			extract: func(cfg *config.Config) float64 { return math.Log10(cfg.Solver.Tolerance) },
		},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns the default setting of every parameter.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return s.Default })
}

// Normalize maps raw settings onto [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(raw, ParamSpec.toUnit)
}

// Denormalize maps [0,1] values back to raw settings.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(unit, ParamSpec.fromUnit)
}

// Clamp limits raw settings to their bounds.
func (pv *ParamVector) Clamp(raw []float64) []float64 {
	return pv.each(raw, ParamSpec.clamp)
}

func (pv *ParamVector) each(in []float64, f func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		var v float64
		if in != nil {
			v = in[i]
		}
		out[i] = f(s, v)
	}
	return out
}

// ApplyToConfig writes clamped settings into cfg and refreshes derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].apply(cfg, v)
	}
	cfg.ComputeDerived()
}

// ExtractFromConfig reads the current settings from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = s.extract(cfg)
	}
	return out
}
