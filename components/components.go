// Package components defines ECS components for the particle pool.
package components

import "github.com/go-gl/mathgl/mgl64"

// Position represents a particle's world position.
type Position struct {
	X, Y float64
}

// Vec returns the position as a vector.
func (p Position) Vec() mgl64.Vec2 { return mgl64.Vec2{p.X, p.Y} }

// Set overwrites the position from a vector.
func (p *Position) Set(v mgl64.Vec2) { p.X, p.Y = v.X(), v.Y() }

// Velocity represents a particle's velocity.
type Velocity struct {
	X, Y float64
}

// Vec returns the velocity as a vector.
func (v Velocity) Vec() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }

// Set overwrites the velocity from a vector.
func (v *Velocity) Set(w mgl64.Vec2) { v.X, v.Y = w.X(), w.Y() }

// ParticleID is the insertion order of a particle. Queries sort by it so
// snapshots are reproducible regardless of archetype layout.
type ParticleID struct {
	ID uint32
}
