package systems

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flip/components"
	"github.com/pthm-cable/flip/grid"
)

// Region is an axis-aligned rectangle in world units.
type Region struct {
	Min, Max mgl64.Vec2
}

// Contains reports whether p lies inside the closed rectangle.
func (r Region) Contains(p mgl64.Vec2) bool {
	return p.X() >= r.Min.X() && p.X() <= r.Max.X() &&
		p.Y() >= r.Min.Y() && p.Y() <= r.Max.Y()
}

// VelocityFunc assigns the initial velocity of a particle emitted at p.
type VelocityFunc func(r *rand.Rand, p mgl64.Vec2) mgl64.Vec2

// UniformVelocity draws each component uniformly from [-maxSpeed, maxSpeed].
func UniformVelocity(maxSpeed float64) VelocityFunc {
	return func(r *rand.Rand, _ mgl64.Vec2) mgl64.Vec2 {
		return randomVelocity(r, maxSpeed)
	}
}

// Emitter creates particle entities.
type Emitter struct {
	mapper   ecs.Map3[components.Position, components.Velocity, components.ParticleID]
	nextID   uint32
	velocity VelocityFunc
}

// NewEmitter creates a new emitter.
func NewEmitter(w *ecs.World) *Emitter {
	return &Emitter{
		mapper: *ecs.NewMap3[components.Position, components.Velocity, components.ParticleID](w),
	}
}

// SetVelocityFunc overrides the initial velocity of particles emitted by
// EmitRandom and EmitPerCell. nil restores uniform random velocities.
func (e *Emitter) SetVelocityFunc(f VelocityFunc) { e.velocity = f }

// Emitted returns how many particles this emitter has created.
func (e *Emitter) Emitted() int { return int(e.nextID) }

// Add creates one particle.
func (e *Emitter) Add(position, velocity mgl64.Vec2) ecs.Entity {
	pos := components.Position{X: position.X(), Y: position.Y()}
	vel := components.Velocity{X: velocity.X(), Y: velocity.Y()}
	id := components.ParticleID{ID: e.nextID}
	e.nextID++
	return e.mapper.NewEntity(&pos, &vel, &id)
}

// newRand returns a PCG generator for one emission call.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func randomVelocity(r *rand.Rand, maxSpeed float64) mgl64.Vec2 {
	return mgl64.Vec2{
		(2*r.Float64() - 1) * maxSpeed,
		(2*r.Float64() - 1) * maxSpeed,
	}
}

func (e *Emitter) initialVelocity(r *rand.Rand, p mgl64.Vec2, maxSpeed float64) mgl64.Vec2 {
	if e.velocity != nil {
		return e.velocity(r, p)
	}
	return randomVelocity(r, maxSpeed)
}

// EmitRandom places count particles uniformly inside region with velocity
// components uniform in [-maxSpeed, maxSpeed] unless a VelocityFunc is set.
// The same seed always yields the same particles.
func (e *Emitter) EmitRandom(count int, seed uint64, maxSpeed float64, region Region) {
	r := newRand(seed)
	size := region.Max.Sub(region.Min)
	for range count {
		p := mgl64.Vec2{
			region.Min.X() + r.Float64()*size.X(),
			region.Min.Y() + r.Float64()*size.Y(),
		}
		e.Add(p, e.initialVelocity(r, p, maxSpeed))
	}
}

// EmitPerCell places perCell jittered particles in every non-SOLID cell
// whose centre lies inside region. Returns the number of particles created.
func (e *Emitter) EmitPerCell(g *grid.Grid, perCell int, seed uint64, maxSpeed float64, region Region) int {
	r := newRand(seed)
	n := 0
	cells := g.Cells()
	for i := range cells {
		c := &cells[i]
		if c.Label() == grid.Solid || !region.Contains(c.Centre()) {
			continue
		}
		for range perCell {
			p := mgl64.Vec2{
				c.MinU() + r.Float64()*c.DeltaU(),
				c.MinV() + r.Float64()*c.DeltaV(),
			}
			e.Add(p, e.initialVelocity(r, p, maxSpeed))
			n++
		}
	}
	return n
}
