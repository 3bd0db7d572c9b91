package systems

import (
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
)

// Perlin parameters: amplitude falloff, frequency growth and octave count.
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3
)

// Noise is seeded 2D Perlin noise used as a stream-function potential.
type Noise struct {
	p *perlin.Perlin
}

// NewNoise creates a noise source. The same seed always yields the same field.
func NewNoise(seed uint64) *Noise {
	return &Noise{p: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, int64(seed))}
}

// At returns the noise value at (x, y).
func (n *Noise) At(x, y float64) float64 {
	return n.p.Noise2D(x, y)
}

// Curl returns the curl of the noise potential at p sampled with frequency
// scale: (dN/dy, -dN/dx). The result is divergence-free.
func (n *Noise) Curl(p mgl64.Vec2, scale float64) mgl64.Vec2 {
	const h = 1e-4
	x, y := p.X()*scale, p.Y()*scale
	dndx := (n.At(x+h, y) - n.At(x-h, y)) / (2 * h)
	dndy := (n.At(x, y+h) - n.At(x, y-h)) / (2 * h)
	return mgl64.Vec2{dndy, -dndx}
}

// CurlField returns a VelocityFunc sampling the noise curl, with each
// component clamped to [-maxSpeed, maxSpeed].
func CurlField(n *Noise, scale, maxSpeed float64) VelocityFunc {
	return func(_ *rand.Rand, p mgl64.Vec2) mgl64.Vec2 {
		c := n.Curl(p, scale).Mul(maxSpeed)
		return mgl64.Vec2{
			mgl64.Clamp(c.X(), -maxSpeed, maxSpeed),
			mgl64.Clamp(c.Y(), -maxSpeed, maxSpeed),
		}
	}
}
