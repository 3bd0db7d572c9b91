package systems

// Hat is the 1D tent function: 1-|r| on [-1, 1], zero elsewhere.
func Hat(r float64) float64 {
	switch {
	case r >= 0 && r <= 1:
		return 1 - r
	case r >= -1 && r < 0:
		return 1 + r
	}
	return 0
}

// Kernel is the separable bilinear weight for an offset (dx, dy) on a grid
// with spacing (deltaU, deltaV).
func Kernel(dx, dy, deltaU, deltaV float64) float64 {
	return Hat(dx/deltaU) * Hat(dy/deltaV)
}
