package linsolve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
)

// ErrNotConverged is returned alongside the last iterate when the solver hits
// its iteration limit (or breaks down) before reaching the tolerance.
var ErrNotConverged = errors.New("linsolve: conjugate gradient did not converge")

// Operator is a square linear operator applied to dense vectors.
type Operator interface {
	Dims() (r, c int)
	MulVecTo(dst, x []float64)
}

// Settings controls the conjugate gradient iteration.
type Settings struct {
	// Tolerance is relative to ||b||: the solve stops once ||r|| <= Tolerance*||b||.
	Tolerance float64
	// MaxIterations caps the number of iterations. Zero means 2n.
	MaxIterations int
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{Tolerance: 1e-6}
}

// Result holds the outcome of a solve.
type Result struct {
	X          []float64
	Iterations int
	Residual   float64 // final ||r||
	Converged  bool
}

// ConjugateGradient solves A x = b for a symmetric positive (semi-)definite A
// starting from x = 0. Rows of A that are entirely zero must have a zero
// right-hand side; their unknowns stay at zero.
//
// On non-convergence the last iterate is still returned in Result.X together
// with ErrNotConverged.
func ConjugateGradient(a Operator, b []float64, settings Settings) (Result, error) {
	n, c := a.Dims()
	if n != c {
		return Result{}, fmt.Errorf("linsolve: operator is not square: %dx%d", n, c)
	}
	if len(b) != n {
		return Result{}, fmt.Errorf("linsolve: rhs length %d does not match operator size %d", len(b), n)
	}
	maxIter := settings.MaxIterations
	if maxIter <= 0 {
		maxIter = 2 * n
	}
	tol := settings.Tolerance
	if tol <= 0 {
		tol = DefaultSettings().Tolerance
	}

	x := make([]float64, n)
	r := make([]float64, n)
	p := make([]float64, n)
	ap := make([]float64, n)
	copy(r, b)
	copy(p, b)

	xv := blas64.Vector{N: n, Inc: 1, Data: x}
	rv := blas64.Vector{N: n, Inc: 1, Data: r}
	pv := blas64.Vector{N: n, Inc: 1, Data: p}
	apv := blas64.Vector{N: n, Inc: 1, Data: ap}

	bNorm := blas64.Nrm2(rv)
	if bNorm == 0 {
		return Result{X: x, Converged: true}, nil
	}
	target := tol * bNorm

	rr := blas64.Dot(rv, rv)
	res := Result{X: x, Residual: math.Sqrt(rr)}
	for k := 0; k < maxIter; k++ {
		a.MulVecTo(ap, p)
		pAp := blas64.Dot(pv, apv)
		if pAp <= 0 || math.IsNaN(pAp) {
			// Search direction lies in the null space; nothing more to gain.
			break
		}
		alpha := rr / pAp
		blas64.Axpy(alpha, pv, xv)
		blas64.Axpy(-alpha, apv, rv)

		rrNew := blas64.Dot(rv, rv)
		res.Iterations = k + 1
		res.Residual = math.Sqrt(rrNew)
		if res.Residual <= target {
			res.Converged = true
			return res, nil
		}

		// p = r + beta*p
		beta := rrNew / rr
		blas64.Scal(beta, pv)
		blas64.Axpy(1, rv, pv)
		rr = rrNew
	}
	if res.Residual <= target {
		res.Converged = true
		return res, nil
	}
	return res, ErrNotConverged
}
