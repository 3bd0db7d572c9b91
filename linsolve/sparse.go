// Package linsolve provides the sparse symmetric matrix and iterative solver
// used by the pressure projection.
package linsolve

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// entry is one stored off-diagonal coefficient.
type entry struct {
	col int
	val float64
}

// SymSparse is a square symmetric matrix that stores its diagonal plus the
// strict upper triangle. Off-diagonal writes with i > j are mirrored into
// the upper triangle, so callers may use either convention.
//
// SymSparse implements mat.Symmetric so it can be handed to gonum routines
// that only read through At.
type SymSparse struct {
	n     int
	diag  []float64
	upper [][]entry // per row, sorted by column, col > row
}

var (
	_ mat.Matrix    = (*SymSparse)(nil)
	_ mat.Symmetric = (*SymSparse)(nil)
)

// NewSymSparse creates an n×n zero matrix.
func NewSymSparse(n int) *SymSparse {
	if n <= 0 {
		panic(fmt.Sprintf("linsolve: invalid matrix size: %d", n))
	}
	return &SymSparse{
		n:     n,
		diag:  make([]float64, n),
		upper: make([][]entry, n),
	}
}

func (s *SymSparse) check(i, j int) {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("linsolve: row index out of range: %d", i))
	}
	if j < 0 || j >= s.n {
		panic(fmt.Sprintf("linsolve: column index out of range: %d", j))
	}
}

// find returns the position of column j in row i, and whether it exists.
func (s *SymSparse) find(i, j int) (int, bool) {
	row := s.upper[i]
	k := sort.Search(len(row), func(k int) bool { return row[k].col >= j })
	return k, k < len(row) && row[k].col == j
}

// AddDiag accumulates v onto A[i][i].
func (s *SymSparse) AddDiag(i int, v float64) {
	s.check(i, i)
	s.diag[i] += v
}

// Add accumulates v onto A[i][j] (and therefore A[j][i]).
func (s *SymSparse) Add(i, j int, v float64) {
	s.check(i, j)
	if i == j {
		s.diag[i] += v
		return
	}
	if i > j {
		i, j = j, i
	}
	k, ok := s.find(i, j)
	if ok {
		s.upper[i][k].val += v
		return
	}
	row := append(s.upper[i], entry{})
	copy(row[k+1:], row[k:])
	row[k] = entry{col: j, val: v}
	s.upper[i] = row
}

// Set overwrites A[i][j] (and A[j][i]).
func (s *SymSparse) Set(i, j int, v float64) {
	s.check(i, j)
	if i == j {
		s.diag[i] = v
		return
	}
	if i > j {
		i, j = j, i
	}
	if k, ok := s.find(i, j); ok {
		s.upper[i][k].val = v
		return
	}
	s.Add(i, j, v)
}

// Dims returns the matrix dimensions.
func (s *SymSparse) Dims() (r, c int) { return s.n, s.n }

// SymmetricDim returns the number of rows (and columns).
func (s *SymSparse) SymmetricDim() int { return s.n }

// T returns the receiver; the matrix is symmetric.
func (s *SymSparse) T() mat.Matrix { return s }

// At returns A[i][j].
func (s *SymSparse) At(i, j int) float64 {
	s.check(i, j)
	if i == j {
		return s.diag[i]
	}
	if i > j {
		i, j = j, i
	}
	if k, ok := s.find(i, j); ok {
		return s.upper[i][k].val
	}
	return 0
}

// NonZeros returns the number of stored upper-triangle entries, including the
// diagonal entries that are non-zero.
func (s *SymSparse) NonZeros() int {
	n := 0
	for i := 0; i < s.n; i++ {
		if s.diag[i] != 0 {
			n++
		}
		n += len(s.upper[i])
	}
	return n
}

// MulVecTo computes dst = A*x. dst and x must have length n and must not
// alias.
func (s *SymSparse) MulVecTo(dst, x []float64) {
	if len(dst) != s.n || len(x) != s.n {
		panic(fmt.Sprintf("linsolve: dimension mismatch: n=%d len(dst)=%d len(x)=%d", s.n, len(dst), len(x)))
	}
	for i := 0; i < s.n; i++ {
		dst[i] = s.diag[i] * x[i]
	}
	for i := 0; i < s.n; i++ {
		xi := x[i]
		sum := 0.0
		for _, e := range s.upper[i] {
			sum += e.val * x[e.col]
			dst[e.col] += e.val * xi
		}
		dst[i] += sum
	}
}
