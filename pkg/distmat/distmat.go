// Package distmat has the square, symmetric matrix of RMSDs between
// binding sites and its condensed form.
package distmat

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotSymmetric = errors.New("matrix is not symmetric")
	ErrDiagonal     = errors.New("diagonal is not zero")
	ErrNegative     = errors.New("negative or NaN distance")
	ErrInfinite     = errors.New("infinite distance")
	ErrSize         = errors.New("bad matrix size")
)

// Matrix is stored by rows. Row i, column j is data[i*n+j].
type Matrix struct {
	n    int
	data []float64
}

// New returns an n x n matrix of zeroes.
func New(n int) *Matrix {
	return &Matrix{n: n, data: make([]float64, n*n)}
}

func (m *Matrix) N() int { return m.n }

func (m *Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Set puts v at (i, j) and (j, i).
func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.n+j] = v
	m.data[j*m.n+i] = v
}

// Row gives a view on row i. Changing it changes the matrix.
func (m *Matrix) Row(i int) []float64 { return m.data[i*m.n : (i+1)*m.n] }

// Max is the largest element.
func (m *Matrix) Max() float64 {
	var mx float64
	for _, v := range m.data {
		mx = max(mx, v)
	}
	return mx
}

// Check wants a symmetric matrix with a zero diagonal and finite,
// non-negative entries.
func (m *Matrix) Check() error {
	for i := 0; i < m.n; i++ {
		if d := m.At(i, i); math.IsNaN(d) || d != 0 {
			return fmt.Errorf("%w: element %d is %g", ErrDiagonal, i, d)
		}
		for j := i + 1; j < m.n; j++ {
			a, b := m.At(i, j), m.At(j, i)
			for _, v := range [2]float64{a, b} {
				if v < 0 || math.IsNaN(v) {
					return fmt.Errorf("%w: (%d,%d) %g", ErrNegative, i, j, v)
				}
				if math.IsInf(v, 1) {
					return fmt.Errorf("%w: (%d,%d)", ErrInfinite, i, j)
				}
			}
			if a != b {
				return fmt.Errorf("%w: (%d,%d) %g vs %g", ErrNotSymmetric, i, j, a, b)
			}
		}
	}
	return nil
}

// CondensedIndex is where (i, j), i < j, lives in the condensed form.
func CondensedIndex(n, i, j int) int {
	return n*i - i*(i+1)/2 + j - i - 1
}

// Condensed returns the upper triangle without the diagonal, row by
// row, as scipy's squareform does.
func (m *Matrix) Condensed() []float64 {
	n := m.n
	c := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		c = append(c, m.data[i*n+i+1:(i+1)*n]...)
	}
	return c
}

// FromCondensed goes the other way.
func FromCondensed(c []float64) (*Matrix, error) {
	n := int(math.Round((1 + math.Sqrt(1+8*float64(len(c)))) / 2))
	if n*(n-1)/2 != len(c) {
		return nil, fmt.Errorf("%w: %d is not a triangle number", ErrSize, len(c))
	}
	m := New(n)
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(i, j, c[k])
			k++
		}
	}
	return m, nil
}

// FromRows copies a square slice of rows.
func FromRows(rows [][]float64) (*Matrix, error) {
	m := New(len(rows))
	for i, r := range rows {
		if len(r) != m.n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrSize, i, len(r), m.n)
		}
		copy(m.Row(i), r)
	}
	return m, nil
}
