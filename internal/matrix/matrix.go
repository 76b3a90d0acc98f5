// Package matrix holds the fixed-size bit grid used as genome, target and base.
package matrix

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidInput reports an empty, ragged or non-binary matrix.
var ErrInvalidInput = errors.New("invalid input")

// Matrix is an R×C grid of bits stored row-major. The zero value is the empty
// matrix produced by parsing empty text.
type Matrix struct {
	rows int
	cols int
	bits []uint8
}

// New returns an all-zero matrix with the given dimensions.
func New(rows, cols int) (Matrix, error) {
	if rows < 1 || cols < 1 {
		return Matrix{}, fmt.Errorf("%w: dimensions must be >= 1, got %dx%d", ErrInvalidInput, rows, cols)
	}
	return Matrix{rows: rows, cols: cols, bits: make([]uint8, rows*cols)}, nil
}

// FromRows builds a matrix from nested integer rows. Every row must have the
// same length and every cell must be 0 or 1.
func FromRows(rows [][]int) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, nil
	}
	cols := len(rows[0])
	m, err := New(len(rows), cols)
	if err != nil {
		return Matrix{}, err
	}
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidInput, i, len(row), cols)
		}
		for j, v := range row {
			if v != 0 && v != 1 {
				return Matrix{}, fmt.Errorf("%w: cell (%d,%d) = %d is not binary", ErrInvalidInput, i, j, v)
			}
			m.bits[i*cols+j] = uint8(v)
		}
	}
	return m, nil
}

// MustFromRows is FromRows for literals in tests and fixtures.
func MustFromRows(rows [][]int) Matrix {
	m, err := FromRows(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Random returns a matrix whose cells are independently 0 or 1 with equal
// probability.
func Random(rng *rand.Rand, rows, cols int) Matrix {
	m := Matrix{rows: rows, cols: cols, bits: make([]uint8, rows*cols)}
	for i := range m.bits {
		if rng.Float64() >= 0.5 {
			m.bits[i] = 1
		}
	}
	return m
}

// Noisy returns a copy of base with every cell flipped with probability rate.
func Noisy(rng *rand.Rand, base Matrix, rate float64) Matrix {
	m := base.Clone()
	for i := range m.bits {
		if rng.Float64() < rate {
			m.bits[i] ^= 1
		}
	}
	return m
}

func (m Matrix) Rows() int { return m.rows }

func (m Matrix) Cols() int { return m.cols }

// Len is the number of cells.
func (m Matrix) Len() int { return len(m.bits) }

func (m Matrix) IsEmpty() bool { return len(m.bits) == 0 }

// SameShape reports whether both matrices have identical dimensions.
func (m Matrix) SameShape(other Matrix) bool {
	return m.rows == other.rows && m.cols == other.cols
}

func (m Matrix) At(row, col int) uint8 {
	return m.bits[row*m.cols+col]
}

func (m Matrix) Set(row, col int, v uint8) {
	m.bits[row*m.cols+col] = v & 1
}

// Cell returns the bit at flat row-major index i.
func (m Matrix) Cell(i int) uint8 {
	return m.bits[i]
}

// Flip inverts the bit at flat row-major index i.
func (m Matrix) Flip(i int) {
	m.bits[i] ^= 1
}

// Clone returns a deep copy that shares no storage with m.
func (m Matrix) Clone() Matrix {
	if m.bits == nil {
		return Matrix{}
	}
	bits := make([]uint8, len(m.bits))
	copy(bits, m.bits)
	return Matrix{rows: m.rows, cols: m.cols, bits: bits}
}

// CopyRow overwrites row r of m with row r of src. Both must share a shape.
func (m Matrix) CopyRow(r int, src Matrix) {
	copy(m.bits[r*m.cols:(r+1)*m.cols], src.bits[r*src.cols:(r+1)*src.cols])
}

func (m Matrix) Equal(other Matrix) bool {
	if !m.SameShape(other) {
		return false
	}
	for i := range m.bits {
		if m.bits[i] != other.bits[i] {
			return false
		}
	}
	return true
}

// Invert returns the bitwise complement of m.
func (m Matrix) Invert() Matrix {
	out := m.Clone()
	for i := range out.bits {
		out.bits[i] ^= 1
	}
	return out
}

// Ones counts set cells.
func (m Matrix) Ones() int {
	n := 0
	for _, b := range m.bits {
		n += int(b)
	}
	return n
}

// ToRows returns the matrix as nested integer rows.
func (m Matrix) ToRows() [][]int {
	out := make([][]int, m.rows)
	for i := 0; i < m.rows; i++ {
		row := make([]int, m.cols)
		for j := 0; j < m.cols; j++ {
			row[j] = int(m.bits[i*m.cols+j])
		}
		out[i] = row
	}
	return out
}
