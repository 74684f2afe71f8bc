// Package spatialmath defines rotation representations and the exponential map on SO(3).
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 values in row major order.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	var r RotationMatrix
	copy(r.mat[:], m)
	return &r, nil
}

// NewRotationMatrixFromDense reads the top-left 3x3 block of a matrix, e.g. the rotation part of
// a 4x4 rigid transform.
func NewRotationMatrixFromDense(m mat.Matrix) (*RotationMatrix, error) {
	rows, cols := m.Dims()
	if rows < 3 || cols < 3 {
		return nil, errors.Errorf("matrix is %dx%d, need at least 3x3", rows, cols)
	}
	var r RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.mat[3*i+j] = m.At(i, j)
		}
	}
	return &r, nil
}

// IdentityRotation returns the identity rotation matrix.
func IdentityRotation() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the element at row r and column c.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the row of the matrix as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the column of the matrix as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[3+col], Z: rm.mat[6+col]}
}

// Trace is the sum of the diagonal.
func (rm *RotationMatrix) Trace() float64 {
	return rm.mat[0] + rm.mat[4] + rm.mat[8]
}

// Transpose returns a new transposed matrix, which for a rotation is its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	var t RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.mat[3*j+i] = rm.mat[3*i+j]
		}
	}
	return &t
}

// Mul returns rm * v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.Row(0).Dot(v),
		Y: rm.Row(1).Dot(v),
		Z: rm.Row(2).Dot(v),
	}
}

// MulMatrix returns rm * other.
func (rm *RotationMatrix) MulMatrix(other *RotationMatrix) *RotationMatrix {
	var out RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[3*i+j] = rm.Row(i).Dot(other.Col(j))
		}
	}
	return &out
}

// Angle returns the rotation angle in radians, acos((trace - 1) / 2). The cosine is clamped to
// [-1, 1] so that matrices which are only nearly orthonormal do not produce NaN.
func (rm *RotationMatrix) Angle() float64 {
	return AngleFromTrace(rm.Trace())
}

// AngleFromTrace returns the SO(3) rotation angle, in radians, of a matrix with the given trace.
func AngleFromTrace(trace float64) float64 {
	cos := (trace - 1) / 2
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// Dense returns the matrix as a new 3x3 gonum matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, rm.mat[:])
	return mat.NewDense(3, 3, data)
}

// RotationMatrixAlmostEqual reports whether every element of the two matrices is within tol.
func RotationMatrixAlmostEqual(a, b *RotationMatrix, tol float64) bool {
	for i := range a.mat {
		if math.Abs(a.mat[i]-b.mat[i]) > tol {
			return false
		}
	}
	return true
}
