package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// DefaultTaylorOrder is the number of series terms past the constant used by SO3Exp callers
// that do not choose one. It keeps the error below 1e-12 for angles up to pi.
const DefaultTaylorOrder = 10

// SO3Exp maps an axis-angle vector (direction is the axis, length the angle in radians) to a
// rotation matrix with the Rodrigues form R = I + A[w]x + B[w]x^2, where A = sin(t)/t and
// B = (1-cos(t))/t^2 are evaluated by Taylor series truncated after `order` terms. The series
// form has no division by the angle, so it is stable as the angle goes to zero.
func SO3Exp(omega r3.Vector, order int) (*RotationMatrix, error) {
	if order < 0 {
		return nil, errors.Errorf("taylor order must be non-negative, got %d", order)
	}
	theta2 := omega.Norm2()
	a := taylorSinc(theta2, order)
	b := taylorCosc(theta2, order)

	wx := skew(omega)
	wx2 := wx.MulMatrix(wx)
	var out RotationMatrix
	for i := range out.mat {
		out.mat[i] = a*wx.mat[i] + b*wx2.mat[i]
	}
	out.mat[0]++
	out.mat[4]++
	out.mat[8]++
	return &out, nil
}

// taylorSinc evaluates sin(t)/t = sum (-1)^i t^(2i) / (2i+1)! for i in [0, order].
func taylorSinc(theta2 float64, order int) float64 {
	sum, term := 0., 1.
	for i := 0; i <= order; i++ {
		if i > 0 {
			term *= -theta2 / float64((2*i)*(2*i+1))
		}
		sum += term
	}
	return sum
}

// taylorCosc evaluates (1-cos(t))/t^2 = sum (-1)^i t^(2i) / (2i+2)! for i in [0, order].
func taylorCosc(theta2 float64, order int) float64 {
	sum, term := 0., 0.5
	for i := 0; i <= order; i++ {
		if i > 0 {
			term *= -theta2 / float64((2*i+1)*(2*i+2))
		}
		sum += term
	}
	return sum
}

// skew returns the cross product matrix [v]x such that [v]x * u = v x u.
func skew(v r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	}}
}
