package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestRotationMatrixBasics(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)

	// 90 degrees about z
	rz, err := NewRotationMatrix([]float64{0, -1, 0, 1, 0, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	v := rz.Mul(r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, rz.Angle(), test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, rz.Trace(), test.ShouldAlmostEqual, 1)

	back := rz.Transpose().Mul(v)
	test.That(t, back.X, test.ShouldAlmostEqual, 1)

	dense := rz.Dense()
	test.That(t, dense.At(0, 1), test.ShouldEqual, -1.)
	fromDense, err := NewRotationMatrixFromDense(dense)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, RotationMatrixAlmostEqual(fromDense, rz, 0), test.ShouldBeTrue)

	_, err = NewRotationMatrixFromDense(mat.NewDense(2, 2, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAngleFromTraceClamps(t *testing.T) {
	test.That(t, AngleFromTrace(3+1e-12), test.ShouldEqual, 0.)
	test.That(t, math.IsNaN(AngleFromTrace(-1-1e-12)), test.ShouldBeFalse)
	test.That(t, AngleFromTrace(-1-1e-12), test.ShouldAlmostEqual, math.Pi)
}

func TestR4AAConversions(t *testing.T) {
	aa := &R4AA{Theta: math.Pi / 4, RX: 1}
	q := aa.ToQuat()
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Cos(math.Pi/8))
	test.That(t, q.Imag, test.ShouldAlmostEqual, math.Sin(math.Pi/8))

	r3aa := aa.ToR3()
	test.That(t, r3aa.X, test.ShouldAlmostEqual, math.Pi/4)
	back := R3ToR4(r3aa)
	test.That(t, back.Theta, test.ShouldAlmostEqual, aa.Theta)
	test.That(t, back.RX, test.ShouldAlmostEqual, 1)

	test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())
	test.That(t, RotationMatrixAlmostEqual(NewR4AA().RotationMatrix(), IdentityRotation(), 1e-12), test.ShouldBeTrue)
}
