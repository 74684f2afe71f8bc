package multiview

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointDistances(t *testing.T) {
	dists, err := PointDistances([]r2.Point{{X: 1, Y: 1}, {X: 0, Y: 0}}, []r2.Point{{X: 1, Y: 1}, {X: 3, Y: 4}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dists, test.ShouldResemble, []float64{0, 5})

	_, err = PointDistances([]r2.Point{{}}, nil)
	test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)

	dists, err = PointDistances3D([]r3.Vector{{X: 1, Y: 2, Z: 2}}, []r3.Vector{{}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dists, test.ShouldResemble, []float64{3})
	_, err = PointDistances3D(nil, []r3.Vector{{}})
	test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
}

func TestPointLineDistances(t *testing.T) {
	dists, err := PointLineDistances(
		[]r3.Vector{{X: 5, Y: 1}, {X: 1, Y: 1, Z: 1}},
		[]r3.Vector{{}, {}},
		[]r3.Vector{{X: 2}, {}},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dists[0], test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, dists[1], test.ShouldAlmostEqual, math.Sqrt(3), 1e-12)

	_, err = PointLineDistances([]r3.Vector{{}}, []r3.Vector{{}}, nil)
	test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
}

func TestFilterValid(t *testing.T) {
	kept, err := FilterValid([]int{1, 2, 3}, []bool{true, false, true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kept, test.ShouldResemble, []int{1, 3})

	_, err = FilterValid([]r2.Point{{}}, []bool{})
	test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
}

func TestProjectionLoss(t *testing.T) {
	loss, err := ProjectionLoss([]float64{0}, []float64{0}, 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loss, test.ShouldEqual, 0.)

	// one kept, one at the threshold, one non-finite per image
	loss, err = ProjectionLoss(
		[]float64{1, 5, math.NaN()},
		[]float64{math.Inf(1), 2, 4, 7},
		5,
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loss, test.ShouldAlmostEqual, 0.5*(1+3), 1e-12)

	mean, err := MaskedMean([]float64{math.Inf(-1), 0.5, 1.5}, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mean, test.ShouldAlmostEqual, 1, 1e-12)
}

func TestProjectionLossEmptyMask(t *testing.T) {
	loss, err := ProjectionLoss([]float64{1}, []float64{9, math.NaN()}, 5)
	test.That(t, errors.Is(err, ErrEmptyMask), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "image 1")
	test.That(t, math.IsNaN(loss), test.ShouldBeTrue)

	_, err = ProjectionLoss(nil, []float64{1}, 5)
	test.That(t, errors.Is(err, ErrEmptyMask), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "image 0")
}

func TestProjectionLossThreshold(t *testing.T) {
	for _, threshold := range []float64{0, -1, math.NaN()} {
		_, err := ProjectionLoss([]float64{1}, []float64{1}, threshold)
		test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
	}
}
