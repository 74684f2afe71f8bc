package multiview

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/rimage/transform"
	"go.viam.com/raycorr/spatialmath"
)

func yaw(degrees float64) mat.Matrix {
	aa := &spatialmath.R4AA{Theta: degrees * math.Pi / 180, RY: 1}
	return aa.RotationMatrix().Dense()
}

func randomRotations(rng *rand.Rand, n int) []mat.Matrix {
	rots := make([]mat.Matrix, n)
	for i := range rots {
		axis := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Normalize()
		rots[i] = spatialmath.R3ToR4(axis.Mul(rng.Float64() * math.Pi)).RotationMatrix().Dense()
	}
	return rots
}

func TestSelectPairsScenario(t *testing.T) {
	pairs, err := SelectPairs([]mat.Matrix{yaw(0), yaw(10), yaw(90)}, 30, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pairs.Contains(0, 1), test.ShouldBeTrue)
	test.That(t, pairs.Contains(1, 0), test.ShouldBeTrue)
	test.That(t, pairs.Contains(0, 2), test.ShouldBeFalse)
	test.That(t, pairs.Contains(1, 2), test.ShouldBeFalse)
	test.That(t, pairs.Edges(), test.ShouldResemble, []Edge{{A: 0, B: 1}})
	test.That(t, pairs.IDs(), test.ShouldResemble, []int{0, 1})
	test.That(t, pairs.Neighbors(2), test.ShouldBeEmpty)
}

func TestSelectPairsIDMap(t *testing.T) {
	pairs, err := SelectPairs([]mat.Matrix{yaw(0), yaw(10), yaw(20)}, 15, []int{7, 3, 12})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pairs.Neighbors(3), test.ShouldResemble, []int{7, 12})
	test.That(t, pairs.Neighbors(7), test.ShouldResemble, []int{3})
	test.That(t, pairs.Contains(7, 12), test.ShouldBeFalse)
	test.That(t, pairs.Edges(), test.ShouldResemble, []Edge{{A: 3, B: 7}, {A: 3, B: 12}})
}

func TestSelectPairsInvalid(t *testing.T) {
	rots := []mat.Matrix{yaw(0), yaw(10)}
	for _, tc := range []struct {
		name      string
		rots      []mat.Matrix
		threshold float64
		ids       []int
	}{
		{"zero threshold", rots, 0, nil},
		{"negative threshold", rots, -5, nil},
		{"nan threshold", rots, math.NaN(), nil},
		{"short id map", rots, 30, []int{1}},
		{"duplicate ids", rots, 30, []int{4, 4}},
		{"not 3x3", []mat.Matrix{mat.NewDense(2, 2, []float64{1, 0, 0, 1})}, 30, nil},
		{"singular", []mat.Matrix{mat.NewDense(3, 3, nil)}, 30, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SelectPairs(tc.rots, tc.threshold, tc.ids)
			test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
		})
	}
}

func TestSelectPairsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rots := randomRotations(rng, 12)
	var previous PairGraph
	for _, threshold := range []float64{5, 20, 45, 90, 135, 181} {
		pairs, err := SelectPairs(rots, threshold, nil)
		test.That(t, err, test.ShouldBeNil)
		for i, neighbors := range pairs {
			test.That(t, pairs.Contains(i, i), test.ShouldBeFalse)
			for _, j := range neighbors {
				test.That(t, pairs.Contains(j, i), test.ShouldBeTrue)
			}
		}
		// a larger threshold never drops a pair
		for _, e := range previous.Edges() {
			test.That(t, pairs.Contains(e.A, e.B), test.ShouldBeTrue)
		}
		previous = pairs
	}
	// every relative angle is at most 180 degrees
	test.That(t, len(previous.Edges()), test.ShouldEqual, 12*11/2)
}

func TestSelectCameraPairs(t *testing.T) {
	cams := []*transform.Camera{orbitCamera(t, 10, 0), orbitCamera(t, 11, 10), orbitCamera(t, 12, 90)}
	pairs, err := SelectCameraPairs(cams, 30)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pairs.Edges(), test.ShouldResemble, []Edge{{A: 10, B: 11}})
	test.That(t, RelativeRotationDegrees(cams[0], cams[1]), test.ShouldAlmostEqual, 10, 1e-6)
	test.That(t, RelativeRotationDegrees(cams[0], cams[2]), test.ShouldAlmostEqual, 90, 1e-6)
}
