package multiview

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/raycorr/rimage/transform"
)

var sceneTarget = r3.Vector{Z: 5}

// square 512x512 intrinsics with the principal point in the middle of the image.
var sceneIntrinsics = &transform.PinholeCameraIntrinsics{
	Width:  512,
	Height: 512,
	Fx:     256,
	Fy:     256,
	Ppx:    256,
	Ppy:    256,
}

func newLookAtCamera(t *testing.T, uid int, center r3.Vector) *transform.Camera {
	t.Helper()
	w2c, err := transform.LookAtWorldToCamera(center, sceneTarget, r3.Vector{Y: -1})
	test.That(t, err, test.ShouldBeNil)
	cam, err := transform.NewPinholeCamera(uid, sceneIntrinsics, w2c)
	test.That(t, err, test.ShouldBeNil)
	return cam
}

// orbitCamera places a camera on the circle of radius 5 around sceneTarget in the xz plane,
// rotated by degrees from the origin, looking at the target.
func orbitCamera(t *testing.T, uid int, degrees float64) *transform.Camera {
	t.Helper()
	rad := degrees * math.Pi / 180
	return newLookAtCamera(t, uid, r3.Vector{X: 5 * math.Sin(rad), Z: 5 - 5*math.Cos(rad)})
}

var scenePoints = []r3.Vector{
	{X: 0, Y: 0, Z: 5},
	{X: 0.3, Y: -0.2, Z: 5.2},
	{X: -0.25, Y: 0.15, Z: 4.8},
}

// sceneMatches projects world points into both cameras to build exact correspondences.
func sceneMatches(t *testing.T, points []r3.Vector, cam0, cam1 *transform.Camera) []Correspondence {
	t.Helper()
	matches := make([]Correspondence, len(points))
	for i, pt := range points {
		xy0, ok0 := transform.ProjectPoint(pt, cam0)
		xy1, ok1 := transform.ProjectPoint(pt, cam1)
		test.That(t, ok0, test.ShouldBeTrue)
		test.That(t, ok1, test.ShouldBeTrue)
		matches[i] = Correspondence{Img0: xy0, Img1: xy1}
	}
	return matches
}

func pointsAlmostEqual(t *testing.T, a, b []r2.Point, tol float64) {
	t.Helper()
	test.That(t, len(a), test.ShouldEqual, len(b))
	for i := range a {
		test.That(t, a[i].X, test.ShouldAlmostEqual, b[i].X, tol)
		test.That(t, a[i].Y, test.ShouldAlmostEqual, b[i].Y, tol)
	}
}
