package multiview

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/raycorr/rimage/transform"
)

func TestEpipolar(t *testing.T) {
	cam0 := orbitCamera(t, 0, 0)
	cam1 := orbitCamera(t, 1, 10)
	rays := cam0.Rays()

	pixels := []transform.PixelRC{{Row: 200, Col: 240}, {Row: 300, Col: 260}, {Row: 256, Col: 256}}
	var world []r3.Vector
	var matches []Correspondence
	for i, px := range pixels {
		dir := rays.Direction(int(px.Row), int(px.Col))
		pt := cam0.Center().Add(dir.Mul(4.5 + 0.5*float64(i)))
		world = append(world, pt)
		xy1, ok := transform.ProjectPoint(pt, cam1)
		test.That(t, ok, test.ShouldBeTrue)
		matches = append(matches, Correspondence{Img0: px.XY(), Img1: xy1})
	}

	proj, err := ProjectEpipolar(transform.HomogeneousPoints(world), cam0, cam1)
	test.That(t, err, test.ShouldBeNil)
	xy0, xy1 := SplitCorrespondences(matches)
	pointsAlmostEqual(t, proj.Img0, xy0, 1e-6)
	pointsAlmostEqual(t, proj.Img1, xy1, 1e-6)

	e01, _ := transform.ProjectPoint(cam0.Center(), cam1)
	e10, _ := transform.ProjectPoint(cam1.Center(), cam0)
	test.That(t, proj.Epipole0In1, test.ShouldResemble, e01)
	test.That(t, proj.Epipole1In0, test.ShouldResemble, e10)

	dists, err := EpipolarDistances(matches, cam0, cam1)
	test.That(t, err, test.ShouldBeNil)
	for _, d := range dists {
		test.That(t, d, test.ShouldBeLessThan, 1e-6)
	}

	// moving the match off the epipolar line shows up as distance
	matches[0].Img1 = matches[0].Img1.Add(r2.Point{X: 0, Y: 20})
	dists, err = EpipolarDistances(matches, cam0, cam1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dists[0], test.ShouldBeGreaterThan, 5)
}
