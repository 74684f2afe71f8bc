package multiview

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/rimage/transform"
)

// EpipolarProjection holds world points projected into two images together with the epipoles,
// the projection of each camera center into the other image.
type EpipolarProjection struct {
	Img0        []r2.Point
	Img1        []r2.Point
	Epipole0In1 r2.Point
	Epipole1In0 r2.Point
}

// ProjectEpipolar projects points (N×3 or N×4) into both cameras and computes the epipoles.
func ProjectEpipolar(points mat.Matrix, cam0, cam1 *transform.Camera) (*EpipolarProjection, error) {
	img0, _, err := transform.ProjectPoints(points, cam0)
	if err != nil {
		return nil, err
	}
	img1, _, err := transform.ProjectPoints(points, cam1)
	if err != nil {
		return nil, err
	}
	e01, _ := transform.ProjectPoint(cam0.Center(), cam1)
	e10, _ := transform.ProjectPoint(cam1.Center(), cam0)
	return &EpipolarProjection{Img0: img0, Img1: img1, Epipole0In1: e01, Epipole1In0: e10}, nil
}

// EpipolarDistances returns, for each correspondence, the pixel distance in image 1 between the
// matched point and the epipolar line of its image 0 point. The line is the projection of the
// camera 0 ray, taken through two points on it.
func EpipolarDistances(matches []Correspondence, cam0, cam1 *transform.Camera) ([]float64, error) {
	xy0, xy1 := SplitCorrespondences(matches)
	origins, directions, err := InterpolateRaysXY(xy0, cam0.Rays())
	if err != nil {
		return nil, err
	}
	directions = NormalizeDirections(directions)
	near := make([]r3.Vector, len(origins))
	far := make([]r3.Vector, len(origins))
	for i := range origins {
		near[i] = origins[i].Add(directions[i])
		far[i] = origins[i].Add(directions[i].Mul(10))
	}
	nearPx, _, err := transform.ProjectPoints(transform.HomogeneousPoints(near), cam1)
	if err != nil {
		return nil, err
	}
	farPx, _, err := transform.ProjectPoints(transform.HomogeneousPoints(far), cam1)
	if err != nil {
		return nil, err
	}
	return PointLineDistances(liftPoints(xy1), liftPoints(nearPx), liftPoints(farPx))
}

// liftPoints embeds image points in the z = 0 plane.
func liftPoints(pts []r2.Point) []r3.Vector {
	out := make([]r3.Vector, len(pts))
	for i, pt := range pts {
		out[i] = r3.Vector{X: pt.X, Y: pt.Y}
	}
	return out
}
