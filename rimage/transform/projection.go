package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// DepthEpsilon is added to the depth before the perspective division.
const DepthEpsilon = 1e-10

// ProjectionMatrix returns the 3x4 matrix K [R|t] of the camera.
func ProjectionMatrix(cam *Camera) *mat.Dense {
	var projMat mat.Dense
	projMat.Mul(cam.intrinsic, cam.worldToCamera.Slice(0, 3, 0, 4))
	return &projMat
}

// ProjectPoints projects a batch of world points, one per row, into the image of cam. Rows may be
// homogeneous (N×4) or Euclidean (N×3, an implicit w of 1). The depth sign is checked before
// the division: inFront[i] is false for points at or behind the camera plane, whose pixel
// coordinates are still returned (divided by z + DepthEpsilon) so that callers can mask them.
func ProjectPoints(points mat.Matrix, cam *Camera) ([]r2.Point, []bool, error) {
	n, cols := points.Dims()
	if n == 0 {
		return []r2.Point{}, []bool{}, nil
	}
	if cols != 3 && cols != 4 {
		return nil, nil, NewInvalidArgumentError("points have %d columns, need 3 or 4", cols)
	}
	homogeneous := points
	if cols == 3 {
		h := mat.NewDense(n, 4, nil)
		h.Slice(0, n, 0, 3).(*mat.Dense).Copy(points)
		for i := 0; i < n; i++ {
			h.Set(i, 3, 1)
		}
		homogeneous = h
	}

	var projected mat.Dense
	projected.Mul(ProjectionMatrix(cam), homogeneous.T())

	pixels := make([]r2.Point, n)
	inFront := make([]bool, n)
	for i := 0; i < n; i++ {
		z := projected.At(2, i)
		inFront[i] = z > 0
		pixels[i] = r2.Point{
			X: projected.At(0, i) / (z + DepthEpsilon),
			Y: projected.At(1, i) / (z + DepthEpsilon),
		}
	}
	return pixels, inFront, nil
}

// ProjectPoint projects a single world point into the image of cam.
func ProjectPoint(pt r3.Vector, cam *Camera) (r2.Point, bool) {
	pixels, inFront, _ := ProjectPoints(mat.NewDense(1, 3, []float64{pt.X, pt.Y, pt.Z}), cam)
	return pixels[0], inFront[0]
}

// HomogeneousPoints stacks points into an N×4 matrix with a trailing column of ones.
func HomogeneousPoints(pts []r3.Vector) *mat.Dense {
	if len(pts) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(pts), 4, nil)
	for i, pt := range pts {
		out.SetRow(i, []float64{pt.X, pt.Y, pt.Z, 1})
	}
	return out
}
