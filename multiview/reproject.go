package multiview

import (
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/rimage/transform"
)

// Policy selects which triangulated point is projected into which image.
type Policy int

const (
	// PolicySelf projects each triangulated point back into the camera whose ray produced it.
	PolicySelf Policy = iota
	// PolicySeparate projects the point on ray 0 into camera 1 and the point on ray 1 into camera 0.
	PolicySeparate
	// PolicyAverage projects the midpoint of the two closest points into both cameras.
	PolicyAverage
)

func (p Policy) String() string {
	switch p {
	case PolicySelf:
		return "self"
	case PolicySeparate:
		return "separate"
	case PolicyAverage:
		return "average"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a policy name (self, separate or average) to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "self":
		return PolicySelf, nil
	case "separate":
		return PolicySeparate, nil
	case "average", "":
		return PolicyAverage, nil
	}
	return PolicyAverage, newInvalidArgumentError("unknown projection policy %q", name)
}

// ProjectionResult is the output of CorrespondenceProjection. Img0 and Img1 are image-space
// (x, y) points in camera 0 and camera 1. Valid is the triangulation chirality flag; InFront0 and
// InFront1 are the depth-sign flags of the projections.
type ProjectionResult struct {
	Img0     []r2.Point
	Img1     []r2.Point
	Valid    []bool
	InFront0 []bool
	InFront1 []bool

	// Points0 and Points1 are the closest points on the rays of camera 0 and camera 1, N×4.
	Points0 *mat.Dense
	Points1 *mat.Dense
}

// Usable reports whether correspondence i was triangulated in front of both cameras and both of
// its projections have positive depth.
func (res *ProjectionResult) Usable(i int) bool {
	return res.Valid[i] && res.InFront0[i] && res.InFront1[i]
}

// CorrespondenceProjection triangulates every correspondence from the ray fields of the two
// cameras and projects the result back into both images according to policy.
func CorrespondenceProjection(
	matches []Correspondence,
	cam0, cam1 *transform.Camera,
	policy Policy,
) (*ProjectionResult, error) {
	xy0, xy1 := SplitCorrespondences(matches)
	origin0, direction0, err := InterpolateRaysXY(xy0, cam0.Rays())
	if err != nil {
		return nil, errors.Wrapf(err, "image of camera %d", cam0.UID())
	}
	origin1, direction1, err := InterpolateRaysXY(xy1, cam1.Rays())
	if err != nil {
		return nil, errors.Wrapf(err, "image of camera %d", cam1.UID())
	}

	p0, p1, valid, err := IntersectRays(origin0, origin1, NormalizeDirections(direction0), NormalizeDirections(direction1))
	if err != nil {
		return nil, err
	}
	res := &ProjectionResult{Valid: valid, Points0: p0, Points1: p1}

	var into0, into1 mat.Matrix
	switch policy {
	case PolicySelf:
		into0, into1 = p0, p1
	case PolicySeparate:
		into0, into1 = p1, p0
	case PolicyAverage:
		avg := averagePoints(p0, p1)
		into0, into1 = avg, avg
	default:
		return nil, newInvalidArgumentError("unknown projection policy %d", int(policy))
	}

	if res.Img0, res.InFront0, err = transform.ProjectPoints(into0, cam0); err != nil {
		return nil, err
	}
	if res.Img1, res.InFront1, err = transform.ProjectPoints(into1, cam1); err != nil {
		return nil, err
	}
	return res, nil
}

func averagePoints(p0, p1 *mat.Dense) *mat.Dense {
	if p0.IsEmpty() {
		return p0
	}
	var avg mat.Dense
	avg.Add(p0, p1)
	avg.Scale(0.5, &avg)
	return &avg
}
