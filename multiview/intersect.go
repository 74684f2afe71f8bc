package multiview

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/rimage/transform"
)

// IntersectEpsilon guards the closest-approach denominator r^2 - 1 and direction normalization.
const IntersectEpsilon = 1e-10

// NormalizeDirections returns unit copies of dirs, dividing by norm + IntersectEpsilon so that
// zero vectors stay zero instead of becoming NaN.
func NormalizeDirections(dirs []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(dirs))
	for i, d := range dirs {
		out[i] = d.Mul(1 / (d.Norm() + IntersectEpsilon))
	}
	return out
}

// ClosestApproach returns the ray parameters t0, t1 of the closest points between the lines
// o0 + t0 d0 and o1 + t1 d1. Directions must be unit length. Near-parallel lines give a tiny
// denominator and very large or zero parameters rather than an error.
func ClosestApproach(o0, o1, d0, d1 r3.Vector) (float64, float64) {
	r := d0.Dot(d1)
	w01 := o0.Sub(o1)
	w10 := o1.Sub(o0)
	denom := r*r - 1 + IntersectEpsilon
	t0 := (d0.Dot(w01) - r*d1.Dot(w01)) / denom
	t1 := (d1.Dot(w10) - r*d0.Dot(w10)) / denom
	return t0, t1
}

// IntersectRays triangulates each ray pair by closest approach. It returns the closest point on
// every ray as N×4 homogeneous rows and a validity flag that is true only when both points lie in
// front of their ray origins (t0 > 0 and t1 > 0).
func IntersectRays(origin0, origin1, direction0, direction1 []r3.Vector) (*mat.Dense, *mat.Dense, []bool, error) {
	n := len(origin0)
	if len(origin1) != n || len(direction0) != n || len(direction1) != n {
		return nil, nil, nil, newInvalidArgumentError("ray batches differ in length: %d, %d, %d, %d",
			n, len(origin1), len(direction0), len(direction1))
	}
	p0 := make([]r3.Vector, n)
	p1 := make([]r3.Vector, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		t0, t1 := ClosestApproach(origin0[i], origin1[i], direction0[i], direction1[i])
		p0[i] = origin0[i].Add(direction0[i].Mul(t0))
		p1[i] = origin1[i].Add(direction1[i].Mul(t1))
		valid[i] = t0 > 0 && t1 > 0
	}
	return transform.HomogeneousPoints(p0), transform.HomogeneousPoints(p1), valid, nil
}
