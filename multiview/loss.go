package multiview

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// PointDistances returns the Euclidean distance between each pair of image points.
func PointDistances(a, b []r2.Point) ([]float64, error) {
	if len(a) != len(b) {
		return nil, newInvalidArgumentError("point batches differ in length: %d vs %d", len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i].Sub(b[i]).Norm()
	}
	return out, nil
}

// PointDistances3D returns the Euclidean distance between each pair of 3D points.
func PointDistances3D(a, b []r3.Vector) ([]float64, error) {
	if len(a) != len(b) {
		return nil, newInvalidArgumentError("point batches differ in length: %d vs %d", len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i].Distance(b[i])
	}
	return out, nil
}

// PointLineDistances returns the distance of each point a[i] to the line through b[i] and c[i].
// A degenerate line (b == c) yields the distance to b.
func PointLineDistances(a, b, c []r3.Vector) ([]float64, error) {
	if len(a) != len(b) || len(a) != len(c) {
		return nil, newInvalidArgumentError("point batches differ in length: %d, %d, %d", len(a), len(b), len(c))
	}
	out := make([]float64, len(a))
	for i := range a {
		line := c[i].Sub(b[i])
		if line.Norm2() == 0 {
			out[i] = a[i].Distance(b[i])
			continue
		}
		out[i] = a[i].Sub(b[i]).Cross(a[i].Sub(c[i])).Norm() / line.Norm()
	}
	return out, nil
}

// FilterValid keeps the elements of items whose valid flag is set.
func FilterValid[T any](items []T, valid []bool) ([]T, error) {
	if len(items) != len(valid) {
		return nil, newInvalidArgumentError("%d items but %d validity flags", len(items), len(valid))
	}
	return lo.Filter(items, func(_ T, i int) bool { return valid[i] }), nil
}

// MaskedMean averages the finite distances strictly below threshold. It returns ErrEmptyMask when
// none qualify.
func MaskedMean(distances []float64, threshold float64) (float64, error) {
	kept := lo.Filter(distances, func(d float64, _ int) bool {
		return !math.IsNaN(d) && !math.IsInf(d, 0) && d < threshold
	})
	if len(kept) == 0 {
		return math.NaN(), ErrEmptyMask
	}
	return stats.Mean(kept)
}

// ProjectionLoss is the re-projection consistency loss of a pair of images: the unweighted
// average of the two per-image masked means of dist0 and dist1.
func ProjectionLoss(dist0, dist1 []float64, threshold float64) (float64, error) {
	if !(threshold > 0) {
		return 0, newInvalidArgumentError("loss threshold must be positive, got %v", threshold)
	}
	mean0, err := MaskedMean(dist0, threshold)
	if err != nil {
		return math.NaN(), errors.Wrap(err, "image 0")
	}
	mean1, err := MaskedMean(dist1, threshold)
	if err != nil {
		return math.NaN(), errors.Wrap(err, "image 1")
	}
	return 0.5 * (mean0 + mean1), nil
}
