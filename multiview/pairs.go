// Package multiview checks the geometric consistency of point correspondences between calibrated
// views: it selects camera pairs, triangulates matched pixels from per-pixel ray fields and scores
// the re-projection of the triangulated points.
package multiview

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/rimage/transform"
	"go.viam.com/raycorr/spatialmath"
	"go.viam.com/raycorr/utils"
)

// PairGraph maps a camera id to the ids of the cameras it is paired with. Neighbor lists are
// sorted. The graph is symmetric and never pairs a camera with itself; cameras without any
// partner have no entry.
type PairGraph map[int][]int

// Edge is an unordered camera pair with A < B.
type Edge struct {
	A int
	B int
}

// SelectPairs pairs every two cameras whose relative rotation R_i R_j^-1 is smaller than
// thresholdDegrees. Ids are the rotation indices, or idMap[i] when idMap is given.
func SelectPairs(rotations []mat.Matrix, thresholdDegrees float64, idMap []int) (PairGraph, error) {
	if !(thresholdDegrees > 0) {
		return nil, newInvalidArgumentError("pairing threshold must be positive, got %v", thresholdDegrees)
	}
	if idMap != nil && len(idMap) != len(rotations) {
		return nil, newInvalidArgumentError("id map has %d entries for %d cameras", len(idMap), len(rotations))
	}
	if idMap != nil && len(lo.Uniq(idMap)) != len(idMap) {
		return nil, newInvalidArgumentError("id map contains duplicate ids")
	}

	inverses := make([]*mat.Dense, len(rotations))
	for i, rot := range rotations {
		if r, c := rot.Dims(); r != 3 || c != 3 {
			return nil, newInvalidArgumentError("rotation %d is %dx%d, need 3x3", i, r, c)
		}
		var inv mat.Dense
		if err := inv.Inverse(rot); err != nil {
			return nil, newInvalidArgumentError("rotation %d is not invertible: %v", i, err)
		}
		inverses[i] = &inv
	}

	id := func(i int) int {
		if idMap == nil {
			return i
		}
		return idMap[i]
	}

	pairs := PairGraph{}
	var rij mat.Dense
	for i := range rotations {
		for j := i + 1; j < len(rotations); j++ {
			rij.Mul(rotations[i], inverses[j])
			angleDeg := utils.RadToDeg(spatialmath.AngleFromTrace(mat.Trace(&rij)))
			if math.Abs(angleDeg) < thresholdDegrees {
				pairs[id(i)] = append(pairs[id(i)], id(j))
				pairs[id(j)] = append(pairs[id(j)], id(i))
			}
		}
	}
	for _, neighbors := range pairs {
		sort.Ints(neighbors)
	}
	return pairs, nil
}

// SelectCameraPairs runs SelectPairs on the world-to-camera rotations of cams, keyed by UID.
func SelectCameraPairs(cams []*transform.Camera, thresholdDegrees float64) (PairGraph, error) {
	rotations := make([]mat.Matrix, len(cams))
	for i, cam := range cams {
		rotations[i] = cam.Rotation().Dense()
	}
	ids := lo.Map(cams, func(cam *transform.Camera, _ int) int { return cam.UID() })
	return SelectPairs(rotations, thresholdDegrees, ids)
}

// Neighbors returns a copy of the cameras paired with id.
func (g PairGraph) Neighbors(id int) []int {
	return append([]int(nil), g[id]...)
}

// Contains reports whether a and b are paired.
func (g PairGraph) Contains(a, b int) bool {
	neighbors := g[a]
	idx := sort.SearchInts(neighbors, b)
	return idx < len(neighbors) && neighbors[idx] == b
}

// Edges lists every pair once, ordered by (A, B).
func (g PairGraph) Edges() []Edge {
	var edges []Edge
	for a, neighbors := range g {
		for _, b := range neighbors {
			if a < b {
				edges = append(edges, Edge{A: a, B: b})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

// IDs returns the sorted ids that have at least one partner.
func (g PairGraph) IDs() []int {
	ids := lo.Keys(g)
	sort.Ints(ids)
	return ids
}

// RelativeRotationDegrees is the rotation angle of R_a R_b^-1 for two cameras, in degrees.
func RelativeRotationDegrees(a, b *transform.Camera) float64 {
	rel := a.Rotation().MulMatrix(b.Rotation().Transpose())
	return utils.RadToDeg(rel.Angle())
}
