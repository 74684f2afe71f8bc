package multiview

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/raycorr/rimage/transform"
)

// cornerWeights holds the four enclosing grid cells of a sub-pixel position and their weights.
// The corners are LB (floor row, floor col), RT (ceil row, ceil col), LT (floor row, ceil col)
// and RB (ceil row, floor col). Each corner is weighted by the distance from the diagonally
// opposite corner to the query point.
type cornerWeights struct {
	r0, r1, c0, c1         int
	wLB, wRT, wLT, wRB, sum float64
}

func newCornerWeights(px transform.PixelRC) cornerWeights {
	fr, cr := math.Floor(px.Row), math.Ceil(px.Row)
	fc, cc := math.Floor(px.Col), math.Ceil(px.Col)
	w := cornerWeights{
		r0: int(fr), r1: int(cr), c0: int(fc), c1: int(cc),
		wLB: math.Hypot(cr-px.Row, cc-px.Col),
		wRT: math.Hypot(fr-px.Row, fc-px.Col),
		wLT: math.Hypot(cr-px.Row, fc-px.Col),
		wRB: math.Hypot(fr-px.Row, cc-px.Col),
	}
	w.sum = w.wLB + w.wRT + w.wLT + w.wRB
	return w
}

func (w cornerWeights) blend(at func(row, col int) r3.Vector) r3.Vector {
	// on an integer pixel every corner is the same cell and every weight is zero
	if w.sum == 0 {
		return at(w.r0, w.c0)
	}
	out := at(w.r0, w.c0).Mul(w.wLB).
		Add(at(w.r1, w.c1).Mul(w.wRT)).
		Add(at(w.r0, w.c1).Mul(w.wLT)).
		Add(at(w.r1, w.c0).Mul(w.wRB))
	return out.Mul(1 / w.sum)
}

// InterpolateDirection returns the ray direction at a sub-pixel position of the field. The result
// is not normalized.
func InterpolateDirection(px transform.PixelRC, field *transform.RayField) (r3.Vector, error) {
	_, direction, err := InterpolateRay(px, field)
	return direction, err
}

// InterpolateRay returns the ray origin and direction at a sub-pixel position of the field, both
// blended with the same corner weights.
func InterpolateRay(px transform.PixelRC, field *transform.RayField) (r3.Vector, r3.Vector, error) {
	if !field.Contains(px) {
		return r3.Vector{}, r3.Vector{}, newInvalidArgumentError(
			"pixel (row %v, col %v) is outside the %dx%d ray grid", px.Row, px.Col, field.Height, field.Width)
	}
	w := newCornerWeights(px)
	return w.blend(field.Origin), w.blend(field.Direction), nil
}

// InterpolateRaysXY interpolates rays for a batch of image-space points given in (x, y) order,
// i.e. x is the column and y the row, as produced by feature matchers.
func InterpolateRaysXY(points []r2.Point, field *transform.RayField) ([]r3.Vector, []r3.Vector, error) {
	origins := make([]r3.Vector, len(points))
	directions := make([]r3.Vector, len(points))
	for i, pt := range points {
		var err error
		origins[i], directions[i], err = InterpolateRay(transform.RCFromXY(pt), field)
		if err != nil {
			return nil, nil, err
		}
	}
	return origins, directions, nil
}
