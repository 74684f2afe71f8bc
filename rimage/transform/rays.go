package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/utils"
)

// PixelRC is a continuous pixel position in (row, col) order, used to index ray fields.
// Image-space points elsewhere in this module are r2.Point with X as the column and Y as the row.
type PixelRC struct {
	Row float64
	Col float64
}

// RCFromXY converts an image-space point (x = col, y = row) to a PixelRC.
func RCFromXY(pt r2.Point) PixelRC {
	return PixelRC{Row: pt.Y, Col: pt.X}
}

// XY converts the position back to an image-space point.
func (p PixelRC) XY() r2.Point {
	return r2.Point{X: p.Col, Y: p.Row}
}

// RayField stores one ray per integer pixel. Directions are row major; Origins holds either a
// single origin shared by every pixel or one origin per pixel.
type RayField struct {
	Width      int
	Height     int
	Directions []r3.Vector
	Origins    []r3.Vector
}

// NewRayField checks the sizes of the given slices and wraps them in a RayField.
func NewRayField(width, height int, directions, origins []r3.Vector) (*RayField, error) {
	if width <= 0 || height <= 0 {
		return nil, NewInvalidArgumentError("invalid ray field size %dx%d", width, height)
	}
	if len(directions) != width*height {
		return nil, NewInvalidArgumentError("got %d directions for a %dx%d ray field", len(directions), width, height)
	}
	if len(origins) != 1 && len(origins) != width*height {
		return nil, NewInvalidArgumentError("got %d origins for a %dx%d ray field, need 1 or %d",
			len(origins), width, height, width*height)
	}
	return &RayField{Width: width, Height: height, Directions: directions, Origins: origins}, nil
}

// Direction returns the stored direction at an integer pixel.
func (rf *RayField) Direction(row, col int) r3.Vector {
	return rf.Directions[row*rf.Width+col]
}

// Origin returns the stored origin at an integer pixel.
func (rf *RayField) Origin(row, col int) r3.Vector {
	if len(rf.Origins) == 1 {
		return rf.Origins[0]
	}
	return rf.Origins[row*rf.Width+col]
}

// Contains reports whether a continuous pixel position lies inside the sampled grid, i.e. all of
// its enclosing integer pixels exist.
func (rf *RayField) Contains(px PixelRC) bool {
	return px.Row >= 0 && px.Col >= 0 &&
		px.Row <= float64(rf.Height-1) && px.Col <= float64(rf.Width-1) &&
		!math.IsNaN(px.Row) && !math.IsNaN(px.Col)
}

// ComputeRays samples one world-space ray per integer pixel of the camera. The direction at
// (row, col) is R^T K^-1 [col row 1]^T and is not normalized; every ray starts at the camera
// center.
func ComputeRays(cam *Camera) *RayField {
	width, height := cam.Width(), cam.Height()
	directions := make([]r3.Vector, width*height)
	// K^-1 followed by R^T, as one 3x3 matrix
	var pixelToWorld mat.Dense
	pixelToWorld.Mul(cam.rotation.Transpose().Dense(), cam.intrinsicInv)
	m := pixelToWorld.RawMatrix()
	row0 := r3.Vector{X: m.Data[0], Y: m.Data[1], Z: m.Data[2]}
	row1 := r3.Vector{X: m.Data[m.Stride], Y: m.Data[m.Stride+1], Z: m.Data[m.Stride+2]}
	row2 := r3.Vector{X: m.Data[2*m.Stride], Y: m.Data[2*m.Stride+1], Z: m.Data[2*m.Stride+2]}

	utils.ParallelForEachRow(height, func(row int) {
		for col := 0; col < width; col++ {
			px := r3.Vector{X: float64(col), Y: float64(row), Z: 1}
			directions[row*width+col] = r3.Vector{X: row0.Dot(px), Y: row1.Dot(px), Z: row2.Dot(px)}
		}
	})
	return &RayField{
		Width:      width,
		Height:     height,
		Directions: directions,
		Origins:    []r3.Vector{cam.Center()},
	}
}
