// Package transform holds the camera model used for multi-view consistency checks: pinhole
// intrinsics, rigid world-to-camera extrinsics, per-pixel ray fields and point projection.
package transform

import (
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/spatialmath"
)

// ErrInvalidArgument is returned, wrapped, for malformed inputs such as wrongly shaped matrices or
// mismatched batch lengths.
var ErrInvalidArgument = errors.New("invalid argument")

// NewInvalidArgumentError wraps ErrInvalidArgument with a formatted message.
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// rigidBottomRowTolerance is how far the last row of a world-to-camera matrix may stray from
// [0 0 0 1].
const rigidBottomRowTolerance = 1e-9

// Camera is an immutable view: a 3x3 intrinsic matrix, a 4x4 world-to-camera transform and an
// image resolution. Accessors hand out copies.
type Camera struct {
	uid    int
	width  int
	height int

	intrinsic     *mat.Dense
	intrinsicInv  *mat.Dense
	worldToCamera *mat.Dense
	rotation      *spatialmath.RotationMatrix
	translation   r3.Vector

	raysOnce sync.Once
	rays     *RayField
}

// NewCamera validates and copies the given matrices into a new Camera.
func NewCamera(uid int, intrinsic, worldToCamera mat.Matrix, width, height int) (*Camera, error) {
	if width <= 0 || height <= 0 {
		return nil, NewInvalidArgumentError("camera %d has invalid resolution %dx%d", uid, width, height)
	}
	if r, c := intrinsic.Dims(); r != 3 || c != 3 {
		return nil, NewInvalidArgumentError("camera %d intrinsic matrix is %dx%d, need 3x3", uid, r, c)
	}
	if r, c := worldToCamera.Dims(); r != 4 || c != 4 {
		return nil, NewInvalidArgumentError("camera %d world-to-camera matrix is %dx%d, need 4x4", uid, r, c)
	}
	for j, want := range []float64{0, 0, 0, 1} {
		if math.Abs(worldToCamera.At(3, j)-want) > rigidBottomRowTolerance {
			return nil, NewInvalidArgumentError("camera %d world-to-camera matrix is not a rigid transform", uid)
		}
	}

	k := mat.DenseCopyOf(intrinsic)
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, NewInvalidArgumentError("camera %d intrinsic matrix is singular: %v", uid, err)
	}
	rotation, err := spatialmath.NewRotationMatrixFromDense(worldToCamera)
	if err != nil {
		return nil, err
	}

	return &Camera{
		uid:           uid,
		width:         width,
		height:        height,
		intrinsic:     k,
		intrinsicInv:  &kInv,
		worldToCamera: mat.DenseCopyOf(worldToCamera),
		rotation:      rotation,
		translation:   r3.Vector{X: worldToCamera.At(0, 3), Y: worldToCamera.At(1, 3), Z: worldToCamera.At(2, 3)},
	}, nil
}

// NewPinholeCamera builds a Camera from pinhole intrinsics, which also carry the resolution.
func NewPinholeCamera(uid int, params *PinholeCameraIntrinsics, worldToCamera mat.Matrix) (*Camera, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	return NewCamera(uid, params.GetCameraMatrix(), worldToCamera, params.Width, params.Height)
}

// WorldToCameraFromPose builds a 4x4 world-to-camera matrix [R t; 0 1].
func WorldToCameraFromPose(rotation *spatialmath.RotationMatrix, translation r3.Vector) *mat.Dense {
	w2c := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			w2c.Set(i, j, rotation.At(i, j))
		}
	}
	w2c.Set(0, 3, translation.X)
	w2c.Set(1, 3, translation.Y)
	w2c.Set(2, 3, translation.Z)
	w2c.Set(3, 3, 1)
	return w2c
}

// LookAtWorldToCamera returns the world-to-camera transform of a camera at `center` looking at
// `target`, using the image convention x right, y down, z forward. `up` is the world direction
// that should appear upward in the image.
func LookAtWorldToCamera(center, target, up r3.Vector) (*mat.Dense, error) {
	forward := target.Sub(center)
	if forward.Norm() == 0 {
		return nil, NewInvalidArgumentError("camera center and target coincide")
	}
	forward = forward.Normalize()
	right := forward.Cross(up)
	if right.Norm() == 0 {
		return nil, NewInvalidArgumentError("up vector is parallel to the viewing direction")
	}
	right = right.Normalize()
	down := forward.Cross(right)
	rotation, err := spatialmath.NewRotationMatrix([]float64{
		right.X, right.Y, right.Z,
		down.X, down.Y, down.Z,
		forward.X, forward.Y, forward.Z,
	})
	if err != nil {
		return nil, err
	}
	return WorldToCameraFromPose(rotation, rotation.Mul(center).Mul(-1)), nil
}

// UID is the stable identifier of the camera.
func (c *Camera) UID() int {
	return c.uid
}

// Width is the image width in pixels.
func (c *Camera) Width() int {
	return c.width
}

// Height is the image height in pixels.
func (c *Camera) Height() int {
	return c.height
}

// Intrinsic returns a copy of the 3x3 intrinsic matrix.
func (c *Camera) Intrinsic() *mat.Dense {
	return mat.DenseCopyOf(c.intrinsic)
}

// WorldToCamera returns a copy of the 4x4 world-to-camera transform.
func (c *Camera) WorldToCamera() *mat.Dense {
	return mat.DenseCopyOf(c.worldToCamera)
}

// Rotation is the world-to-camera rotation.
func (c *Camera) Rotation() *spatialmath.RotationMatrix {
	return c.rotation
}

// Translation is the world-to-camera translation.
func (c *Camera) Translation() r3.Vector {
	return c.translation
}

// Center is the camera position in world coordinates, -R^T t.
func (c *Camera) Center() r3.Vector {
	return c.rotation.Transpose().Mul(c.translation).Mul(-1)
}

// Rays returns the per-pixel ray field of the camera. It is computed on first use.
func (c *Camera) Rays() *RayField {
	c.raysOnce.Do(func() {
		c.rays = ComputeRays(c)
	})
	return c.rays
}
