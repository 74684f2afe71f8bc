package transform

import (
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/raycorr/spatialmath"
)

// PoseNoise describes a Gaussian perturbation of a camera pose. RotationRadians is the standard
// deviation of each component of an axis-angle vector and Translation the standard deviation of
// each component of an offset added to the world-to-camera translation.
// A TaylorOrder of zero selects spatialmath.DefaultTaylorOrder.
type PoseNoise struct {
	RotationRadians float64 `json:"rotation_radians"`
	Translation     float64 `json:"translation"`
	TaylorOrder     int     `json:"taylor_order"`
}

// IsZero reports whether the noise leaves poses untouched.
func (n PoseNoise) IsZero() bool {
	return n.RotationRadians == 0 && n.Translation == 0
}

// PerturbCamera returns a copy of cam with R' = exp(omega) * R and T' = T + dt, where omega and dt
// have independent normal components scaled by noise. All randomness comes from rng, so a fixed
// seed reproduces the same cameras.
func PerturbCamera(cam *Camera, noise PoseNoise, rng *rand.Rand) (*Camera, error) {
	if rng == nil {
		return nil, errors.New("a random source is required to perturb a camera")
	}
	if noise.RotationRadians < 0 || noise.Translation < 0 {
		return nil, NewInvalidArgumentError("pose noise must be non-negative, got %+v", noise)
	}
	if noise.IsZero() {
		return NewCamera(cam.uid, cam.intrinsic, cam.worldToCamera, cam.width, cam.height)
	}

	order := noise.TaylorOrder
	if order == 0 {
		order = spatialmath.DefaultTaylorOrder
	}
	omega := normalVector(rng).Mul(noise.RotationRadians)
	dt := normalVector(rng).Mul(noise.Translation)
	delta, err := spatialmath.SO3Exp(omega, order)
	if err != nil {
		return nil, err
	}
	rotation := delta.MulMatrix(cam.rotation)
	translation := cam.Translation().Add(dt)
	return NewCamera(cam.uid, cam.intrinsic, WorldToCameraFromPose(rotation, translation), cam.width, cam.height)
}

// PerturbCameras applies PerturbCamera to every camera in order, drawing from the same rng.
func PerturbCameras(cams []*Camera, noise PoseNoise, rng *rand.Rand) ([]*Camera, error) {
	out := make([]*Camera, 0, len(cams))
	for _, cam := range cams {
		perturbed, err := PerturbCamera(cam, noise, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "perturbing camera %d", cam.UID())
		}
		out = append(out, perturbed)
	}
	return out, nil
}

func normalVector(rng *rand.Rand) r3.Vector {
	return r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
}
