// Package config reads and validates the JSON description of a multi-view scene and of the
// correspondence check to run on it.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/raycorr/multiview"
	"go.viam.com/raycorr/rimage/transform"
	"go.viam.com/raycorr/spatialmath"
)

// Defaults applied to fields left out of a config file.
const (
	DefaultPairingThresholdDegrees = 30.
	DefaultLossThreshold           = 5.
	DefaultPolicy                  = "average"
)

// Config describes a scene and how its camera pairs are checked.
type Config struct {
	Cameras    []Camera            `json:"cameras"`
	Pairing    Pairing             `json:"pairing"`
	Projection Projection          `json:"projection"`
	Seed       int64               `json:"seed"`
	PoseNoise  transform.PoseNoise `json:"pose_noise"`

	// ConfigFilePath is the path the config was read from, if any.
	ConfigFilePath string `json:"-"`
}

// Camera is one calibrated view. WorldToCamera is the row-major 4x4 rigid transform.
// Intrinsics are given inline or, through IntrinsicsFile, as a separate JSON file whose
// relative path is resolved against the directory of the config file.
type Camera struct {
	UID            int                                `json:"uid"`
	Intrinsics     *transform.PinholeCameraIntrinsics `json:"intrinsics"`
	IntrinsicsFile string                             `json:"intrinsics_file"`
	WorldToCamera  []float64                          `json:"world_to_camera"`
}

// Pairing configures pair selection.
type Pairing struct {
	ThresholdDegrees float64 `json:"threshold_degrees"`
}

// Projection configures re-projection and the consistency loss.
type Projection struct {
	Policy        string  `json:"policy"`
	LossThreshold float64 `json:"loss_threshold"`
}

// Read reads and validates the config at path.
func Read(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening config file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	cfg, err := fromReader(f, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	cfg.ConfigFilePath = path
	return cfg, nil
}

// FromReader decodes a config, fills in defaults and validates it. Relative intrinsics files
// are resolved against the working directory.
func FromReader(r io.Reader) (*Config, error) {
	return fromReader(r, "")
}

func fromReader(r io.Reader, dir string) (*Config, error) {
	cfg := &Config{}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse config as json")
	}
	cfg.applyDefaults()
	if err := multierr.Combine(cfg.loadIntrinsicsFiles(dir), cfg.Validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadIntrinsicsFiles fills in the intrinsics of every camera that names an intrinsics file.
func (cfg *Config) loadIntrinsicsFiles(dir string) error {
	var allErrs error
	for i := range cfg.Cameras {
		cam := &cfg.Cameras[i]
		if cam.IntrinsicsFile == "" {
			continue
		}
		path := fmt.Sprintf("cameras.%d", i)
		if cam.Intrinsics != nil {
			allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path,
				errors.New("only one of intrinsics and intrinsics_file may be set")))
			continue
		}
		file := cam.IntrinsicsFile
		if !filepath.IsAbs(file) && dir != "" {
			file = filepath.Join(dir, file)
		}
		intrinsics, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(file)
		if err != nil {
			allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path,
				errors.Wrapf(err, "intrinsics_file %q", cam.IntrinsicsFile)))
			continue
		}
		cam.Intrinsics = intrinsics
	}
	return allErrs
}

func (cfg *Config) applyDefaults() {
	if cfg.Pairing.ThresholdDegrees == 0 {
		cfg.Pairing.ThresholdDegrees = DefaultPairingThresholdDegrees
	}
	if cfg.Projection.Policy == "" {
		cfg.Projection.Policy = DefaultPolicy
	}
	if cfg.Projection.LossThreshold == 0 {
		cfg.Projection.LossThreshold = DefaultLossThreshold
	}
	if cfg.PoseNoise.TaylorOrder == 0 {
		cfg.PoseNoise.TaylorOrder = spatialmath.DefaultTaylorOrder
	}
}

// Validate reports every problem in the config at once.
func (cfg *Config) Validate() error {
	var allErrs error
	if len(cfg.Cameras) == 0 {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationFieldRequiredError("", "cameras"))
	}
	seen := map[int]bool{}
	for i, cam := range cfg.Cameras {
		path := fmt.Sprintf("cameras.%d", i)
		if seen[cam.UID] {
			allErrs = multierr.Append(allErrs,
				utils.NewConfigValidationError(path, errors.Errorf("duplicate camera uid %d", cam.UID)))
		}
		seen[cam.UID] = true
		allErrs = multierr.Append(allErrs, cam.Validate(path))
	}
	if !(cfg.Pairing.ThresholdDegrees > 0) {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError("pairing",
			errors.Errorf("threshold_degrees must be positive, got %v", cfg.Pairing.ThresholdDegrees)))
	}
	if _, err := multiview.ParsePolicy(cfg.Projection.Policy); err != nil {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError("projection", err))
	}
	if !(cfg.Projection.LossThreshold > 0) {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError("projection",
			errors.Errorf("loss_threshold must be positive, got %v", cfg.Projection.LossThreshold)))
	}
	if cfg.PoseNoise.RotationRadians < 0 || cfg.PoseNoise.Translation < 0 || cfg.PoseNoise.TaylorOrder < 0 {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError("pose_noise",
			errors.New("rotation_radians, translation and taylor_order must not be negative")))
	}
	return allErrs
}

// Validate checks a single camera entry.
func (cam *Camera) Validate(path string) error {
	var allErrs error
	switch {
	case cam.Intrinsics == nil && cam.IntrinsicsFile == "":
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationFieldRequiredError(path, "intrinsics"))
	case cam.Intrinsics == nil:
		// an unreadable intrinsics file is reported when loading it
	default:
		if err := cam.Intrinsics.CheckValid(); err != nil {
			allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path, err))
		}
	}
	if len(cam.WorldToCamera) != 16 {
		allErrs = multierr.Append(allErrs, utils.NewConfigValidationError(path,
			errors.Errorf("world_to_camera has %d values, need 16", len(cam.WorldToCamera))))
	}
	return allErrs
}

// Policy returns the parsed projection policy.
func (cfg *Config) Policy() multiview.Policy {
	policy, err := multiview.ParsePolicy(cfg.Projection.Policy)
	if err != nil {
		return multiview.PolicyAverage
	}
	return policy
}

// EvalOptions returns the options for multiview.EvaluatePairs.
func (cfg *Config) EvalOptions() multiview.EvalOptions {
	return multiview.EvalOptions{Policy: cfg.Policy(), LossThreshold: cfg.Projection.LossThreshold}
}

// BuildCameras constructs the cameras of the scene in config order.
func (cfg *Config) BuildCameras() ([]*transform.Camera, error) {
	cams := make([]*transform.Camera, 0, len(cfg.Cameras))
	for _, c := range cfg.Cameras {
		cam, err := transform.NewPinholeCamera(c.UID, c.Intrinsics, mat.NewDense(4, 4, c.WorldToCamera))
		if err != nil {
			return nil, errors.Wrapf(err, "camera %d", c.UID)
		}
		cams = append(cams, cam)
	}
	return cams, nil
}
