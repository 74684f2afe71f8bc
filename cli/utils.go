package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"math/rand"

	"github.com/urfave/cli/v2"

	"go.viam.com/raycorr/config"
	"go.viam.com/raycorr/logging"
	"go.viam.com/raycorr/rimage/transform"
)

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	_, _ = fmt.Fprintf(w, format+"\n", a...)
}

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("raycheck")
	}
	return logging.NewLogger("raycheck")
}

// scene is a loaded config with its cameras built and, when configured, perturbed.
type scene struct {
	cfg  *config.Config
	cams []*transform.Camera
}

func loadScene(c *cli.Context, logger logging.Logger) (*scene, error) {
	cfg, err := config.Read(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	if c.IsSet(flagSeed) {
		cfg.Seed = c.Int64(flagSeed)
	}
	cams, err := cfg.BuildCameras()
	if err != nil {
		return nil, err
	}
	if !cfg.PoseNoise.IsZero() {
		logger.Infow("perturbing camera poses",
			"seed", cfg.Seed,
			"rotation_radians", cfg.PoseNoise.RotationRadians,
			"translation", cfg.PoseNoise.Translation)
		//nolint:gosec
		cams, err = transform.PerturbCameras(cams, cfg.PoseNoise, rand.New(rand.NewSource(cfg.Seed)))
		if err != nil {
			return nil, err
		}
	}
	logger.Debugw("loaded scene", "path", cfg.ConfigFilePath, "cameras", len(cams))
	return &scene{cfg: cfg, cams: cams}, nil
}

// noImages serves no pixels; matchers that only look at camera ids do not need them.
type noImages struct{}

func (noImages) Image(ctx context.Context, uid int) (image.Image, error) {
	return nil, ctx.Err()
}
