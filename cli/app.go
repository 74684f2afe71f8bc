// Package cli contains the raycheck command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagSeed    = "seed"
	flagMatches = "matches"
	flagImages  = "images"
)

var app = &cli.App{
	Name:            "raycheck",
	Usage:           "check multi-view ray correspondences of a calibrated scene",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     flagConfig,
			Aliases:  []string{"c"},
			Usage:    "load scene configuration from `FILE`",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.Int64Flag{
			Name:  flagSeed,
			Usage: "override the seed used for pose noise",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "pairs",
			Usage:  "print the camera pairs selected by relative rotation",
			Action: PairsAction,
		},
		{
			Name:      "check",
			Usage:     "triangulate matched points of every pair and report the re-projection loss",
			UsageText: "raycheck --config <FILE> check --matches <FILE> [--images <DIR>]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagMatches,
					Usage:    "pre-computed correspondences `FILE`",
					Required: true,
				},
				&cli.StringFlag{
					Name:  flagImages,
					Usage: "`DIR` holding <uid>.png for every camera",
				},
			},
			Action: CheckAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
