package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/raycorr/multiview"
	"go.viam.com/raycorr/rimage/transform"
)

// PairsAction prints every camera pair whose relative rotation is below the configured threshold.
func PairsAction(c *cli.Context) error {
	logger := newLogger(c)
	sc, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	graph, err := multiview.SelectCameraPairs(sc.cams, sc.cfg.Pairing.ThresholdDegrees)
	if err != nil {
		return err
	}
	byUID := make(map[int]*transform.Camera, len(sc.cams))
	for _, cam := range sc.cams {
		byUID[cam.UID()] = cam
	}

	edges := graph.Edges()
	printf(c.App.Writer, "%d pairs below %.1f degrees", len(edges), sc.cfg.Pairing.ThresholdDegrees)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"uid0", "uid1", "degrees"})
	for _, e := range edges {
		t.AppendRow(table.Row{e.A, e.B, fmt.Sprintf("%.3f", multiview.RelativeRotationDegrees(byUID[e.A], byUID[e.B]))})
	}
	printf(c.App.Writer, "%s", t.Render())
	for _, cam := range sc.cams {
		if len(graph.Neighbors(cam.UID())) == 0 {
			logger.Warnw("camera has no pair", "uid", cam.UID())
		}
	}
	return nil
}
