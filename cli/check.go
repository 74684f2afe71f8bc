package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/raycorr/multiview"
)

// CheckAction evaluates every selected pair against pre-computed matches and prints the
// per-pair consistency loss.
func CheckAction(c *cli.Context) error {
	logger := newLogger(c)
	sc, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	graph, err := multiview.SelectCameraPairs(sc.cams, sc.cfg.Pairing.ThresholdDegrees)
	if err != nil {
		return err
	}
	matcher, err := multiview.LoadStaticMatcher(c.String(flagMatches))
	if err != nil {
		return err
	}
	var images multiview.ImageSource = noImages{}
	if dir := c.String(flagImages); dir != "" {
		images = multiview.DirImageSource{Dir: dir}
	}

	results, err := multiview.EvaluatePairs(c.Context, sc.cams, graph, matcher, images, sc.cfg.EvalOptions(), logger)
	if err != nil {
		return err
	}

	printf(c.App.Writer, "policy %s, loss threshold %.2f", sc.cfg.Policy(), sc.cfg.Projection.LossThreshold)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"uid0", "uid1", "matches", "valid", "kept0", "kept1", "loss"})
	var failed int
	for _, res := range results {
		loss := "-"
		if res.Err != nil {
			failed++
		} else {
			loss = fmt.Sprintf("%.4f", res.Loss)
		}
		t.AppendRow(table.Row{res.UID0, res.UID1, res.Matches, res.Valid, res.Kept0, res.Kept1, loss})
	}
	printf(c.App.Writer, "%s", t.Render())
	if failed > 0 && failed == len(results) {
		return errors.Errorf("no pair out of %d has usable correspondences", failed)
	}
	return nil
}
