package multiview

import (
	"context"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"go.viam.com/raycorr/logging"
	"go.viam.com/raycorr/rimage/transform"
	"go.viam.com/raycorr/utils"
)

// EvalOptions configures EvaluatePairs.
type EvalOptions struct {
	Policy        Policy
	LossThreshold float64
}

// PairResult is the outcome of evaluating one edge of the pair graph.
type PairResult struct {
	UID0, UID1 int
	// Matches is the number of correspondences returned by the matcher.
	Matches int
	// Valid is the number of correspondences that triangulated in front of both cameras and
	// projected with positive depth into both images.
	Valid int
	// Kept0 and Kept1 count the distances per image that passed the loss mask.
	Kept0, Kept1 int
	Loss         float64
	// Err is set for non-fatal per-pair failures: ErrEmptyMask, or ErrInvalidArgument when a
	// matched keypoint lies outside its camera's ray grid.
	Err error
}

// EvaluatePair matches the two views, triangulates and re-projects the correspondences, and
// scores the pair with ProjectionLoss. Invalid options and matcher failures are returned as
// errors. Keypoints outside the ray grid and an empty loss mask are reported on the result.
func EvaluatePair(
	ctx context.Context,
	view0, view1 View,
	cam0, cam1 *transform.Camera,
	matcher Matcher,
	opts EvalOptions,
) (PairResult, error) {
	res := PairResult{UID0: cam0.UID(), UID1: cam1.UID(), Loss: math.NaN()}
	if err := opts.validate(); err != nil {
		return res, err
	}
	matches, err := matcher.Match(ctx, view0, view1)
	if err != nil {
		return res, errors.Wrapf(err, "matching cameras %d and %d", res.UID0, res.UID1)
	}
	res.Matches = len(matches)

	proj, err := CorrespondenceProjection(matches, cam0, cam1, opts.Policy)
	switch {
	case errors.Is(err, ErrInvalidArgument):
		res.Err = err
		return res, nil
	case err != nil:
		return res, errors.Wrapf(err, "projecting cameras %d and %d", res.UID0, res.UID1)
	}
	usable := make([]bool, len(matches))
	for i := range usable {
		usable[i] = proj.Usable(i)
	}
	res.Valid = lo.Count(usable, true)

	xy0, xy1 := SplitCorrespondences(matches)
	dist0, err := pairDistances(xy0, proj.Img0, usable)
	if err != nil {
		return res, err
	}
	dist1, err := pairDistances(xy1, proj.Img1, usable)
	if err != nil {
		return res, err
	}
	res.Kept0 = countKept(dist0, opts.LossThreshold)
	res.Kept1 = countKept(dist1, opts.LossThreshold)

	res.Loss, err = ProjectionLoss(dist0, dist1, opts.LossThreshold)
	switch {
	case errors.Is(err, ErrEmptyMask):
		res.Err = err
	case err != nil:
		return res, err
	}
	return res, nil
}

func (opts EvalOptions) validate() error {
	switch opts.Policy {
	case PolicySelf, PolicySeparate, PolicyAverage:
	default:
		return newInvalidArgumentError("unknown projection policy %d", int(opts.Policy))
	}
	if !(opts.LossThreshold > 0) {
		return newInvalidArgumentError("loss threshold must be positive, got %v", opts.LossThreshold)
	}
	return nil
}

func pairDistances(observed, projected []r2.Point, usable []bool) ([]float64, error) {
	observed, err := FilterValid(observed, usable)
	if err != nil {
		return nil, err
	}
	projected, err = FilterValid(projected, usable)
	if err != nil {
		return nil, err
	}
	return PointDistances(observed, projected)
}

func countKept(distances []float64, threshold float64) int {
	return lo.CountBy(distances, func(d float64) bool {
		return utils.IsFinite(d) && d < threshold
	})
}

// EvaluatePairs evaluates every edge of graph concurrently, at most utils.ParallelFactor pairs at
// a time. Images are loaded once per camera. Results are sorted by (UID0, UID1). The first hard
// failure cancels the remaining pairs and is returned.
func EvaluatePairs(
	ctx context.Context,
	cams []*transform.Camera,
	graph PairGraph,
	matcher Matcher,
	images ImageSource,
	opts EvalOptions,
	logger logging.Logger,
) ([]PairResult, error) {
	byUID := lo.KeyBy(cams, func(c *transform.Camera) int { return c.UID() })
	edges := graph.Edges()
	for _, e := range edges {
		for _, uid := range []int{e.A, e.B} {
			if _, ok := byUID[uid]; !ok {
				return nil, newInvalidArgumentError("pair graph references unknown camera %d", uid)
			}
		}
	}

	cache := &imageCache{source: images, images: map[int]image.Image{}}
	results := make([]PairResult, len(edges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(utils.ParallelFactor)
	for i, e := range edges {
		i, e := i, e
		g.Go(func() error {
			view0, err := cache.view(gctx, e.A)
			if err != nil {
				return err
			}
			view1, err := cache.view(gctx, e.B)
			if err != nil {
				return err
			}
			res, err := EvaluatePair(gctx, view0, view1, byUID[e.A], byUID[e.B], matcher, opts)
			if err != nil {
				return err
			}
			switch {
			case errors.Is(res.Err, ErrEmptyMask):
				logger.Warnw("pair has no usable correspondences", "uid0", e.A, "uid1", e.B, "error", res.Err)
			case res.Err != nil:
				logger.Warnw("skipping pair with keypoints outside the image", "uid0", e.A, "uid1", e.B, "error", res.Err)
			default:
				logger.Debugw("evaluated pair", "uid0", e.A, "uid1", e.B,
					"matches", res.Matches, "valid", res.Valid, "loss", res.Loss)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].UID0 != results[j].UID0 {
			return results[i].UID0 < results[j].UID0
		}
		return results[i].UID1 < results[j].UID1
	})
	return results, nil
}

// imageCache loads each camera's image at most once.
type imageCache struct {
	source ImageSource
	mu     sync.Mutex
	images map[int]image.Image
}

func (ic *imageCache) view(ctx context.Context, uid int) (View, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if img, ok := ic.images[uid]; ok {
		return View{UID: uid, Image: img}, nil
	}
	img, err := ic.source.Image(ctx, uid)
	if err != nil {
		return View{}, err
	}
	ic.images[uid] = img
	return View{UID: uid, Image: img}, nil
}
