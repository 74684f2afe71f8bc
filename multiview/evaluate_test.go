package multiview

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/raycorr/logging"
	"go.viam.com/raycorr/rimage/transform"
)

type countingImageSource struct {
	mu    sync.Mutex
	loads map[int]int
}

func (cs *countingImageSource) Image(ctx context.Context, uid int) (image.Image, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.loads == nil {
		cs.loads = map[int]int{}
	}
	cs.loads[uid]++
	return image.NewGray(image.Rect(0, 0, 512, 512)), nil
}

func evaluationScene(t *testing.T) ([]*transform.Camera, *StaticMatcher) {
	t.Helper()
	cams := []*transform.Camera{orbitCamera(t, 0, 0), orbitCamera(t, 1, 10), orbitCamera(t, 2, 20)}
	sm := NewStaticMatcher()
	sm.Add(0, 1, sceneMatches(t, scenePoints, cams[0], cams[1]))
	sm.Add(2, 0, sceneMatches(t, scenePoints, cams[2], cams[0]))
	// rays that pass 300 px apart vertically cannot agree on a point
	sm.Add(1, 2, []Correspondence{
		{Img0: r2.Point{X: 256, Y: 100}, Img1: r2.Point{X: 256, Y: 400}},
		{Img0: r2.Point{X: 200, Y: 450}, Img1: r2.Point{X: 210, Y: 60}},
	})
	return cams, sm
}

func TestEvaluatePairs(t *testing.T) {
	cams, sm := evaluationScene(t)
	graph, err := SelectCameraPairs(cams, 30)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, graph.Edges(), test.ShouldHaveLength, 3)

	logger, logs := logging.NewObservedTestLogger(t)
	images := &countingImageSource{}
	results, err := EvaluatePairs(context.Background(), cams, graph, sm, images,
		EvalOptions{Policy: PolicyAverage, LossThreshold: 5}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 3)
	test.That(t, images.loads, test.ShouldResemble, map[int]int{0: 1, 1: 1, 2: 1})

	for _, res := range results[:2] {
		test.That(t, res.Err, test.ShouldBeNil)
		test.That(t, res.Matches, test.ShouldEqual, 3)
		test.That(t, res.Valid, test.ShouldEqual, 3)
		test.That(t, res.Kept0, test.ShouldEqual, 3)
		test.That(t, res.Kept1, test.ShouldEqual, 3)
		test.That(t, res.Loss, test.ShouldBeLessThan, 5.0)
		test.That(t, res.Loss, test.ShouldBeGreaterThanOrEqualTo, 0.0)
	}
	test.That(t, results[0].UID0, test.ShouldEqual, 0)
	test.That(t, results[0].UID1, test.ShouldEqual, 1)
	test.That(t, results[1].UID0, test.ShouldEqual, 0)
	test.That(t, results[1].UID1, test.ShouldEqual, 2)

	bad := results[2]
	test.That(t, bad.UID0, test.ShouldEqual, 1)
	test.That(t, bad.UID1, test.ShouldEqual, 2)
	test.That(t, errors.Is(bad.Err, ErrEmptyMask), test.ShouldBeTrue)
	test.That(t, bad.Matches, test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("pair has no usable correspondences").Len(), test.ShouldEqual, 1)
}

func TestEvaluatePairsHardFailures(t *testing.T) {
	cams, _ := evaluationScene(t)
	graph, err := SelectCameraPairs(cams, 15)
	test.That(t, err, test.ShouldBeNil)
	logger := logging.NewTestLogger(t)
	opts := EvalOptions{Policy: PolicyAverage, LossThreshold: 5}

	// no stored matches for any pair
	_, err = EvaluatePairs(context.Background(), cams, graph, NewStaticMatcher(), &countingImageSource{}, opts, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = EvaluatePairs(context.Background(), cams[:1], graph, NewStaticMatcher(), &countingImageSource{}, opts, logger)
	test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)

	_, sm := evaluationScene(t)
	opts.LossThreshold = 0
	_, err = EvaluatePairs(context.Background(), cams, graph, sm, &countingImageSource{}, opts, logger)
	test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
}

func TestEvaluatePairsKeypointOutsideImage(t *testing.T) {
	cams, sm := evaluationScene(t)
	// one column past the last pixel center of the 512 wide image
	sm.Add(1, 2, []Correspondence{{Img0: r2.Point{X: 511.4, Y: 100}, Img1: r2.Point{X: 256, Y: 256}}})
	graph, err := SelectCameraPairs(cams, 30)
	test.That(t, err, test.ShouldBeNil)

	logger, logs := logging.NewObservedTestLogger(t)
	results, err := EvaluatePairs(context.Background(), cams, graph, sm, &countingImageSource{},
		EvalOptions{Policy: PolicyAverage, LossThreshold: 5}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 3)
	for _, res := range results[:2] {
		test.That(t, res.Err, test.ShouldBeNil)
		test.That(t, res.Loss, test.ShouldBeLessThan, 5.0)
	}

	bad := results[2]
	test.That(t, bad.UID0, test.ShouldEqual, 1)
	test.That(t, bad.UID1, test.ShouldEqual, 2)
	test.That(t, errors.Is(bad.Err, ErrInvalidArgument), test.ShouldBeTrue)
	test.That(t, bad.Err.Error(), test.ShouldContainSubstring, "outside")
	test.That(t, bad.Matches, test.ShouldEqual, 1)
	test.That(t, math.IsNaN(bad.Loss), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("skipping pair with keypoints outside the image").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("pair has no usable correspondences").Len(), test.ShouldEqual, 0)
}

func TestEvaluatePair(t *testing.T) {
	cams, sm := evaluationScene(t)
	res, err := EvaluatePair(context.Background(), View{UID: 1}, View{UID: 0}, cams[1], cams[0], sm,
		EvalOptions{Policy: PolicySeparate, LossThreshold: 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.UID0, test.ShouldEqual, 1)
	test.That(t, res.UID1, test.ShouldEqual, 0)
	test.That(t, res.Valid, test.ShouldEqual, 3)
	test.That(t, res.Err, test.ShouldBeNil)
	test.That(t, res.Loss, test.ShouldBeLessThan, 5.0)
}
