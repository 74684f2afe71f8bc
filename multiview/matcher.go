package multiview

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Correspondence is a matched pair of image-space points, (x, y) in image 0 and image 1.
type Correspondence struct {
	Img0 r2.Point
	Img1 r2.Point
}

// SplitCorrespondences separates matches into the image 0 points and the image 1 points.
func SplitCorrespondences(matches []Correspondence) ([]r2.Point, []r2.Point) {
	xy0 := make([]r2.Point, len(matches))
	xy1 := make([]r2.Point, len(matches))
	for i, m := range matches {
		xy0[i], xy1[i] = m.Img0, m.Img1
	}
	return xy0, xy1
}

// View is one camera's image handed to a Matcher.
type View struct {
	UID   int
	Image image.Image
}

// Matcher finds point correspondences between two views. Implementations typically wrap an
// expensive feature model; construct one once and share it across all pairs. Match must be safe
// for concurrent use.
type Matcher interface {
	Match(ctx context.Context, view0, view1 View) ([]Correspondence, error)
}

type uidPair struct {
	a, b int
}

// StaticMatcher serves correspondences computed ahead of time, keyed by the camera uid pair.
// Looking up (b, a) for stored (a, b) swaps the image sides.
type StaticMatcher struct {
	pairs map[uidPair][]Correspondence
}

// NewStaticMatcher returns an empty StaticMatcher.
func NewStaticMatcher() *StaticMatcher {
	return &StaticMatcher{pairs: map[uidPair][]Correspondence{}}
}

// Add stores the matches between uid0 and uid1, replacing any earlier entry for the pair.
func (sm *StaticMatcher) Add(uid0, uid1 int, matches []Correspondence) {
	delete(sm.pairs, uidPair{uid1, uid0})
	sm.pairs[uidPair{uid0, uid1}] = matches
}

// Match implements Matcher. Images are ignored.
func (sm *StaticMatcher) Match(ctx context.Context, view0, view1 View) ([]Correspondence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if matches, ok := sm.pairs[uidPair{view0.UID, view1.UID}]; ok {
		return append([]Correspondence(nil), matches...), nil
	}
	if matches, ok := sm.pairs[uidPair{view1.UID, view0.UID}]; ok {
		swapped := make([]Correspondence, len(matches))
		for i, m := range matches {
			swapped[i] = Correspondence{Img0: m.Img1, Img1: m.Img0}
		}
		return swapped, nil
	}
	return nil, errors.Errorf("no stored matches for cameras %d and %d", view0.UID, view1.UID)
}

type matchesFile struct {
	Pairs []struct {
		UID0    int          `json:"uid0"`
		UID1    int          `json:"uid1"`
		Matches [][4]float64 `json:"matches"`
	} `json:"pairs"`
}

// LoadStaticMatcher reads a matches file of the form
// {"pairs": [{"uid0": 0, "uid1": 1, "matches": [[x0, y0, x1, y1], ...]}]}.
func LoadStaticMatcher(path string) (*StaticMatcher, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening matches file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var parsed matchesFile
	if err := json.NewDecoder(f).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(err, "error parsing matches file %q", path)
	}
	sm := NewStaticMatcher()
	for _, p := range parsed.Pairs {
		if p.UID0 == p.UID1 {
			return nil, newInvalidArgumentError("matches file pairs camera %d with itself", p.UID0)
		}
		matches := make([]Correspondence, len(p.Matches))
		for i, row := range p.Matches {
			matches[i] = Correspondence{
				Img0: r2.Point{X: row[0], Y: row[1]},
				Img1: r2.Point{X: row[2], Y: row[3]},
			}
		}
		sm.Add(p.UID0, p.UID1, matches)
	}
	return sm, nil
}

// ImageSource provides the image captured by a camera.
type ImageSource interface {
	Image(ctx context.Context, uid int) (image.Image, error)
}

// DirImageSource loads <Dir>/<uid>.png.
type DirImageSource struct {
	Dir string
}

// Image implements ImageSource.
func (ds DirImageSource) Image(ctx context.Context, uid int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(ds.Dir, fmt.Sprintf("%d.png", uid))
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load image for camera %d", uid)
	}
	return img, nil
}
