package multiview

import (
	"github.com/pkg/errors"

	"go.viam.com/raycorr/rimage/transform"
)

// ErrInvalidArgument is returned, wrapped, for malformed inputs: mismatched batch lengths, an
// id map of the wrong length, non-positive thresholds or pixels outside the ray grid. It is the
// same sentinel the transform package uses.
var ErrInvalidArgument = transform.ErrInvalidArgument

// ErrEmptyMask is returned by ProjectionLoss when no distance of an image survives the mask.
var ErrEmptyMask = errors.New("no distances passed the loss mask")

func newInvalidArgumentError(format string, args ...interface{}) error {
	return transform.NewInvalidArgumentError(format, args...)
}
