package detection

import (
	"errors"

	"github.com/Alias1177/ChainGuard/models"
)

var (
	// ErrNotTrained is returned when prediction or detection runs before training
	ErrNotTrained = errors.New("model must be trained before detection")
	// ErrEmptyBatch is returned for zero-length inputs
	ErrEmptyBatch = errors.New("empty batch")
	// ErrDimensionMismatch is returned when a point has the wrong number of components
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrTooFewPoints is returned when clustering has fewer points than clusters
	ErrTooFewPoints = errors.New("fewer points than clusters")
	// ErrInvalidFeature aliases models.ErrInvalidFeature so callers can stay in this package
	ErrInvalidFeature = models.ErrInvalidFeature
)
