package geocode

import (
	"context"
	"errors"

	"github.com/example/taxi-dispatch/internal/models"
)

// ErrNotFound is returned when a free-text address resolves to nothing.
var ErrNotFound = errors.New("address not found")

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coord, error)
}
