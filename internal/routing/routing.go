package routing

import (
	"context"
	"math"

	"github.com/example/taxi-dispatch/internal/models"
)

// SentinelDurationSec is returned in place of a per-vehicle travel time when
// the routing backend fails, so ranking still completes with the vehicle
// pushed to the bottom instead of aborting the whole assignment.
const SentinelDurationSec = 1 << 22

// Leg is the result of routing one ordered sequence of coordinates.
type Leg struct {
	DurationSec    float64
	DistanceMeters float64
}

// Router is the routing collaborator consumed by the assignment engine.
type Router interface {
	// Route visits coords in the given order and returns the total leg.
	Route(ctx context.Context, coords []models.Coord) (Leg, error)
	// Between is a point-to-point lookup.
	Between(ctx context.Context, from, to models.Coord) (Leg, error)
	// Matrix returns pairwise travel durations in seconds. Unreachable
	// pairs are +Inf.
	Matrix(ctx context.Context, coords []models.Coord) ([][]float64, error)
}

// Haversine distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
