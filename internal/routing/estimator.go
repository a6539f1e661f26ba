package routing

import (
	"context"

	"github.com/example/taxi-dispatch/internal/models"
)

// Estimator approximates travel legs from straight-line distance at a fixed
// city speed. It backs local runs without an OSRM instance and the engine
// tests.
type Estimator struct {
	SpeedMps float64
}

func NewEstimator(speedMps float64) *Estimator {
	if speedMps <= 0 {
		speedMps = 8.0 // ~28.8 km/h default city speed
	}
	return &Estimator{SpeedMps: speedMps}
}

func (e *Estimator) Route(ctx context.Context, coords []models.Coord) (Leg, error) {
	var total Leg
	for i := 0; i+1 < len(coords); i++ {
		leg, _ := e.Between(ctx, coords[i], coords[i+1])
		total.DurationSec += leg.DurationSec
		total.DistanceMeters += leg.DistanceMeters
	}
	return total, nil
}

func (e *Estimator) Between(ctx context.Context, from, to models.Coord) (Leg, error) {
	d := Haversine(from.Lat, from.Lon, to.Lat, to.Lon)
	return Leg{DurationSec: d / e.SpeedMps, DistanceMeters: d}, nil
}

func (e *Estimator) Matrix(ctx context.Context, coords []models.Coord) ([][]float64, error) {
	m := make([][]float64, len(coords))
	for i := range coords {
		m[i] = make([]float64, len(coords))
		for j := range coords {
			if i == j {
				continue
			}
			leg, _ := e.Between(ctx, coords[i], coords[j])
			m[i][j] = leg.DurationSec
		}
	}
	return m, nil
}
