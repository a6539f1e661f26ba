package ai

import (
	"context"

	"github.com/example/taxi-dispatch/internal/models"
)

// Ranker is the delegated decision collaborator. The engine treats both
// answers as suggestions: a malformed stop order or an unknown vehicle id
// falls back to the local heuristic.
type Ranker interface {
	// OrderStops receives the travel-time matrix over all stops
	// (index 0 = pickup) and returns the visiting order of the remaining
	// stops as indices into the matrix.
	OrderStops(ctx context.Context, matrix [][]float64) ([]int, error)

	// PickVehicle chooses a winner among the capacity-qualified,
	// ETA-sorted alternatives and returns its vehicle id.
	PickVehicle(ctx context.Context, req models.RideRequest, alts []models.Alternative) (string, error)
}
