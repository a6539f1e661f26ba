package assign

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/example/taxi-dispatch/internal/ai"
	"github.com/example/taxi-dispatch/internal/geocode"
	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/observability"
	"github.com/example/taxi-dispatch/internal/routing"
)

// Engine maps a ride request and a fleet to a recommended vehicle plus
// ranked alternatives. It only reads vehicle state; mutation happens after a
// dispatcher confirms the recommendation.
type Engine struct {
	Geocoder geocode.Geocoder
	Router   routing.Router
	Ranker   ai.Ranker // optional; nil disables the delegated paths
	Logger   *slog.Logger

	// Now is injected for tests; defaults to time.Now.
	Now func() time.Time
}

// Options selects the optional engine paths per run.
type Options struct {
	// OptimizeStops reorders destinations with the nearest-neighbor
	// heuristic when the ride has three or more stops.
	OptimizeStops bool
	// Delegate hands stop ordering and the winner pick to the AI ranker.
	Delegate bool
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Assign runs one complete assignment. It returns either a full Assignment
// or a single *Error; there are no partial results.
func (e *Engine) Assign(ctx context.Context, req models.RideRequest, fleet []models.Vehicle, tariff models.Tariff, opts Options) (*models.Assignment, error) {
	start := e.now()
	a, err := e.assign(ctx, req, fleet, tariff, opts)
	observability.AssignmentLatency.Observe(e.now().Sub(start).Seconds())
	if err != nil {
		code := CodeUnknown
		var ae *Error
		if errors.As(err, &ae) {
			code = ae.Code
		}
		observability.AssignmentFailures.WithLabelValues(string(code)).Inc()
		return nil, err
	}
	observability.AssignmentsTotal.Inc()
	return a, nil
}

func (e *Engine) assign(ctx context.Context, req models.RideRequest, fleet []models.Vehicle, tariff models.Tariff, opts Options) (*models.Assignment, error) {
	if len(req.Stops) < 2 {
		return nil, newError(CodeBadRequest, "a ride needs a pickup and at least one destination")
	}
	if req.Passengers < 1 {
		return nil, newError(CodeBadRequest, "passenger count must be positive")
	}
	if e.Geocoder == nil || e.Router == nil {
		return nil, newError(CodeMissingCredential, "geocoding/routing service not configured")
	}
	if opts.Delegate && e.Ranker == nil {
		return nil, newError(CodeMissingCredential, "AI ranking service not configured")
	}

	inService := make([]models.Vehicle, 0, len(fleet))
	for _, v := range fleet {
		if v.InService() {
			inService = append(inService, v)
		}
	}
	if len(inService) == 0 {
		return nil, newError(CodeNoVehicles, "")
	}

	stops := append([]string(nil), req.Stops...)
	coords := make([]models.Coord, len(stops))
	for i, s := range stops {
		c, err := e.Geocoder.Geocode(ctx, s)
		if err != nil {
			return nil, newError(CodeGeocode, s)
		}
		coords[i] = c
	}

	if opts.OptimizeStops && len(stops) >= 3 {
		stops, coords = e.reorderStops(ctx, stops, coords, opts.Delegate)
	}

	route, err := e.Router.Route(ctx, coords)
	if err != nil {
		return nil, newError(CodeRoute, err.Error())
	}
	distanceKm := route.DistanceMeters / 1000.0
	durationMin := int(math.Round(route.DurationSec / 60.0))

	pickup := coords[0]
	pickupText := stops[0]
	destText := stops[len(stops)-1]

	alts := make([]models.Alternative, 0, len(inService))
	for _, v := range inService {
		vc, err := e.Geocoder.Geocode(ctx, v.Location)
		if err != nil {
			return nil, newError(CodeGeocode, v.Location)
		}
		etaSec := float64(routing.SentinelDurationSec)
		if leg, err := e.Router.Between(ctx, vc, pickup); err == nil {
			etaSec = leg.DurationSec
		} else {
			e.logger().Warn("vehicle routing degraded to sentinel", "vehicle", v.ID, "error", err)
		}
		alts = append(alts, models.Alternative{
			Vehicle:     v,
			ETAMinutes:  int(math.Round(etaSec / 60.0)),
			WaitMinutes: e.waitMinutes(v),
			Price:       Fare(pickupText, destText, distanceKm, v.Type, req.Passengers, tariff),
		})
	}

	sort.SliceStable(alts, func(i, j int) bool { return alts[i].TotalETA() < alts[j].TotalETA() })

	qualified := make([]models.Alternative, 0, len(alts))
	for _, a := range alts {
		if a.Vehicle.Seats >= req.Passengers {
			qualified = append(qualified, a)
		}
	}
	if len(qualified) == 0 {
		return nil, newError(CodeCapacity, strconv.Itoa(req.Passengers))
	}

	winnerIdx := 0
	if opts.Delegate {
		winnerIdx = e.delegatedWinner(ctx, req, qualified)
	}
	winner := qualified[winnerIdx]

	rest := make([]models.Alternative, 0, len(qualified)-1)
	for i, a := range qualified {
		if i != winnerIdx {
			rest = append(rest, a)
		}
	}

	smsReq := req
	smsReq.Stops = stops

	return &models.Assignment{
		Winner:       winner,
		Alternatives: rest,
		DurationMin:  durationMin,
		DistanceKm:   distanceKm,
		Stops:        stops,
		SMS:          DriverSMS(smsReq),
	}, nil
}

// reorderStops shortens the route. Matrix failures and invalid delegated
// orders keep the original order; reordering is best-effort, never fatal.
func (e *Engine) reorderStops(ctx context.Context, stops []string, coords []models.Coord, delegate bool) ([]string, []models.Coord) {
	matrix, err := e.Router.Matrix(ctx, coords)
	if err != nil {
		e.logger().Warn("stop matrix unavailable, keeping original order", "error", err)
		return stops, coords
	}

	var order []int
	if delegate && e.Ranker != nil {
		delegated, err := e.Ranker.OrderStops(ctx, matrix)
		if err == nil && validOrder(delegated, len(stops)) {
			order = append([]int{0}, delegated...)
		} else {
			e.logger().Warn("delegated stop order rejected, keeping original order", "error", err)
			return stops, coords
		}
	} else {
		order = NearestNeighborOrder(matrix)
	}
	return reorder(stops, order), reorder(coords, order)
}

// delegatedWinner asks the ranker to pick among the qualified alternatives
// and falls back to the lowest-ETA vehicle when the answer is not in the list.
func (e *Engine) delegatedWinner(ctx context.Context, req models.RideRequest, qualified []models.Alternative) int {
	id, err := e.Ranker.PickVehicle(ctx, req, qualified)
	if err != nil {
		e.logger().Warn("delegated vehicle pick failed, using lowest ETA", "error", err)
		return 0
	}
	for i, a := range qualified {
		if a.Vehicle.ID == id {
			return i
		}
	}
	e.logger().Warn("delegated vehicle pick not in candidate list, using lowest ETA", "vehicle", id)
	return 0
}

// waitMinutes is the queue wait until the vehicle's free-at timestamp,
// floored at zero.
func (e *Engine) waitMinutes(v models.Vehicle) int {
	if v.FreeAt == nil {
		return 0
	}
	rem := v.FreeAt.Sub(e.now())
	if rem <= 0 {
		return 0
	}
	return int(math.Round(rem.Minutes()))
}
