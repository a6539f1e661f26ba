package assign

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/routing"
)

type fakeGeocoder struct {
	coords map[string]models.Coord
	fail   string // address that fails to resolve
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (models.Coord, error) {
	if address == f.fail {
		return models.Coord{}, fmt.Errorf("address not found: %s", address)
	}
	if c, ok := f.coords[address]; ok {
		return c, nil
	}
	return models.Coord{}, nil
}

type fakeRouter struct {
	routeLeg  routing.Leg
	routeErr  error
	betweenFn func(from, to models.Coord) (routing.Leg, error)
	matrix    [][]float64
	matrixErr error
}

func (f *fakeRouter) Route(ctx context.Context, coords []models.Coord) (routing.Leg, error) {
	return f.routeLeg, f.routeErr
}

func (f *fakeRouter) Between(ctx context.Context, from, to models.Coord) (routing.Leg, error) {
	if f.betweenFn != nil {
		return f.betweenFn(from, to)
	}
	return routing.Leg{DurationSec: 60}, nil
}

func (f *fakeRouter) Matrix(ctx context.Context, coords []models.Coord) ([][]float64, error) {
	return f.matrix, f.matrixErr
}

type fakeRanker struct {
	order    []int
	orderErr error
	pickID   string
	pickErr  error
}

func (f *fakeRanker) OrderStops(ctx context.Context, matrix [][]float64) ([]int, error) {
	return f.order, f.orderErr
}

func (f *fakeRanker) PickVehicle(ctx context.Context, req models.RideRequest, alts []models.Alternative) (string, error) {
	return f.pickID, f.pickErr
}

// etaByLat routes every vehicle in from.Lat minutes, giving tests direct
// control over per-vehicle ETAs.
func etaByLat(from, to models.Coord) (routing.Leg, error) {
	return routing.Leg{DurationSec: from.Lat * 60}, nil
}

func testFleet() []models.Vehicle {
	return []models.Vehicle{
		{ID: "v1", Name: "Taxi 1", Type: models.TypeCar, Status: models.StatusAvailable, Location: "loc1", Seats: 4},
		{ID: "v2", Name: "Taxi 2", Type: models.TypeCar, Status: models.StatusAvailable, Location: "loc2", Seats: 4},
		{ID: "v3", Name: "Bus 1", Type: models.TypeVan, Status: models.StatusAvailable, Location: "loc3", Seats: 8},
	}
}

func testGeocoder() *fakeGeocoder {
	return &fakeGeocoder{coords: map[string]models.Coord{
		"pickup": {Lat: 0, Lon: 0},
		"dest":   {Lat: 0, Lon: 1},
		"mid":    {Lat: 0, Lon: 0.5},
		"loc1":   {Lat: 5, Lon: 0}, // 5 min away
		"loc2":   {Lat: 2, Lon: 0}, // 2 min away
		"loc3":   {Lat: 8, Lon: 0}, // 8 min away
	}}
}

func testRequest() models.RideRequest {
	return models.RideRequest{
		Stops:      []string{"pickup", "dest"},
		Name:       "N", Phone: "P",
		Passengers: 2,
		PickupTime: models.PickupImmediately,
	}
}

func newTestEngine() *Engine {
	return &Engine{
		Geocoder: testGeocoder(),
		Router:   &fakeRouter{routeLeg: routing.Leg{DurationSec: 600, DistanceMeters: 10000}, betweenFn: etaByLat},
	}
}

func assertCode(t *testing.T, err error, code Code) {
	t.Helper()
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ae.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, ae.Code, ae.Detail)
	}
}

func TestAssignRanksByTotalETA(t *testing.T) {
	e := newTestEngine()
	a, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Winner.Vehicle.ID != "v2" {
		t.Fatalf("expected lowest-ETA winner v2, got %s", a.Winner.Vehicle.ID)
	}
	prev := a.Winner.TotalETA()
	for _, alt := range a.Alternatives {
		if alt.TotalETA() < prev {
			t.Fatalf("alternatives not sorted by total ETA: %d after %d", alt.TotalETA(), prev)
		}
		prev = alt.TotalETA()
	}
	if len(a.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(a.Alternatives))
	}
	if a.DurationMin != 10 {
		t.Fatalf("expected 10 min ride, got %d", a.DurationMin)
	}
	if a.DistanceKm != 10 {
		t.Fatalf("expected 10 km ride, got %v", a.DistanceKm)
	}
}

func TestAssignQueueWaitAddsToETA(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	freeAt := now.Add(10 * time.Minute)
	fleet := testFleet()
	fleet[1].Status = models.StatusBusy
	fleet[1].FreeAt = &freeAt // v2: 2 min travel + 10 min wait = 12

	e := newTestEngine()
	e.Now = func() time.Time { return now }
	a, err := e.Assign(context.Background(), testRequest(), fleet, testTariff(), Options{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Winner.Vehicle.ID != "v1" {
		t.Fatalf("expected v1 to win over waiting v2, got %s", a.Winner.Vehicle.ID)
	}
}

func TestAssignExpiredFreeAtMeansNoWait(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	freeAt := now.Add(-5 * time.Minute)
	fleet := testFleet()
	fleet[1].Status = models.StatusBusy
	fleet[1].FreeAt = &freeAt

	e := newTestEngine()
	e.Now = func() time.Time { return now }
	a, err := e.Assign(context.Background(), testRequest(), fleet, testTariff(), Options{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Winner.Vehicle.ID != "v2" || a.Winner.WaitMinutes != 0 {
		t.Fatalf("expected v2 with zero wait, got %s wait=%d", a.Winner.Vehicle.ID, a.Winner.WaitMinutes)
	}
}

func TestAssignNoVehiclesInService(t *testing.T) {
	fleet := testFleet()
	fleet[0].Status = models.StatusOutOfService
	fleet[1].Status = models.StatusNotDrivingToday
	fleet[2].Status = models.StatusOutOfService

	e := newTestEngine()
	_, err := e.Assign(context.Background(), testRequest(), fleet, testTariff(), Options{})
	assertCode(t, err, CodeNoVehicles)
}

func TestAssignInsufficientCapacity(t *testing.T) {
	fleet := []models.Vehicle{
		{ID: "v1", Status: models.StatusAvailable, Type: models.TypeCar, Location: "loc1", Seats: 4},
		{ID: "v2", Status: models.StatusAvailable, Type: models.TypeCar, Location: "loc2", Seats: 3},
	}
	req := testRequest()
	req.Passengers = 6

	e := newTestEngine()
	_, err := e.Assign(context.Background(), req, fleet, testTariff(), Options{})
	assertCode(t, err, CodeCapacity)
	var ae *Error
	errors.As(err, &ae)
	if ae.Detail != "6" {
		t.Fatalf("capacity error must carry the passenger count, got %q", ae.Detail)
	}
}

func TestAssignWinnerAlwaysSeatsParty(t *testing.T) {
	req := testRequest()
	req.Passengers = 6 // only the van qualifies, despite worse ETA

	e := newTestEngine()
	a, err := e.Assign(context.Background(), req, testFleet(), testTariff(), Options{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Winner.Vehicle.ID != "v3" {
		t.Fatalf("expected van v3, got %s", a.Winner.Vehicle.ID)
	}
	if len(a.Alternatives) != 0 {
		t.Fatalf("undersized vehicles must not appear as alternatives")
	}
}

func TestAssignGeocodeFailureCarriesAddress(t *testing.T) {
	e := newTestEngine()
	e.Geocoder.(*fakeGeocoder).fail = "dest"
	_, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{})
	assertCode(t, err, CodeGeocode)
	var ae *Error
	errors.As(err, &ae)
	if ae.Detail != "dest" {
		t.Fatalf("expected failing address in detail, got %q", ae.Detail)
	}
}

func TestAssignVehicleGeocodeFailureAborts(t *testing.T) {
	e := newTestEngine()
	e.Geocoder.(*fakeGeocoder).fail = "loc2"
	_, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{})
	assertCode(t, err, CodeGeocode)
}

func TestAssignRouteFailure(t *testing.T) {
	e := newTestEngine()
	e.Router.(*fakeRouter).routeErr = errors.New("backend down")
	_, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{})
	assertCode(t, err, CodeRoute)
}

func TestAssignVehicleRoutingDegradesToSentinel(t *testing.T) {
	e := newTestEngine()
	e.Router.(*fakeRouter).betweenFn = func(from, to models.Coord) (routing.Leg, error) {
		if from.Lat == 2 { // v2's leg fails
			return routing.Leg{}, errors.New("timeout")
		}
		return etaByLat(from, to)
	}
	a, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{})
	if err != nil {
		t.Fatalf("per-vehicle routing failure must not abort: %v", err)
	}
	last := a.Alternatives[len(a.Alternatives)-1]
	if last.Vehicle.ID != "v2" {
		t.Fatalf("failed vehicle must rank last, got %s", last.Vehicle.ID)
	}
}

func TestAssignDelegatedWinner(t *testing.T) {
	e := newTestEngine()
	e.Ranker = &fakeRanker{pickID: "v1"}
	a, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{Delegate: true})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Winner.Vehicle.ID != "v1" {
		t.Fatalf("expected delegated winner v1, got %s", a.Winner.Vehicle.ID)
	}
	// ETA order of the rest is preserved.
	if a.Alternatives[0].Vehicle.ID != "v2" || a.Alternatives[1].Vehicle.ID != "v3" {
		t.Fatalf("alternatives out of ETA order: %+v", a.Alternatives)
	}
}

func TestAssignDelegatedWinnerUnknownIDFallsBack(t *testing.T) {
	e := newTestEngine()
	e.Ranker = &fakeRanker{pickID: "ghost"}
	a, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{Delegate: true})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Winner.Vehicle.ID != "v2" {
		t.Fatalf("expected fallback to lowest ETA v2, got %s", a.Winner.Vehicle.ID)
	}
}

func TestAssignDelegateWithoutRanker(t *testing.T) {
	e := newTestEngine()
	_, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{Delegate: true})
	assertCode(t, err, CodeMissingCredential)
}

func TestAssignOptimizeReordersStops(t *testing.T) {
	req := testRequest()
	req.Stops = []string{"pickup", "dest", "mid"}

	e := newTestEngine()
	// mid (index 2) is closer to pickup than dest (index 1).
	e.Router.(*fakeRouter).matrix = [][]float64{
		{0, 100, 10},
		{100, 0, 50},
		{10, 50, 0},
	}
	a, err := e.Assign(context.Background(), req, testFleet(), testTariff(), Options{OptimizeStops: true})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	want := []string{"pickup", "mid", "dest"}
	for i := range want {
		if a.Stops[i] != want[i] {
			t.Fatalf("expected reordered stops %v, got %v", want, a.Stops)
		}
	}
}

func TestAssignOptimizeTwoStopsIsIdentity(t *testing.T) {
	e := newTestEngine()
	e.Router.(*fakeRouter).matrixErr = errors.New("matrix must not be called for 2 stops")
	a, err := e.Assign(context.Background(), testRequest(), testFleet(), testTariff(), Options{OptimizeStops: true})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Stops[0] != "pickup" || a.Stops[1] != "dest" {
		t.Fatalf("two stops must keep identity order, got %v", a.Stops)
	}
}

func TestAssignDelegatedOrderInvalidKeepsOriginal(t *testing.T) {
	req := testRequest()
	req.Stops = []string{"pickup", "dest", "mid"}

	e := newTestEngine()
	e.Router.(*fakeRouter).matrix = [][]float64{
		{0, 100, 10},
		{100, 0, 50},
		{10, 50, 0},
	}
	e.Ranker = &fakeRanker{order: []int{2}} // wrong length for 2 destinations
	a, err := e.Assign(context.Background(), req, testFleet(), testTariff(), Options{OptimizeStops: true, Delegate: true})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.Stops[1] != "dest" || a.Stops[2] != "mid" {
		t.Fatalf("invalid delegated order must keep original, got %v", a.Stops)
	}
}

func TestAssignDelegatedOrderApplied(t *testing.T) {
	req := testRequest()
	req.Stops = []string{"pickup", "dest", "mid"}

	e := newTestEngine()
	e.Router.(*fakeRouter).matrix = [][]float64{
		{0, 100, 10},
		{100, 0, 50},
		{10, 50, 0},
	}
	e.Ranker = &fakeRanker{order: []int{2, 1}, pickID: "v2"}
	a, err := e.Assign(context.Background(), req, testFleet(), testTariff(), Options{OptimizeStops: true, Delegate: true})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	want := []string{"pickup", "mid", "dest"}
	for i := range want {
		if a.Stops[i] != want[i] {
			t.Fatalf("expected delegated order %v, got %v", want, a.Stops)
		}
	}
}

func TestAssignBadRequest(t *testing.T) {
	req := testRequest()
	req.Stops = []string{"pickup"}
	e := newTestEngine()
	_, err := e.Assign(context.Background(), req, testFleet(), testTariff(), Options{})
	assertCode(t, err, CodeBadRequest)
}
