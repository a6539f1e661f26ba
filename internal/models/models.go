package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PickupImmediately is the sentinel pickup time meaning "right now".
const PickupImmediately = "immediately"

// RideRequest is a submitted ride. Stops[0] is always the pickup address.
// The engine never mutates a request; reordered stops are returned on the
// Assignment instead.
type RideRequest struct {
	Stops      []string `json:"stops"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Passengers int      `json:"passengers"`
	PickupTime string   `json:"pickup_time"` // "immediately" or RFC3339
	Notes      string   `json:"notes,omitempty"`
}

type VehicleType string

const (
	TypeCar VehicleType = "car"
	TypeVan VehicleType = "van"
)

type VehicleStatus string

const (
	StatusAvailable       VehicleStatus = "available"
	StatusBusy            VehicleStatus = "busy"
	StatusOutOfService    VehicleStatus = "out_of_service"
	StatusNotDrivingToday VehicleStatus = "not_driving_today"
)

type Vehicle struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Plate    string        `json:"plate"`
	Type     VehicleType   `json:"type"`
	Status   VehicleStatus `json:"status"`
	Location string        `json:"location"` // free-text address
	Seats    int           `json:"seats"`
	FreeAt   *time.Time    `json:"free_at,omitempty"` // set while busy or out of service
}

// InService reports whether the vehicle takes part in ranking at all.
func (v Vehicle) InService() bool {
	return v.Status != StatusOutOfService && v.Status != StatusNotDrivingToday
}

// FlatRate is a fixed-price rule matched against pickup/destination text.
// Rules are evaluated in list order; the first match wins.
type FlatRate struct {
	Name string `json:"name" yaml:"name"`
	Car  int    `json:"car" yaml:"car"`
	Van  int    `json:"van" yaml:"van"`
}

// Locality describes how a flat-rate rule's name is tied to address text.
// A rule carrying Keyword in its name applies when the pickup text contains
// one of Pickup and the destination text contains one of Dest. When Symmetric
// is set the two sides are interchangeable.
type Locality struct {
	Keyword   string   `json:"keyword" yaml:"keyword"`
	Pickup    []string `json:"pickup" yaml:"pickup"`
	Dest      []string `json:"dest" yaml:"dest"`
	Symmetric bool     `json:"symmetric" yaml:"symmetric"`
}

type Tariff struct {
	StartingFee int        `json:"starting_fee" yaml:"starting_fee"`
	PerKmCar    int        `json:"per_km_car" yaml:"per_km_car"`
	PerKmVan    int        `json:"per_km_van" yaml:"per_km_van"`
	FlatRates   []FlatRate `json:"flat_rates" yaml:"flat_rates"`
	Localities  []Locality `json:"localities" yaml:"localities"`
}

// Alternative is the engine's unit of comparison: one candidate vehicle with
// its travel ETA to the pickup, queue wait, and quoted price.
type Alternative struct {
	Vehicle     Vehicle `json:"vehicle"`
	ETAMinutes  int     `json:"eta_minutes"`
	WaitMinutes int     `json:"wait_minutes"`
	Price       int     `json:"price"`
}

// TotalETA is travel plus queue wait, the ranking key.
func (a Alternative) TotalETA() int { return a.ETAMinutes + a.WaitMinutes }

type Assignment struct {
	Winner       Alternative   `json:"winner"`
	Alternatives []Alternative `json:"alternatives"`
	DurationMin  int           `json:"duration_min"`
	DistanceKm   float64       `json:"distance_km"`
	Stops        []string      `json:"stops"` // possibly reordered
	SMS          string        `json:"sms"`
}

// LogEntry records one confirmed ride for the ride log and the event stream.
type LogEntry struct {
	ID          string      `json:"id"`
	Request     RideRequest `json:"request"`
	VehicleID   string      `json:"vehicle_id"`
	Price       int         `json:"price"`
	DurationMin int         `json:"duration_min"`
	DistanceKm  float64     `json:"distance_km"`
	Status      string      `json:"status"` // confirmed, completed, cancelled
	CreatedAt   time.Time   `json:"created_at"`
}
