package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/taxi-dispatch/internal/assign"
	"github.com/example/taxi-dispatch/internal/dispatch"
	"github.com/example/taxi-dispatch/internal/fleet"
	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/observability"
)

type assignRequest struct {
	Request  models.RideRequest `json:"request"`
	Optimize bool               `json:"optimize"`
	Delegate bool               `json:"delegate"`
}

type errorBody struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var body assignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Code: string(assign.CodeBadRequest), Detail: err.Error()})
		return
	}
	vehicles, err := s.fleet.List(r.Context())
	if err != nil {
		s.logger.Error("fleet list failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}
	a, err := s.engine.Assign(r.Context(), body.Request, vehicles, s.Tariff(), assign.Options{
		OptimizeStops: body.Optimize,
		Delegate:      body.Delegate,
	})
	if err != nil {
		s.writeAssignError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type confirmRequest struct {
	Request     models.RideRequest `json:"request"`
	VehicleID   string             `json:"vehicle_id"`
	Price       int                `json:"price"`
	DurationMin int                `json:"duration_min"`
	DistanceKm  float64            `json:"distance_km"`
}

// handleConfirm applies a recommendation the dispatcher accepted: the chosen
// vehicle goes busy until the ride's end, the ride is logged, and the event
// is fanned out. Vehicle state never changes before this call.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var body confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Code: string(assign.CodeBadRequest), Detail: err.Error()})
		return
	}
	ctx := r.Context()

	v, err := s.fleet.Get(ctx, body.VehicleID)
	if errors.Is(err, fleet.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorBody{Code: "vehicle_not_found", Detail: body.VehicleID})
		return
	}
	if err != nil {
		s.logger.Error("fleet get failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}

	freeAt := time.Now().Add(time.Duration(body.DurationMin) * time.Minute)
	if len(body.Request.Stops) > 0 {
		v.Location = body.Request.Stops[len(body.Request.Stops)-1]
	}
	v.Status = models.StatusBusy
	v.FreeAt = &freeAt
	if err := s.fleet.Put(ctx, v); err != nil {
		s.logger.Error("fleet update failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}

	entry := models.LogEntry{
		ID:          uuid.New().String(),
		Request:     body.Request,
		VehicleID:   body.VehicleID,
		Price:       body.Price,
		DurationMin: body.DurationMin,
		DistanceKm:  body.DistanceKm,
		Status:      "confirmed",
		CreatedAt:   time.Now(),
	}
	if err := s.rideLog.Append(ctx, entry); err != nil {
		s.logger.Error("ride log append failed", "error", err)
	}
	if s.producer != nil {
		if err := s.producer.PublishRide(entry); err != nil {
			s.logger.Warn("ride event publish failed", "ride", entry.ID, "error", err)
		}
	}
	observability.RidesConfirmed.Inc()
	s.broadcast(dispatch.Event{Type: "ride_confirmed", Payload: entry})
	s.broadcast(dispatch.Event{Type: "vehicle_updated", Payload: v})

	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.fleet.List(r.Context())
	if err != nil {
		s.logger.Error("fleet list failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}
	s.updateInServiceGauge(vehicles)
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, err := s.fleet.Get(r.Context(), id)
	if errors.Is(err, fleet.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorBody{Code: "vehicle_not_found", Detail: id})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePutVehicle(w http.ResponseWriter, r *http.Request) {
	var v models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Code: string(assign.CodeBadRequest), Detail: err.Error()})
		return
	}
	if id := mux.Vars(r)["id"]; id != "" {
		v.ID = id
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Type == "" {
		v.Type = models.TypeCar
	}
	if v.Status == "" {
		v.Status = models.StatusAvailable
	}
	if err := s.fleet.Put(r.Context(), v); err != nil {
		s.logger.Error("fleet put failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}
	s.broadcast(dispatch.Event{Type: "vehicle_updated", Payload: v})
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.fleet.Delete(r.Context(), id); errors.Is(err, fleet.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorBody{Code: "vehicle_not_found", Detail: id})
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRideLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errorBody{Code: string(assign.CodeBadRequest), Detail: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	entries, err := s.rideLog.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("ride log list failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetTariff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tariff())
}

func (s *Server) handlePutTariff(w http.ResponseWriter, r *http.Request) {
	var t models.Tariff
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Code: string(assign.CodeBadRequest), Detail: err.Error()})
		return
	}
	if t.PerKmCar <= 0 || t.PerKmVan <= 0 || t.StartingFee < 0 {
		writeError(w, http.StatusBadRequest, errorBody{Code: string(assign.CodeBadRequest), Detail: "fees must be positive"})
		return
	}
	s.setTariff(t)
	s.broadcast(dispatch.Event{Type: "tariff_updated", Payload: t})
	writeJSON(w, http.StatusOK, t)
}

// writeAssignError maps engine error codes onto HTTP statuses. The body
// always carries the raw code so the dashboard can localize.
func (s *Server) writeAssignError(w http.ResponseWriter, err error) {
	var ae *assign.Error
	if !errors.As(err, &ae) {
		s.logger.Error("assignment failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: string(assign.CodeUnknown)})
		return
	}
	status := http.StatusInternalServerError
	switch ae.Code {
	case assign.CodeBadRequest:
		status = http.StatusBadRequest
	case assign.CodeGeocode:
		status = http.StatusUnprocessableEntity
	case assign.CodeNoVehicles, assign.CodeCapacity:
		status = http.StatusConflict
	case assign.CodeRoute:
		status = http.StatusBadGateway
	case assign.CodeMissingCredential:
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, errorBody{Code: string(ae.Code), Detail: ae.Detail})
}

func (s *Server) updateInServiceGauge(vehicles []models.Vehicle) {
	n := 0
	for _, v := range vehicles {
		if v.InService() {
			n++
		}
	}
	observability.VehiclesInService.Set(float64(n))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, map[string]errorBody{"error": body})
}
