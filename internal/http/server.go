package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/taxi-dispatch/internal/assign"
	"github.com/example/taxi-dispatch/internal/dispatch"
	"github.com/example/taxi-dispatch/internal/fleet"
	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/ridelog"
)

// Assigner is the engine surface the handlers consume.
type Assigner interface {
	Assign(ctx context.Context, req models.RideRequest, vehicles []models.Vehicle, tariff models.Tariff, opts assign.Options) (*models.Assignment, error)
}

// RidePublisher pushes confirmed rides onto the event stream.
type RidePublisher interface {
	PublishRide(e models.LogEntry) error
}

type ServerDeps struct {
	Logger   *slog.Logger
	Engine   Assigner
	Fleet    fleet.Store
	RideLog  ridelog.Store
	Tariff   models.Tariff
	Producer RidePublisher        // optional
	WS       *dispatch.WSRegistry // optional
	Webhook  *dispatch.WebhookNotifier
}

type Server struct {
	logger   *slog.Logger
	engine   Assigner
	fleet    fleet.Store
	rideLog  ridelog.Store
	producer RidePublisher
	ws       *dispatch.WSRegistry
	webhook  *dispatch.WebhookNotifier
	mux      *mux.Router

	tariffMu sync.RWMutex
	tariff   models.Tariff
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		logger:   deps.Logger,
		engine:   deps.Engine,
		fleet:    deps.Fleet,
		rideLog:  deps.RideLog,
		producer: deps.Producer,
		ws:       deps.WS,
		webhook:  deps.Webhook,
		tariff:   deps.Tariff,
		mux:      mux.NewRouter(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/assignments", s.handleAssign).Methods("POST")
	api.HandleFunc("/assignments/confirm", s.handleConfirm).Methods("POST")

	api.HandleFunc("/vehicles", s.handleListVehicles).Methods("GET")
	api.HandleFunc("/vehicles", s.handlePutVehicle).Methods("POST")
	api.HandleFunc("/vehicles/{id}", s.handleGetVehicle).Methods("GET")
	api.HandleFunc("/vehicles/{id}", s.handlePutVehicle).Methods("PUT")
	api.HandleFunc("/vehicles/{id}", s.handleDeleteVehicle).Methods("DELETE")

	api.HandleFunc("/ridelog", s.handleRideLog).Methods("GET")
	api.HandleFunc("/tariff", s.handleGetTariff).Methods("GET")
	api.HandleFunc("/tariff", s.handlePutTariff).Methods("PUT")

	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Tariff returns the current tariff table.
func (s *Server) Tariff() models.Tariff {
	s.tariffMu.RLock()
	defer s.tariffMu.RUnlock()
	return s.tariff
}

func (s *Server) setTariff(t models.Tariff) {
	s.tariffMu.Lock()
	s.tariff = t
	s.tariffMu.Unlock()
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.ws == nil {
		http.Error(w, "websocket feed disabled", http.StatusNotImplemented)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.ws.Add(newID(), conn)
}

func (s *Server) broadcast(ev dispatch.Event) {
	if s.ws != nil {
		s.ws.Broadcast(ev)
	}
	if s.webhook != nil {
		if err := s.webhook.Notify(ev); err != nil {
			s.logger.Warn("webhook notify failed", "type", ev.Type, "error", err)
		}
	}
}
