package dispatch

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is pushed to connected dashboards when fleet or ride-log state
// changes.
type Event struct {
	Type    string `json:"type"` // vehicle_updated, ride_confirmed, tariff_updated
	Payload any    `json:"payload"`
}

// WSSession represents one connected dashboard.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(ev)
}

// WSRegistry holds dashboard sessions and fans events out to all of them.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[string]*WSSession)} }

func (r *WSRegistry) Add(sessionID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Broadcast sends the event to every session, dropping sessions whose write
// fails.
func (r *WSRegistry) Broadcast(ev Event) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	sessions := make([]*WSSession, 0, len(r.sessions))
	for id, s := range r.sessions {
		ids = append(ids, id)
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for i, s := range sessions {
		if err := s.Send(ev); err != nil {
			log.Printf("ws send error, dropping session %s: %v", ids[i], err)
			r.Remove(ids[i])
		}
	}
}
