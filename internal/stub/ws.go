package stub

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSession is one connected driver app.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(ev BookingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(ev)
}

// WSRegistry tracks connected drivers so the stub can push booking events
// at them the moment a rider books, the way the production backend's push
// channel would.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[int]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[int]*WSSession)} }

func (r *WSRegistry) Add(driverID int, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[driverID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(driverID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, driverID)
}

var errNoSession = errors.New("driver has no ws session")

func (r *WSRegistry) Notify(driverID int, ev BookingEvent) error {
	r.mu.RLock()
	s, ok := r.sessions[driverID]
	r.mu.RUnlock()
	if !ok {
		return errNoSession
	}
	return s.Send(ev)
}
