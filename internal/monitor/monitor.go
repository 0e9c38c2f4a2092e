package monitor

import (
	"sync"
	"time"

	"backend-locshare/internal/stream"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// Monitor tracks producer connectivity and geolocation permission per
// session. Only state transitions publish events; repeated reports of the
// same state are silent.
type Monitor struct {
	hub *stream.Hub

	mu        sync.Mutex
	producers map[string]*producerState
}

type producerState struct {
	online     bool
	permission Permission
}

func New(hub *stream.Hub) *Monitor {
	return &Monitor{
		hub:       hub,
		producers: map[string]*producerState{},
	}
}

func (m *Monitor) SetOnline(sessionID string, online bool) {
	m.mu.Lock()
	state := m.state(sessionID)
	changed := state.online != online
	state.online = online
	m.mu.Unlock()

	if !changed || m.hub == nil {
		return
	}
	kind := stream.EventProducerOffline
	if online {
		kind = stream.EventProducerOnline
	}
	m.hub.Publish(sessionID, stream.Event{Kind: kind, SessionID: sessionID, At: time.Now()})
}

// SetPermission records the producer's geolocation permission. A transition
// to denied is announced to subscribers; it does not close the session, the
// producer may re-grant and resume.
func (m *Monitor) SetPermission(sessionID string, permission Permission) {
	m.mu.Lock()
	state := m.state(sessionID)
	denied := state.permission != PermissionDenied && permission == PermissionDenied
	state.permission = permission
	m.mu.Unlock()

	if !denied || m.hub == nil {
		return
	}
	m.hub.Publish(sessionID, stream.Event{Kind: stream.EventPermissionDenied, SessionID: sessionID, At: time.Now()})
}

// Forget drops tracked state for a closed session.
func (m *Monitor) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.producers, sessionID)
	m.mu.Unlock()
}

func (m *Monitor) state(sessionID string) *producerState {
	state, ok := m.producers[sessionID]
	if !ok {
		state = &producerState{permission: PermissionPrompt}
		m.producers[sessionID] = state
	}
	return state
}
