package session

import (
	"errors"
	"sync"
	"time"

	"backend-locshare/internal/geo"
	"backend-locshare/internal/monitor"
	"backend-locshare/internal/stream"
	"backend-locshare/internal/trail"

	"github.com/google/uuid"
)

// DefaultTTL is how long a session lives without an accepted sample.
const DefaultTTL = 24 * time.Hour

var (
	ErrNotFound       = errors.New("session not found")
	ErrSessionExpired = errors.New("session expired")
)

// Registry owns every live session. Expiry is lazy: it is evaluated under the
// session mutex whenever the session is touched, so an append racing the TTL
// either lands before expiry or fails with ErrSessionExpired, never half of
// both.
type Registry struct {
	ttl      time.Duration
	trailCap int
	hub      *stream.Hub
	monitor  *monitor.Monitor

	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

func NewRegistry(ttl time.Duration, trailCap int, hub *stream.Hub, mon *monitor.Monitor) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		ttl:      ttl,
		trailCap: trailCap,
		hub:      hub,
		monitor:  mon,
		sessions: map[string]*Session{},
		now:      time.Now,
	}
}

// Create allocates a session with an unguessable id. The id doubles as the
// shared secret for the producer side, so it must never be sequential.
func (r *Registry) Create() Meta {
	now := r.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		expiresAt: now.Add(r.ttl),
		state:     StatePending,
		trail:     trail.New(r.trailCap),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s.meta()
}

// Get returns session metadata. An expired session is closed on access and
// reported as not found.
func (r *Registry) Get(id string) (Meta, error) {
	s, err := r.lookup(id)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return Meta{}, ErrNotFound
	}
	if s.expired(r.now()) {
		s.state = StateClosed
		s.mu.Unlock()
		r.finishClose(s)
		return Meta{}, ErrNotFound
	}
	meta := s.meta()
	s.mu.Unlock()
	return meta, nil
}

// Exists is Get with the metadata discarded; handed to the stream and monitor
// handlers as their session check.
func (r *Registry) Exists(id string) error {
	_, err := r.Get(id)
	return err
}

// Touch extends the session's TTL without accepting a sample.
func (r *Registry) Touch(id string) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	now := r.now()
	if s.state == StateClosed || s.expired(now) {
		expired := s.state != StateClosed
		if expired {
			s.state = StateClosed
		}
		s.mu.Unlock()
		if expired {
			r.finishClose(s)
		}
		return ErrNotFound
	}
	s.expiresAt = now.Add(r.ttl)
	s.mu.Unlock()
	return nil
}

// Append runs the full producer pipeline for one sample: expiry check,
// normalization, trail append, TTL refresh, fan-out. All of it is serialized
// per session.
func (r *Registry) Append(id string, raw geo.RawSample) (Ack, error) {
	s, err := r.lookup(id)
	if err != nil {
		return Ack{}, err
	}

	s.mu.Lock()
	now := r.now()
	if s.state == StateClosed {
		s.mu.Unlock()
		return Ack{}, ErrSessionExpired
	}
	if s.expired(now) {
		s.state = StateClosed
		s.mu.Unlock()
		r.finishClose(s)
		return Ack{}, ErrSessionExpired
	}

	sample, err := geo.Normalize(raw)
	if err != nil {
		s.mu.Unlock()
		return Ack{}, err
	}
	if err := s.trail.Append(sample); err != nil {
		s.mu.Unlock()
		return Ack{}, err
	}

	s.expiresAt = now.Add(r.ttl)
	if s.state == StatePending {
		s.state = StateActive
	}
	ack := Ack{Accepted: true, State: s.state, TrailLen: s.trail.Len(), ExpiresAt: s.expiresAt}

	// publish before releasing the session mutex so subscribers see samples
	// in append order; the hub never blocks, so holding the lock is safe
	if r.hub != nil {
		r.hub.Publish(id, stream.Event{
			Kind:      stream.EventSampleAppended,
			SessionID: id,
			Sample:    &sample,
			At:        now,
		})
	}
	s.mu.Unlock()
	return ack, nil
}

// Snapshot returns the ordered trail with derived fields.
func (r *Registry) Snapshot(id string) (Snapshot, error) {
	s, err := r.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return Snapshot{}, ErrNotFound
	}
	if s.expired(r.now()) {
		s.state = StateClosed
		s.mu.Unlock()
		r.finishClose(s)
		return Snapshot{}, ErrNotFound
	}
	snap := Snapshot{
		SessionID: s.ID,
		State:     s.state,
		Entries:   s.trail.Snapshot(),
		Evicted:   s.trail.Evicted(),
	}
	s.mu.Unlock()
	return snap, nil
}

// Close ends a session explicitly. Closing an unknown or already closed
// session is a no-op.
func (r *Registry) Close(id string) {
	s, err := r.lookup(id)
	if err != nil {
		return
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	r.finishClose(s)
}

func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// finishClose removes a closed session from the registry and tells everyone.
// Called without the session mutex held.
func (r *Registry) finishClose(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID)
	r.mu.Unlock()

	if r.monitor != nil {
		r.monitor.Forget(s.ID)
	}
	if r.hub != nil {
		r.hub.Publish(s.ID, stream.Event{
			Kind:      stream.EventSessionClosed,
			SessionID: s.ID,
			At:        r.now(),
		})
	}
}
