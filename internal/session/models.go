package session

import (
	"sync"
	"time"

	"backend-locshare/internal/trail"
)

type State string

const (
	StatePending State = "pending"
	StateActive  State = "active"
	StateClosed  State = "closed"
)

// Session pairs one producer with its viewers. All mutation of a session's
// state and trail happens under its own mutex; the registry map lock is never
// held across an append.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	expiresAt time.Time
	state     State
	trail     *trail.Buffer
}

// Meta is the externally visible session descriptor.
type Meta struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	PairingURL string    `json:"pairing_url,omitempty"`
	QR         string    `json:"qr,omitempty"`
}

// Ack is the producer's per-sample accept response.
type Ack struct {
	Accepted  bool      `json:"accepted"`
	State     State     `json:"state"`
	TrailLen  int       `json:"trail_len"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Snapshot is the ordered trail view returned to viewers.
type Snapshot struct {
	SessionID string        `json:"session_id"`
	State     State         `json:"state"`
	Entries   []trail.Entry `json:"entries"`
	Evicted   uint64        `json:"evicted"`
}

func (s *Session) meta() Meta {
	return Meta{
		ID:        s.ID,
		State:     s.state,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.expiresAt,
	}
}

func (s *Session) expired(now time.Time) bool {
	return !now.Before(s.expiresAt)
}
