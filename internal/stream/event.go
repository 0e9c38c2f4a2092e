package stream

import (
	"time"

	"backend-locshare/internal/geo"
)

type EventKind string

const (
	EventSampleAppended   EventKind = "sample_appended"
	EventProducerOffline  EventKind = "producer_offline"
	EventProducerOnline   EventKind = "producer_online"
	EventPermissionDenied EventKind = "permission_denied"
	EventSessionClosed    EventKind = "session_closed"
)

// Event is one item of a session's live feed. Sample is set only for
// sample_appended.
type Event struct {
	Kind      EventKind   `json:"kind"`
	SessionID string      `json:"session_id"`
	Sample    *geo.Sample `json:"sample,omitempty"`
	At        time.Time   `json:"at"`
}
