package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultSubscriberBuffer bounds how many undelivered events a subscriber may
// hold before the oldest is dropped.
const DefaultSubscriberBuffer = 16

type Hub struct {
	id     string
	redis  *redis.Client
	buffer int

	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
}

// Subscriber is one viewer's live feed for a single session. Events is closed
// when the subscriber detaches or the session closes.
type Subscriber struct {
	SessionID string
	Events    chan Event
	dropped   atomic.Uint64
}

// Dropped reports how many events were discarded because this subscriber did
// not drain its queue in time.
func (s *Subscriber) Dropped() uint64 { return s.dropped.Load() }

func NewHub(redisClient *redis.Client, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	h := &Hub{
		id:     uuid.NewString(),
		redis:  redisClient,
		buffer: buffer,
		subs:   map[string]map[*Subscriber]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Subscribe(sessionID string) *Subscriber {
	sub := &Subscriber{
		SessionID: sessionID,
		Events:    make(chan Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = map[*Subscriber]struct{}{}
	}
	h.subs[sessionID][sub] = struct{}{}
	return sub
}

// Unsubscribe detaches a subscriber. Safe to call more than once and after
// the session has closed.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionSubs, ok := h.subs[sub.SessionID]
	if !ok {
		return
	}
	if _, attached := sessionSubs[sub]; !attached {
		return
	}
	delete(sessionSubs, sub)
	if len(sessionSubs) == 0 {
		delete(h.subs, sub.SessionID)
	}
	close(sub.Events)
}

// Publish fans an event out to every subscriber of the session without ever
// blocking the caller. A full subscriber queue loses its oldest event first.
// session_closed is terminal: all subscribers are detached after delivery.
//
// Delivery happens under the read lock: sends are non-blocking, and a channel
// is only ever closed under the write lock, so a detaching subscriber can
// never race a send into a closed channel.
func (h *Hub) Publish(sessionID string, event Event) {
	h.mu.RLock()
	for sub := range h.subs[sessionID] {
		h.deliver(sub, event)
	}
	h.mu.RUnlock()

	if h.redis != nil {
		h.publishRedis(sessionID, event)
	}

	if event.Kind == EventSessionClosed {
		h.detachAll(sessionID)
	}
}

func (h *Hub) deliver(sub *Subscriber, event Event) {
	select {
	case sub.Events <- event:
		return
	default:
	}

	// queue full: discard the oldest event so the feed stays fresh rather
	// than complete
	select {
	case <-sub.Events:
		sub.dropped.Add(1)
	default:
	}
	select {
	case sub.Events <- event:
	default:
		sub.dropped.Add(1)
	}
}

func (h *Hub) detachAll(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[sessionID] {
		close(sub.Events)
	}
	delete(h.subs, sessionID)
}

type redisEnvelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

func (h *Hub) publishRedis(sessionID string, event Event) {
	payload, err := json.Marshal(redisEnvelope{Origin: h.id, Event: event})
	if err != nil {
		return
	}
	if err := h.redis.Publish(context.Background(), redisChannel(sessionID), payload).Err(); err != nil {
		log.Printf("redis publish error: %v", err)
	}
}

// subscribeRedis forwards events published by other instances to local
// subscribers. Own events are skipped by origin id.
func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "locshare:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope redisEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			continue
		}
		if envelope.Origin == h.id {
			continue
		}

		h.mu.RLock()
		for sub := range h.subs[envelope.Event.SessionID] {
			h.deliver(sub, envelope.Event)
		}
		h.mu.RUnlock()

		// a bridged close is just as terminal as a local one
		if envelope.Event.Kind == EventSessionClosed {
			h.detachAll(envelope.Event.SessionID)
		}
	}
}

func redisChannel(sessionID string) string {
	return "locshare:" + sessionID + ":events"
}
