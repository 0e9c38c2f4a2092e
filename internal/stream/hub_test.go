package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubPublish(t *testing.T) {
	hub := NewHub(nil, 0)
	sub := hub.Subscribe("session-1")
	defer hub.Unsubscribe(sub)

	hub.Publish("session-1", Event{Kind: EventProducerOnline, SessionID: "session-1", At: time.Now()})

	select {
	case event := <-sub.Events:
		if event.Kind != EventProducerOnline {
			t.Fatalf("unexpected event kind %s", event.Kind)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for event")
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(nil, 0)
	sub := hub.Subscribe("session-2")
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	if _, ok := <-sub.Events; ok {
		t.Fatalf("expected channel closed")
	}
}

func TestPublishDropsOldestOnOverflow(t *testing.T) {
	hub := NewHub(nil, 2)
	sub := hub.Subscribe("session-3")
	defer hub.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		hub.Publish("session-3", Event{Kind: EventProducerOnline, SessionID: "session-3", At: time.Unix(int64(i), 0)})
	}

	if sub.Dropped() != 3 {
		t.Fatalf("expected 3 dropped events, got %d", sub.Dropped())
	}

	// the two freshest events survive
	first := <-sub.Events
	second := <-sub.Events
	if first.At.Unix() != 3 || second.At.Unix() != 4 {
		t.Fatalf("expected freshest events, got %d and %d", first.At.Unix(), second.At.Unix())
	}
}

func TestSessionClosedDetachesAll(t *testing.T) {
	hub := NewHub(nil, 0)
	first := hub.Subscribe("session-4")
	second := hub.Subscribe("session-4")

	hub.Publish("session-4", Event{Kind: EventSessionClosed, SessionID: "session-4", At: time.Now()})

	for _, sub := range []*Subscriber{first, second} {
		event, ok := <-sub.Events
		if !ok || event.Kind != EventSessionClosed {
			t.Fatalf("expected terminal event")
		}
		if _, ok := <-sub.Events; ok {
			t.Fatalf("expected channel closed after terminal event")
		}
	}

	// detach after close is a no-op
	hub.Unsubscribe(first)
}

func TestSessionsAreIsolated(t *testing.T) {
	hub := NewHub(nil, 0)
	subA := hub.Subscribe("session-a")
	subB := hub.Subscribe("session-b")
	defer hub.Unsubscribe(subA)
	defer hub.Unsubscribe(subB)

	hub.Publish("session-a", Event{Kind: EventProducerOnline, SessionID: "session-a", At: time.Now()})

	select {
	case <-subA.Events:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("expected event on session-a")
	}
	select {
	case <-subB.Events:
		t.Fatalf("session-b must not see session-a events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDuringUnsubscribe(t *testing.T) {
	hub := NewHub(nil, 2)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					hub.Publish("session-churn", Event{Kind: EventProducerOnline, SessionID: "session-churn", At: time.Now()})
				}
			}
		}()
	}

	// subscribers detach mid-publish; sends must never hit a closed channel
	for i := 0; i < 200; i++ {
		sub := hub.Subscribe("session-churn")
		hub.Unsubscribe(sub)
	}
	close(done)
	wg.Wait()
}

func TestHubRedisBridge(t *testing.T) {
	s := miniredis.RunT(t)

	publisher := NewHub(redis.NewClient(&redis.Options{Addr: s.Addr()}), 0)
	receiver := NewHub(redis.NewClient(&redis.Options{Addr: s.Addr()}), 0)

	sub := receiver.Subscribe("session-redis")
	defer receiver.Unsubscribe(sub)

	// give the receiver's psubscribe a moment to attach
	time.Sleep(50 * time.Millisecond)

	publisher.Publish("session-redis", Event{Kind: EventProducerOffline, SessionID: "session-redis", At: time.Now()})

	select {
	case event := <-sub.Events:
		if event.Kind != EventProducerOffline {
			t.Fatalf("unexpected event kind %s", event.Kind)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for bridged event")
	}
}

func TestHubRedisBridgeSessionClosed(t *testing.T) {
	s := miniredis.RunT(t)

	publisher := NewHub(redis.NewClient(&redis.Options{Addr: s.Addr()}), 0)
	receiver := NewHub(redis.NewClient(&redis.Options{Addr: s.Addr()}), 0)

	sub := receiver.Subscribe("session-closing")

	time.Sleep(50 * time.Millisecond)

	publisher.Publish("session-closing", Event{Kind: EventSessionClosed, SessionID: "session-closing", At: time.Now()})

	select {
	case event, ok := <-sub.Events:
		if !ok || event.Kind != EventSessionClosed {
			t.Fatalf("expected bridged session_closed, got %+v", event)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for bridged close")
	}

	// a close from another instance detaches local subscribers too
	select {
	case _, ok := <-sub.Events:
		if ok {
			t.Fatalf("expected channel closed after bridged close")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for detach")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	s.Close()
	defer client.Close()

	hub := NewHub(client, 0)
	sub := hub.Subscribe("session-bad")
	defer hub.Unsubscribe(sub)

	// must not panic or block when redis is unreachable
	hub.Publish("session-bad", Event{Kind: EventProducerOnline, SessionID: "session-bad", At: time.Now()})
}
