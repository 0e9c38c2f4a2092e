package stream

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LookupFunc reports whether a session id is live; a non-nil error means the
// id is unknown or expired.
type LookupFunc func(id string) error

func RegisterRoutes(r fiber.Router, hub *Hub, lookup LookupFunc) {
	r.Get("/:id/ws", func(c *fiber.Ctx) error {
		if lookup != nil {
			if err := lookup(c.Params("id")); err != nil {
				return fiber.NewError(fiber.StatusNotFound, "session not found")
			}
		}
		return websocket.New(feedHandler(hub))(c)
	})
}

func feedHandler(hub *Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		sessionID := c.Params("id")
		sub := hub.Subscribe(sessionID)
		defer hub.Unsubscribe(sub)

		done := make(chan struct{})
		go func() {
			for event := range sub.Events {
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
					break
				}
			}
			// terminal event or detach: unblock the read loop
			_ = c.Close()
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unsubscribe(sub)
		<-done
	}
}
