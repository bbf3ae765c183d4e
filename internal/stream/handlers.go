package stream

import (
	"context"

	"backend-hikelog/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Access decides whether a user may watch a hike's live track. It follows
// the same owner-or-shared rule as reading the stored track.
type Access interface {
	CanWatch(ctx context.Context, userID, hikeID string) (bool, error)
}

// RegisterRoutes mounts the live track websocket. Clients only read; anything
// they send is drained and ignored until they disconnect.
func RegisterRoutes(r fiber.Router, hub *Hub, access Access, authMiddleware fiber.Handler) {
	r.Get("/ws/:hikeID", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		ok, err := access.CanWatch(c.UserContext(), userID, c.Params("hikeID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "hike not found")
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("hikeID"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
