package monitor

import (
	"github.com/gofiber/fiber/v2"

	"backend-locshare/internal/stream"
)

type statusRequest struct {
	Online     *bool   `json:"online,omitempty"`
	Permission *string `json:"permission,omitempty"`
}

func RegisterRoutes(r fiber.Router, mon *Monitor, lookup stream.LookupFunc) {
	r.Post("/:id/status", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if lookup != nil {
			if err := lookup(id); err != nil {
				return fiber.NewError(fiber.StatusNotFound, "session not found")
			}
		}

		var req statusRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if req.Online != nil {
			mon.SetOnline(id, *req.Online)
		}
		if req.Permission != nil {
			switch Permission(*req.Permission) {
			case PermissionGranted, PermissionDenied, PermissionPrompt:
				mon.SetPermission(id, Permission(*req.Permission))
			default:
				return fiber.NewError(fiber.StatusBadRequest, "unknown permission state")
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
