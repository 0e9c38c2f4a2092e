package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-locshare/internal/geo"
	"backend-locshare/internal/trail"
)

func RegisterRoutes(r fiber.Router, reg *Registry, baseURL string, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		meta := reg.Create()
		meta.PairingURL = PairingURL(baseURL, meta.ID)
		meta.QR = PairingQR(meta.PairingURL)
		return c.Status(fiber.StatusCreated).JSON(meta)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		meta, err := reg.Get(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return c.JSON(meta)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		reg.Close(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/touch", authMiddleware, func(c *fiber.Ctx) error {
		if err := reg.Touch(c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/locations", func(c *fiber.Ctx) error {
		var raw geo.RawSample
		if err := c.BodyParser(&raw); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ack, err := reg.Append(c.Params("id"), raw)
		if err != nil {
			return appendError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(ack)
	})

	r.Get("/:id/snapshot", func(c *fiber.Ctx) error {
		snap, err := reg.Snapshot(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return c.JSON(snap)
	})
}

func appendError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	case errors.Is(err, ErrSessionExpired):
		return fiber.NewError(fiber.StatusGone, "session expired")
	case errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, geo.ErrInvalidTimestamp),
		errors.Is(err, geo.ErrInvalidField),
		errors.Is(err, trail.ErrOutOfOrder):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
