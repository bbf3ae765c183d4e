package profile

import (
	"errors"

	"backend-hikelog/internal/auth"
	"backend-hikelog/internal/logbook"
	"backend-hikelog/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		p, err := svc.Get(c.Context(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, p)
	})

	r.Put("/me", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var patch map[string]any
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := svc.Update(c.Context(), userID, patch)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, p, "Profile updated")
	})
}

func toHTTPError(err error) error {
	var verr *logbook.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
