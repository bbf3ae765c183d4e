package goal

import (
	"errors"

	"backend-hikelog/internal/auth"
	"backend-hikelog/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		payload, err := parseObject(c)
		if err != nil {
			return err
		}
		rec, err := svc.Create(c.Context(), userID, payload)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusCreated, rec, "Goal created")
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		goals, err := svc.List(c.Context(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, goals)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		rec, err := svc.Get(c.Context(), userID, c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, rec)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		payload, err := parseObject(c)
		if err != nil {
			return err
		}
		rec, err := svc.Update(c.Context(), userID, c.Params("id"), payload)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, rec, "Goal updated")
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.Context(), userID, c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/progress", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		p, err := svc.Progress(c.Context(), userID, c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, p)
	})
}

func parseObject(c *fiber.Ctx) (map[string]any, error) {
	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return payload, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
