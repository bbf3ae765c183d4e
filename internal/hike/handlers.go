package hike

import (
	"context"
	"errors"

	"backend-hikelog/internal/auth"
	"backend-hikelog/internal/logbook"
	"backend-hikelog/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultSharedLimit = 20
	maxSharedLimit     = 100
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		raw, err := parseObject(c)
		if err != nil {
			return err
		}
		h, err := svc.Create(c.Context(), userID, raw)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusCreated, h, "Hike created")
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		hikes, err := svc.ListByUser(c.Context(), userID)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, hikes)
	})

	r.Get("/shared", authMiddleware, func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultSharedLimit)
		if limit <= 0 || limit > maxSharedLimit {
			limit = defaultSharedLimit
		}
		hikes, err := svc.ListShared(c.Context(), limit)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, hikes)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		h, err := svc.GetFor(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, h)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		patch, err := parseObject(c)
		if err != nil {
			return err
		}
		h, err := svc.Update(c.Context(), userID, c.Params("id"), patch)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, h, "Hike updated")
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

	r.Post("/:id/pin", authMiddleware, func(c *fiber.Ctx) error {
		return toggle(c, "pinned", svc.SetPinned)
	})

	r.Post("/:id/share", authMiddleware, func(c *fiber.Ctx) error {
		return toggle(c, "shared", svc.SetShared)
	})

	r.Post("/:id/track", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		raw, err := parseObject(c)
		if err != nil {
			return err
		}
		point, err := svc.AppendTrackPoint(c.Context(), userID, c.Params("id"), raw)
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusCreated, point)
	})

	r.Get("/:id/track", authMiddleware, func(c *fiber.Ctx) error {
		track, err := svc.Track(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return response.JSON(c, fiber.StatusOK, track)
	})
}

// toggle sets a boolean flag from {"<key>": bool}. An empty body sets it.
func toggle(c *fiber.Ctx, key string, set func(ctx context.Context, userID, id string, value bool) error) error {
	userID, err := auth.RequireUser(c)
	if err != nil {
		return err
	}
	value := true
	if len(c.Body()) > 0 {
		body, err := parseObject(c)
		if err != nil {
			return err
		}
		if v, present := body[key]; present {
			b, ok := v.(bool)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, key+" must be a boolean")
			}
			value = b
		}
	}
	if err := set(c.Context(), userID, c.Params("id"), value); err != nil {
		return toHTTPError(err)
	}
	return response.JSON(c, fiber.StatusOK, fiber.Map{"id": c.Params("id"), key: value})
}

func parseObject(c *fiber.Ctx) (map[string]any, error) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if body == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "body must be a JSON object")
	}
	return body, nil
}

func toHTTPError(err error) error {
	var verr *logbook.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
