package storage

import (
	"errors"

	"backend-hikelog/internal/auth"
	"backend-hikelog/internal/shared/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var body struct {
			HikeID   string `json:"hikeId"`
			FileName string `json:"fileName"`
			Kind     string `json:"kind"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		obj, err := svc.SaveObject(c.Context(), userID, body.HikeID, body.FileName, body.Kind)
		if errors.Is(err, ErrInvalidKind) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return response.JSON(c, fiber.StatusCreated, obj, "Upload slot created")
	})
}
