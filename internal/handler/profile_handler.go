package handler

import (
	"go-invoice-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	service service.UserService
}

func NewProfileHandler(s service.UserService) *ProfileHandler {
	return &ProfileHandler{service: s}
}

// GetProfile returns the logged in user with their business profile
// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.service.GetProfile(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile changes the name, phone or business details of the logged in user
// PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req service.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	profile, err := h.service.UpdateProfile(c.UserContext(), actor.ID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "data": profile})
}
