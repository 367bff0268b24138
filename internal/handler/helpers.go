package handler

import (
	"errors"

	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/middleware"
	"go-invoice-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errNoActor = errors.New("missing authenticated user")

// localString reads a string set by the auth middleware
func localString(c *fiber.Ctx, key, fallback string) string {
	if v, ok := c.Locals(key).(string); ok && v != "" {
		return v
	}
	return fallback
}

// currentActor builds the acting user from the JWT context
func currentActor(c *fiber.Ctx) (service.Actor, error) {
	id, err := uuid.Parse(localString(c, middleware.LocalUserID, ""))
	if err != nil {
		return service.Actor{}, errNoActor
	}
	return service.Actor{
		ID:    id,
		Name:  localString(c, middleware.LocalUserName, "Unknown"),
		Email: localString(c, middleware.LocalUserEmail, ""),
	}, nil
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
}

// respondError maps service errors to HTTP status codes
func respondError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(400).JSON(fiber.Map{"error": verr.Error(), "field": verr.Field, "tag": verr.Tag})
	case errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInvoiceType):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateBarcode),
		errors.Is(err, service.ErrDuplicateInvoiceNum):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrWrongPassword):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	log := logger.WithComponent("http")
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Request failed")
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}
