package handler

import (
	"time"

	"go-invoice-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetSummary returns the monthly financial summary
// Query params: month (YYYY-MM, default current month)
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	month := time.Now()
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, time.Local)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid month, use YYYY-MM"})
		}
		month = parsed
	}

	summary, err := h.service.GetMonthlySummary(c.UserContext(), month)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard summary"})
	}

	return c.JSON(summary)
}

// GetStats returns overview statistics
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStockStats(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(stats)
}
