package handler

import (
	"errors"
	"time"

	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"
	"go-invoice-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InvoiceHandler struct {
	invoices   service.InvoiceService
	reconciler service.ReconcileService
	users      service.UserService
}

func NewInvoiceHandler(invoices service.InvoiceService, reconciler service.ReconcileService, users service.UserService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, reconciler: reconciler, users: users}
}

// GetInvoices lists invoices
// Query params: type, status, from, to (YYYY-MM-DD, to is exclusive)
func (h *InvoiceHandler) GetInvoices(c *fiber.Ctx) error {
	filter := repository.InvoiceFilter{
		Type:   model.InvoiceType(c.Query("type")),
		Status: model.InvoiceStatus(c.Query("status")),
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid '" + key + "' date, use YYYY-MM-DD"})
		}
		*dst = &t
	}

	invoices, err := h.invoices.ListInvoices(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoices)
}

func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	invoiceID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	invoice, err := h.invoices.GetInvoice(c.UserContext(), invoiceID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invoice)
}

func (h *InvoiceHandler) CreateInvoice(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req service.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	profile, err := h.users.BusinessProfile(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}

	invoice, err := h.invoices.CreateInvoice(c.UserContext(), &req, profile, actor)
	if err != nil {
		return invoiceError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Invoice created", "data": invoice})
}

func (h *InvoiceHandler) UpdateInvoice(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}

	invoiceID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var req service.UpdateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	profile, err := h.users.BusinessProfile(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}

	invoice, err := h.invoices.UpdateInvoice(c.UserContext(), invoiceID, &req, profile, actor)
	if err != nil {
		return invoiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Invoice updated", "data": invoice})
}

func (h *InvoiceHandler) DeleteInvoice(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}

	invoiceID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	if err := h.invoices.DeleteInvoice(c.UserContext(), invoiceID, actor); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Invoice deleted"})
}

// Reconcile applies the invoice to product stock
// POST /api/v1/invoices/:id/reconcile
// 200 when every item was applied, 409 with the breakdown when some were not.
func (h *InvoiceHandler) Reconcile(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}

	invoiceID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	result, err := h.reconciler.Reconcile(c.UserContext(), invoiceID, actor)
	if result == nil {
		return respondError(c, err)
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Some items could not be saved", "data": result})
	}
	if !result.Success {
		return c.Status(409).JSON(fiber.Map{"error": result.Message, "data": result})
	}

	return c.JSON(fiber.Map{"message": result.Message, "data": result})
}

// invoiceError reports an unknown product in the item list as unprocessable
// rather than as a missing invoice.
func invoiceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrProductNotFound) {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}
	return respondError(c, err)
}
