package handler

import (
	"time"

	"go-invoice-ws/internal/middleware"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"
	"go-invoice-ws/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Product   *ProductHandler
	Invoice   *InvoiceHandler
	Dashboard *DashboardHandler
}

// RegisterRoutes mounts the API under /api/v1 and, when hub is set, the
// WebSocket stream under /ws. Sessions idle for longer than sessionIdle are
// rejected; zero disables the check.
func RegisterRoutes(app *fiber.App, h Handlers, userRepo repository.UserRepository, sessionIdle time.Duration, hub *ws.Hub) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo, sessionIdle))

	protected.Post("/auth/heartbeat", h.Auth.Heartbeat)
	protected.Post("/auth/change-password", h.Auth.ChangePassword)

	protected.Get("/profile", h.Profile.GetProfile)
	protected.Put("/profile", h.Profile.UpdateProfile)

	// Dashboard Routes
	protected.Get("/dashboard/summary", middleware.RequirePrivilege(model.PrivDashboardView), h.Dashboard.GetSummary)
	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivDashboardView), h.Dashboard.GetStats)

	// Product Routes
	products := protected.Group("/products")
	products.Get("/", middleware.RequireAnyPrivilege(model.PrivProductView, model.PrivInvoiceCreate), h.Product.GetProducts)
	products.Get("/:id", middleware.RequireAnyPrivilege(model.PrivProductView, model.PrivInvoiceCreate), h.Product.GetProduct)
	products.Post("/", middleware.RequirePrivilege(model.PrivProductCreate), h.Product.CreateProduct)
	products.Put("/:id", middleware.RequirePrivilege(model.PrivProductUpdate), h.Product.UpdateProduct)
	products.Delete("/:id", middleware.RequirePrivilege(model.PrivProductDelete), h.Product.DeleteProduct)

	// Invoice Routes
	invoices := protected.Group("/invoices")
	invoices.Get("/", middleware.RequirePrivilege(model.PrivInvoiceView), h.Invoice.GetInvoices)
	invoices.Get("/:id", middleware.RequirePrivilege(model.PrivInvoiceView), h.Invoice.GetInvoice)
	invoices.Post("/", middleware.RequirePrivilege(model.PrivInvoiceCreate), h.Invoice.CreateInvoice)
	invoices.Put("/:id", middleware.RequirePrivilege(model.PrivInvoiceUpdate), h.Invoice.UpdateInvoice)
	invoices.Delete("/:id", middleware.RequirePrivilege(model.PrivInvoiceDelete), h.Invoice.DeleteInvoice)
	invoices.Post("/:id/reconcile", middleware.RequirePrivilege(model.PrivInventoryReconcile), h.Invoice.Reconcile)

	if hub == nil {
		return
	}

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !hub.Join(c) {
			return
		}
		defer hub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
