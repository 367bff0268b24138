package service

import (
	"context"
	"errors"
	"fmt"

	"go-invoice-ws/internal/events"
	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ItemResult reports what reconciliation did with one invoice item
type ItemResult struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Success     bool      `json:"success"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	Delta       int       `json:"delta"`
	Message     string    `json:"message,omitempty"`

	// Reason is ErrProductNotFound, ErrInsufficientStock or a *StorageError
	// for failed items.
	Reason error `json:"-"`
}

type ReconciliationResult struct {
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	InvoiceNumber string            `json:"invoice_number"`
	Type          model.InvoiceType `json:"type"`
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	Applied       int               `json:"applied"`
	Items         []ItemResult      `json:"items"`
}

// ReconcileService applies the stock effect of an invoice to its products.
//
// Items are applied one by one with no transaction spanning them: a failed
// item never undoes or blocks the others. Nothing records that an invoice was
// reconciled, so a second call applies the same deltas again. Each product
// write is computed from a prior read without locking, so two invoices
// reconciled at the same moment can lose an update on a shared product.
type ReconcileService interface {
	Reconcile(ctx context.Context, invoiceID uuid.UUID, actor Actor) (*ReconciliationResult, error)
}

type reconcileService struct {
	invoiceRepo repository.InvoiceRepository
	productRepo repository.ProductRepository
	publisher   events.Publisher
	concurrency int
	log         zerolog.Logger
}

func NewReconcileService(invoiceRepo repository.InvoiceRepository, productRepo repository.ProductRepository, publisher events.Publisher, concurrency int) ReconcileService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &reconcileService{
		invoiceRepo: invoiceRepo,
		productRepo: productRepo,
		publisher:   publisher,
		concurrency: concurrency,
		log:         logger.WithComponent("reconciler"),
	}
}

// Reconcile returns ErrInvoiceNotFound or ErrInvalidInvoiceType before any
// product is touched. Otherwise it attempts every item and returns the
// per-item breakdown; Success is false exactly when at least one item failed
// on stock. A storage fault on an item is reported on that item and also
// returned as the error, alongside the result.
func (s *reconcileService) Reconcile(ctx context.Context, invoiceID uuid.UUID, actor Actor) (*ReconciliationResult, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, notFoundOr(ErrInvoiceNotFound, "find invoice", err)
	}
	if !inv.Type.IsValid() {
		return nil, ErrInvalidInvoiceType
	}

	results := make([]ItemResult, len(inv.Items))

	// Items sharing a product run in order on one goroutine; distinct
	// products run in parallel.
	groups := make(map[uuid.UUID][]int)
	var order []uuid.UUID
	for i, item := range inv.Items {
		if _, ok := groups[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		groups[item.ProductID] = append(groups[item.ProductID], i)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, productID := range order {
		indexes := groups[productID]
		g.Go(func() error {
			var firstErr error
			for _, i := range indexes {
				results[i] = s.applyItem(ctx, inv.Type, inv.Items[i], actor)
				if firstErr == nil && errors.Is(results[i].Reason, ErrStorageFailure) {
					firstErr = results[i].Reason
				}
			}
			return firstErr
		})
	}
	storageFault := g.Wait()

	result := summarize(inv, results)

	logEvent := s.log.Info()
	if !result.Success || storageFault != nil {
		logEvent = s.log.Warn()
	}
	logEvent.
		Str("invoice_id", inv.ID.String()).
		Str("type", string(inv.Type)).
		Int("applied", result.Applied).
		Int("items", len(results)).
		Bool("success", result.Success).
		Msg("Inventory reconciled")

	if result.Applied > 0 {
		s.publish(ctx, result, actor)
	}

	return result, storageFault
}

func (s *reconcileService) applyItem(ctx context.Context, invType model.InvoiceType, item model.InvoiceItem, actor Actor) ItemResult {
	res := ItemResult{ProductID: item.ProductID, ProductName: item.ProductName}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		res.Reason = ErrProductNotFound
		res.Message = fmt.Sprintf("Product %s not found", displayName(item))
		return res
	}
	if err != nil {
		res.Reason = storageErr("load product", err)
		res.Message = res.Reason.Error()
		return res
	}

	if product.Name != "" {
		res.ProductName = product.Name
	}
	res.OldQuantity = product.Quantity
	res.NewQuantity = product.Quantity

	switch invType {
	case model.InvoicePurchase:
		res.Delta = item.Quantity
		res.NewQuantity = product.Quantity + item.Quantity
		rate := item.Rate
		err = s.productRepo.SetStock(ctx, product.ID, res.NewQuantity, &rate, actor.ID.String())

	case model.InvoiceSale:
		if product.Quantity < item.Quantity {
			res.Reason = ErrInsufficientStock
			res.Message = fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
				res.ProductName, product.Quantity, item.Quantity)
			return res
		}
		res.Delta = -item.Quantity
		res.NewQuantity = product.Quantity - item.Quantity
		err = s.productRepo.SetStock(ctx, product.ID, res.NewQuantity, nil, actor.ID.String())
	}

	if err != nil {
		res.Reason = notFoundOr(ErrProductNotFound, "update product stock", err)
		res.Message = res.Reason.Error()
		res.NewQuantity = res.OldQuantity
		res.Delta = 0
		return res
	}

	res.Success = true
	if res.Delta > 0 {
		res.Message = fmt.Sprintf("Added %d %s", res.Delta, unitsOf(product))
	} else {
		res.Message = fmt.Sprintf("Removed %d %s", -res.Delta, unitsOf(product))
	}
	return res
}

func summarize(inv *model.Invoice, results []ItemResult) *ReconciliationResult {
	r := &ReconciliationResult{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Type:          inv.Type,
		Success:       true,
		Items:         results,
	}

	var short, missing, faulted int
	for _, item := range results {
		switch {
		case item.Success:
			r.Applied++
		case errors.Is(item.Reason, ErrInsufficientStock):
			short++
		case errors.Is(item.Reason, ErrProductNotFound):
			missing++
		default:
			faulted++
		}
	}
	// Only a stock shortfall fails the invoice; missing products and storage
	// faults are reported per item, and faults also surface as the error.
	r.Success = short == 0

	switch {
	case len(results) == 0:
		r.Message = "Invoice has no items"
	case r.Applied == len(results):
		r.Message = fmt.Sprintf("Inventory updated for %d item(s)", r.Applied)
	default:
		r.Message = fmt.Sprintf("Inventory updated for %d of %d item(s)", r.Applied, len(results))
		if short > 0 {
			r.Message += fmt.Sprintf("; %d with insufficient stock", short)
		}
		if missing > 0 {
			r.Message += fmt.Sprintf("; %d product(s) not found", missing)
		}
		if faulted > 0 {
			r.Message += fmt.Sprintf("; %d failed to save", faulted)
		}
	}
	return r
}

func (s *reconcileService) publish(ctx context.Context, result *ReconciliationResult, actor Actor) {
	changes := make([]map[string]interface{}, 0, result.Applied)
	for _, item := range result.Items {
		if !item.Success {
			continue
		}
		changes = append(changes, map[string]interface{}{
			"product_id":   item.ProductID.String(),
			"product_name": item.ProductName,
			"old_quantity": item.OldQuantity,
			"new_quantity": item.NewQuantity,
		})
	}

	notify(ctx, s.publisher, s.log, events.Event{
		Type:    events.TypeStockUpdate,
		Action:  "inventory_reconciled",
		Message: fmt.Sprintf("%s reconciled %s invoice %s", actor.Name, result.Type, result.InvoiceNumber),
		Data: map[string]interface{}{
			"id":             result.InvoiceID.String(),
			"invoice_number": result.InvoiceNumber,
			"success":        result.Success,
			"products":       changes,
		},
		User: actor.eventUser(),
	})
}

func displayName(item model.InvoiceItem) string {
	if item.ProductName != "" {
		return item.ProductName
	}
	return item.ProductID.String()
}

func unitsOf(p *model.Product) string {
	if p.Unit != "" {
		return p.Unit
	}
	return "unit(s)"
}
