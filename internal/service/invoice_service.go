package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-invoice-ws/internal/events"
	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	dateLayout        = "2006-01-02"
	maxNumberAttempts = 50
)

type InvoiceItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"uuid_required"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	Rate        decimal.Decimal `json:"rate" validate:"gte=0"`
	Discount    decimal.Decimal `json:"discount" validate:"gte=0,lte=100"`
}

type CreateInvoiceRequest struct {
	InvoiceNumber string              `json:"invoice_number" validate:"omitempty,max=40"`
	Type          model.InvoiceType   `json:"type"`
	Status        model.InvoiceStatus `json:"status" validate:"omitempty,oneof=DRAFT FINALIZED PAID CANCELLED"`
	Date          string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Counterpart   model.Party         `json:"counterpart"`
	TaxRate       *decimal.Decimal    `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	Notes         string              `json:"notes"`
	Items         []InvoiceItemInput  `json:"items" validate:"required,min=1,dive"`
}

// UpdateInvoiceRequest is a patch. A non-nil Items list replaces every item
// and recomputes totals; without it only Date, Notes and Status may change.
type UpdateInvoiceRequest struct {
	Type        *model.InvoiceType   `json:"type"`
	Status      *model.InvoiceStatus `json:"status" validate:"omitempty,oneof=DRAFT FINALIZED PAID CANCELLED"`
	Date        *string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Counterpart *model.Party         `json:"counterpart"`
	TaxRate     *decimal.Decimal     `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	Notes       *string              `json:"notes"`
	Items       []InvoiceItemInput   `json:"items" validate:"omitempty,dive"`
}

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *CreateInvoiceRequest, profile model.Party, actor Actor) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, req *UpdateInvoiceRequest, profile model.Party, actor Actor) (*model.Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID, actor Actor) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, filter repository.InvoiceFilter) ([]model.Invoice, error)
}

type invoiceService struct {
	invoiceRepo    repository.InvoiceRepository
	productRepo    repository.ProductRepository
	publisher      events.Publisher
	defaultTaxRate decimal.Decimal
	now            func() time.Time
	log            zerolog.Logger
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository, productRepo repository.ProductRepository, publisher events.Publisher, defaultTaxRate decimal.Decimal) InvoiceService {
	return &invoiceService{
		invoiceRepo:    invoiceRepo,
		productRepo:    productRepo,
		publisher:      publisher,
		defaultTaxRate: defaultTaxRate,
		now:            time.Now,
		log:            logger.WithComponent("invoice-service"),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest, profile model.Party, actor Actor) (*model.Invoice, error) {
	if !req.Type.IsValid() {
		return nil, ErrInvalidInvoiceType
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if req.Date != "" {
		date, _ = time.Parse(dateLayout, req.Date)
	}

	inv := &model.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		Type:          req.Type,
		Status:        req.Status,
		Date:          datatypes.Date(date),
		TaxRate:       s.defaultTaxRate,
		Notes:         req.Notes,
		UserID:        actor.ID,
		Items:         items,
	}
	if inv.Status == "" {
		inv.Status = model.StatusDraft
	}
	if req.TaxRate != nil {
		inv.TaxRate = *req.TaxRate
	}
	inv.CreatedBy = actor.ID.String()
	inv.UpdatedBy = actor.ID.String()
	inv.AssignParties(profile, req.Counterpart)
	ApplyTotals(inv)

	if err := s.assignNumber(ctx, inv, date); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.CreateWithItems(ctx, inv); err != nil {
		return nil, storageErr("create invoice", err)
	}

	s.log.Info().
		Str("invoice_id", inv.ID.String()).
		Str("invoice_number", inv.InvoiceNumber).
		Str("type", string(inv.Type)).
		Int("items", len(inv.Items)).
		Msg("Invoice created")
	s.publish(ctx, "invoice_created", inv, actor)
	return inv, nil
}

// buildItems validates product references, snapshots names and assigns
// serial numbers 1..N. Amounts are filled by ApplyTotals.
func (s *invoiceService) buildItems(ctx context.Context, inputs []InvoiceItemInput) ([]model.InvoiceItem, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, in := range inputs {
		if !seen[in.ProductID] {
			seen[in.ProductID] = true
			ids = append(ids, in.ProductID)
		}
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storageErr("load invoice products", err)
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	items := make([]model.InvoiceItem, len(inputs))
	for i, in := range inputs {
		catalogName, ok := names[in.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, in.ProductID)
		}
		name := in.ProductName
		if name == "" {
			name = catalogName
		}
		items[i] = model.InvoiceItem{
			ProductID:   in.ProductID,
			ProductName: name,
			Quantity:    in.Quantity,
			Rate:        in.Rate,
			Discount:    in.Discount,
		}
	}
	renumber(items)
	return items, nil
}

func numberPrefix(t model.InvoiceType, date time.Time) string {
	code := "SAL"
	if t == model.InvoicePurchase {
		code = "PUR"
	}
	return fmt.Sprintf("%s-%s-", code, date.Format("200601"))
}

// assignNumber keeps a caller-chosen number when it is free, or generates the
// next PREFIX-YYYYMM-NNNN number for the invoice type and month.
func (s *invoiceService) assignNumber(ctx context.Context, inv *model.Invoice, date time.Time) error {
	if inv.InvoiceNumber != "" {
		exists, err := s.invoiceRepo.NumberExists(ctx, inv.InvoiceNumber)
		if err != nil {
			return storageErr("check invoice number", err)
		}
		if exists {
			return ErrDuplicateInvoiceNum
		}
		return nil
	}

	prefix := numberPrefix(inv.Type, date)
	count, err := s.invoiceRepo.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return storageErr("count invoice numbers", err)
	}

	for seq := count + 1; seq <= count+maxNumberAttempts; seq++ {
		candidate := fmt.Sprintf("%s%04d", prefix, seq)
		exists, err := s.invoiceRepo.NumberExists(ctx, candidate)
		if err != nil {
			return storageErr("check invoice number", err)
		}
		if !exists {
			inv.InvoiceNumber = candidate
			return nil
		}
	}
	return storageErr("generate invoice number", fmt.Errorf("no free number after %s%04d", prefix, count+maxNumberAttempts))
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id uuid.UUID, req *UpdateInvoiceRequest, profile model.Party, actor Actor) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(ErrInvoiceNotFound, "find invoice", err)
	}

	if err := validate(req); err != nil {
		return nil, err
	}

	if req.Items == nil {
		return s.patchMetadata(ctx, inv, req, actor)
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "UpdateInvoiceRequest.Items", Tag: "min", Param: "1"}
	}

	counterpart := inv.Counterpart()
	if req.Counterpart != nil {
		counterpart = *req.Counterpart
	}
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, ErrInvalidInvoiceType
		}
		inv.Type = *req.Type
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	if req.TaxRate != nil {
		inv.TaxRate = *req.TaxRate
	}
	if req.Date != nil {
		date, _ := time.Parse(dateLayout, *req.Date)
		inv.Date = datatypes.Date(date)
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}
	if req.Status != nil {
		inv.Status = *req.Status
	}

	inv.Items = items
	inv.UpdatedBy = actor.ID.String()
	inv.AssignParties(profile, counterpart)
	ApplyTotals(inv)

	if err := s.invoiceRepo.ReplaceItems(ctx, inv); err != nil {
		return nil, storageErr("replace invoice items", err)
	}

	s.log.Info().Str("invoice_id", inv.ID.String()).Int("items", len(inv.Items)).Msg("Invoice items replaced")
	s.publish(ctx, "invoice_updated", inv, actor)
	return inv, nil
}

// patchMetadata handles updates without an item list. Fields that would
// change totals or parties need the full item list.
func (s *invoiceService) patchMetadata(ctx context.Context, inv *model.Invoice, req *UpdateInvoiceRequest, actor Actor) (*model.Invoice, error) {
	switch {
	case req.Type != nil:
		return nil, &ValidationError{Field: "UpdateInvoiceRequest.Type", Tag: "required_with", Param: "Items"}
	case req.TaxRate != nil:
		return nil, &ValidationError{Field: "UpdateInvoiceRequest.TaxRate", Tag: "required_with", Param: "Items"}
	case req.Counterpart != nil:
		return nil, &ValidationError{Field: "UpdateInvoiceRequest.Counterpart", Tag: "required_with", Param: "Items"}
	}

	fields := map[string]interface{}{"updated_by": actor.ID.String()}
	if req.Date != nil {
		date, _ := time.Parse(dateLayout, *req.Date)
		fields["date"] = datatypes.Date(date)
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	if err := s.invoiceRepo.UpdateFields(ctx, inv.ID, fields); err != nil {
		return nil, notFoundOr(ErrInvoiceNotFound, "update invoice", err)
	}

	updated, err := s.invoiceRepo.FindByID(ctx, inv.ID)
	if err != nil {
		return nil, notFoundOr(ErrInvoiceNotFound, "reload invoice", err)
	}
	s.publish(ctx, "invoice_updated", updated, actor)
	return updated, nil
}

// DeleteInvoice removes the invoice and its items. Stock already applied by
// a reconciliation is left as is.
func (s *invoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID, actor Actor) error {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(ErrInvoiceNotFound, "find invoice", err)
	}

	if err := s.invoiceRepo.Delete(ctx, id, actor.ID.String()); err != nil {
		return notFoundOr(ErrInvoiceNotFound, "delete invoice", err)
	}

	s.log.Info().Str("invoice_id", id.String()).Str("invoice_number", inv.InvoiceNumber).Msg("Invoice deleted")
	s.publish(ctx, "invoice_deleted", inv, actor)
	return nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(ErrInvoiceNotFound, "find invoice", err)
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter repository.InvoiceFilter) ([]model.Invoice, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, ErrInvalidInvoiceType
	}
	invoices, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, storageErr("list invoices", err)
	}
	return invoices, nil
}

func (s *invoiceService) publish(ctx context.Context, action string, inv *model.Invoice, actor Actor) {
	notify(ctx, s.publisher, s.log, events.Event{
		Type:    events.TypeInvoiceEvent,
		Action:  action,
		Message: fmt.Sprintf("%s %s invoice %s", actor.Name, strings.TrimPrefix(action, "invoice_"), inv.InvoiceNumber),
		Data: map[string]interface{}{
			"id":             inv.ID.String(),
			"invoice_number": inv.InvoiceNumber,
			"type":           inv.Type,
			"status":         inv.Status,
			"total":          inv.Total,
		},
		User: actor.eventUser(),
	})
}
