package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-invoice-ws/internal/events"
	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/model"
	"go-invoice-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *model.Product, actor Actor) error
	UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product, actor Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	publisher   events.Publisher
	log         zerolog.Logger
}

func NewProductService(productRepo repository.ProductRepository, publisher events.Publisher) ProductService {
	return &productService{
		productRepo: productRepo,
		publisher:   publisher,
		log:         logger.WithComponent("product-service"),
	}
}

func productPayload(p *model.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":            p.ID.String(),
		"name":          p.Name,
		"quantity":      p.Quantity,
		"buying_price":  p.BuyingPrice,
		"selling_price": p.SellingPrice,
	}
}

// normalizeBarcode turns a blank barcode into nil so the unique index ignores it
func normalizeBarcode(p *model.Product) {
	if p.Barcode == nil {
		return
	}
	trimmed := strings.TrimSpace(*p.Barcode)
	if trimmed == "" {
		p.Barcode = nil
		return
	}
	p.Barcode = &trimmed
}

func (s *productService) checkBarcode(ctx context.Context, p *model.Product, selfID uuid.UUID) error {
	if p.Barcode == nil {
		return nil
	}
	existing, err := s.productRepo.FindByBarcode(ctx, *p.Barcode)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storageErr("find product by barcode", err)
	}
	if existing.ID != selfID {
		return ErrDuplicateBarcode
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, req *model.Product, actor Actor) error {
	normalizeBarcode(req)
	if err := validate(req); err != nil {
		return err
	}

	if err := s.checkBarcode(ctx, req, uuid.Nil); err != nil {
		return err
	}

	req.CreatedBy = actor.ID.String()
	req.UpdatedBy = actor.ID.String()

	if err := s.productRepo.Create(ctx, req); err != nil {
		return storageErr("create product", err)
	}

	s.log.Info().Str("product_id", req.ID.String()).Str("user_id", actor.ID.String()).Msg("Product created")
	notify(ctx, s.publisher, s.log, events.Event{
		Type:    events.TypeStockUpdate,
		Action:  "product_created",
		Message: fmt.Sprintf("%s created product '%s'", actor.Name, req.Name),
		Data:    productPayload(req),
		User:    actor.eventUser(),
	})
	return nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product, actor Actor) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(ErrProductNotFound, "find product", err)
	}

	normalizeBarcode(req)
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkBarcode(ctx, req, existing.ID); err != nil {
		return nil, err
	}

	oldQuantity := existing.Quantity

	existing.Name = req.Name
	existing.Quantity = req.Quantity
	existing.BuyingPrice = req.BuyingPrice
	existing.SellingPrice = req.SellingPrice
	existing.WholesalePrice = req.WholesalePrice
	existing.MRP = req.MRP
	existing.Discount = req.Discount
	existing.Unit = req.Unit
	existing.Barcode = req.Barcode
	existing.Supplier = req.Supplier
	existing.UpdatedBy = actor.ID.String()

	if err := s.productRepo.Update(ctx, existing); err != nil {
		return nil, storageErr("update product", err)
	}

	data := productPayload(existing)
	data["old_quantity"] = oldQuantity
	notify(ctx, s.publisher, s.log, events.Event{
		Type:    events.TypeStockUpdate,
		Action:  "product_updated",
		Message: fmt.Sprintf("%s updated product '%s'", actor.Name, existing.Name),
		Data:    data,
		User:    actor.eventUser(),
	})
	return existing, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(ErrProductNotFound, "find product", err)
	}

	if err := s.productRepo.Delete(ctx, id, actor.ID.String()); err != nil {
		return notFoundOr(ErrProductNotFound, "delete product", err)
	}

	notify(ctx, s.publisher, s.log, events.Event{
		Type:    events.TypeStockUpdate,
		Action:  "product_deleted",
		Message: fmt.Sprintf("%s deleted product '%s'", actor.Name, existing.Name),
		Data:    map[string]interface{}{"id": id.String(), "name": existing.Name},
		User:    actor.eventUser(),
	})
	return nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(ErrProductNotFound, "find product", err)
	}
	return p, nil
}

func (s *productService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}
