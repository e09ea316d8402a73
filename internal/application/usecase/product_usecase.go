package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceaz/billing-api/internal/application/billing"
	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	"github.com/invoiceaz/billing-api/internal/domain/rbac"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

// ProductUseCase gestiona el catálogo de productos. Las líneas de factura
// copian los datos del producto al agregarse, así que editar aquí nunca
// altera facturas existentes.
type ProductUseCase struct {
	productRepo repository.ProductRepository
	publisher   billing.EventPublisher
	cache       tenant.Cache
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(productRepo repository.ProductRepository, publisher billing.EventPublisher, cache tenant.Cache) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo, publisher: publisher, cache: cache}
}

func validUnit(u string) bool {
	switch u {
	case entity.UnitPiece, entity.UnitKg, entity.UnitMeter, entity.UnitLiter, entity.UnitService:
		return true
	}
	return false
}

// Create crea un producto; el SKU es único por negocio.
func (uc *ProductUseCase) Create(ctx context.Context, actor tenant.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionCreate, rbac.ResourceProduct)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	unit := in.Unit
	if unit == "" {
		unit = entity.UnitPiece
	}
	if !validUnit(unit) {
		return nil, domain.ErrInvalidInput
	}
	if in.BasePrice.IsNegative() || in.StockQuantity.IsNegative() || in.MinStockLevel.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.SKU != "" {
		existing, err := uc.productRepo.GetByBusinessAndSKU(actor.BusinessID, in.SKU)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("SKU %q ya existe en el negocio: %w", in.SKU, domain.ErrDuplicate)
		}
	}

	now := time.Now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		BusinessID:    actor.BusinessID,
		Name:          in.Name,
		Description:   in.Description,
		SKU:           in.SKU,
		BasePrice:     in.BasePrice,
		Unit:          unit,
		StockQuantity: in.StockQuantity,
		MinStockLevel: in.MinStockLevel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityProduct,
		EntityID:   product.ID,
		Action:     entity.EventCreated,
		Detail:     product.Name,
		OccurredAt: now,
	})

	resp := toProductResponse(product)
	return &resp, nil
}

// Get devuelve un producto del negocio activo.
func (uc *ProductUseCase) Get(ctx context.Context, actor tenant.Actor, id string) (*dto.ProductResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceProduct)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	product, err := uc.loadScoped(actor, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

// List lista el catálogo del negocio activo.
func (uc *ProductUseCase) List(ctx context.Context, actor tenant.Actor, page dto.PageRequest) ([]dto.ProductResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceProduct)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()

	cacheKey := fmt.Sprintf("products:%d:%d", page.Limit, page.Offset)
	if cached, ok := uc.cache.Get(actor.BusinessID, cacheKey); ok {
		if list, ok := cached.([]dto.ProductResponse); ok {
			return list, nil
		}
	}
	list, err := uc.productRepo.ListByBusiness(actor.BusinessID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProductResponse(p))
	}
	uc.cache.Set(actor.BusinessID, cacheKey, out)
	return out, nil
}

// Update edita un producto. Si el stock queda en o por debajo del mínimo
// se emite el aviso de stock bajo.
func (uc *ProductUseCase) Update(ctx context.Context, actor tenant.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceProduct)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	product, err := uc.loadScoped(actor, id)
	if err != nil {
		return nil, err
	}
	wasLow := product.LowStock()

	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.SKU != nil && *in.SKU != product.SKU {
		if *in.SKU != "" {
			existing, err := uc.productRepo.GetByBusinessAndSKU(actor.BusinessID, *in.SKU)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, fmt.Errorf("SKU %q ya existe en el negocio: %w", *in.SKU, domain.ErrDuplicate)
			}
		}
		product.SKU = *in.SKU
	}
	if in.BasePrice != nil {
		if in.BasePrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.BasePrice = *in.BasePrice
	}
	if in.Unit != nil {
		if !validUnit(*in.Unit) {
			return nil, domain.ErrInvalidInput
		}
		product.Unit = *in.Unit
	}
	if in.StockQuantity != nil {
		if in.StockQuantity.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.StockQuantity = *in.StockQuantity
	}
	if in.MinStockLevel != nil {
		if in.MinStockLevel.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.MinStockLevel = *in.MinStockLevel
	}
	product.UpdatedAt = time.Now()

	if err := uc.productRepo.Update(product); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(actor.BusinessID)

	if product.LowStock() && !wasLow {
		uc.publisher.Publish(&entity.Event{
			BusinessID: actor.BusinessID,
			ActorID:    actor.MembershipID,
			EntityKind: entity.EntityProduct,
			EntityID:   product.ID,
			Action:     entity.EventLowStock,
			Detail:     fmt.Sprintf("%s: stock %s (mínimo %s)", product.Name, product.StockQuantity, product.MinStockLevel),
			OccurredAt: product.UpdatedAt,
		})
	}

	resp := toProductResponse(product)
	return &resp, nil
}

// Delete elimina un producto del catálogo. Las líneas de factura que lo
// referencian conservan su copia de precio y descripción.
func (uc *ProductUseCase) Delete(ctx context.Context, actor tenant.Actor, id string) error {
	decision := rbac.Authorize(actor.Role, rbac.ActionDelete, rbac.ResourceProduct)
	if !decision.Allowed {
		return domain.ErrForbidden
	}
	product, err := uc.loadScoped(actor, id)
	if err != nil {
		return err
	}
	if err := uc.productRepo.Delete(product.ID); err != nil {
		return err
	}
	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityProduct,
		EntityID:   product.ID,
		Action:     entity.EventDeleted,
		Detail:     product.Name,
		OccurredAt: time.Now(),
	})
	return nil
}

func (uc *ProductUseCase) loadScoped(actor tenant.Actor, id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if err := tenant.SameTenant(actor.BusinessID, product.BusinessID); err != nil {
		return nil, err
	}
	return product, nil
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID,
		BusinessID:    p.BusinessID,
		Name:          p.Name,
		Description:   p.Description,
		SKU:           p.SKU,
		BasePrice:     p.BasePrice,
		Unit:          p.Unit,
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		LowStock:      p.LowStock(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
