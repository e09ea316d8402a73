package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoiceaz/billing-api/internal/application/dto"
	"github.com/invoiceaz/billing-api/internal/application/tenant"
	"github.com/invoiceaz/billing-api/internal/domain"
	"github.com/invoiceaz/billing-api/internal/domain/entity"
	invdomain "github.com/invoiceaz/billing-api/internal/domain/invoice"
	"github.com/invoiceaz/billing-api/internal/domain/rbac"
	"github.com/invoiceaz/billing-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// InvoiceUseCase casos de uso CRUD de facturas: creación, edición en
// borrador, listado, duplicado y eliminación.
type InvoiceUseCase struct {
	txRunner     TxRunner
	invoiceRepo  repository.InvoiceRepository
	paymentRepo  repository.PaymentRepository
	clientRepo   repository.ClientRepository
	productRepo  repository.ProductRepository
	businessRepo repository.BusinessRepository
	publisher    EventPublisher
	cache        tenant.Cache
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	businessRepo repository.BusinessRepository,
	publisher EventPublisher,
	cache tenant.Cache,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:     txRunner,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		clientRepo:   clientRepo,
		productRepo:  productRepo,
		businessRepo: businessRepo,
		publisher:    publisher,
		cache:        cache,
	}
}

// Create crea una factura en draft con numeración consecutiva del negocio.
func (uc *InvoiceUseCase) Create(ctx context.Context, actor tenant.Actor, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionCreate, rbac.ResourceInvoice)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	if in.ClientID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	client, err := uc.loadClient(actor, in.ClientID, decision.Scope)
	if err != nil {
		return nil, err
	}

	invoiceDate, dueDate, err := parseDates(in.InvoiceDate, in.DueDate)
	if err != nil {
		return nil, err
	}

	// Límite mensual del plan
	now := time.Now()
	limits := entity.LimitsForPlan(actor.Plan)
	if limits.InvoicesPerMonth != entity.Unlimited {
		count, err := uc.invoiceRepo.CountCreatedInMonth(actor.BusinessID, now.Year(), now.Month())
		if err != nil {
			return nil, err
		}
		if !limits.Allows(limits.InvoicesPerMonth, count) {
			return nil, &domain.LimitExceededError{Resource: "invoices", Limit: limits.InvoicesPerMonth, Current: count}
		}
	}

	// Moneda y tema vacíos heredan los del negocio.
	currency := in.Currency
	theme := in.Theme
	if currency == "" || theme == "" {
		business, err := uc.businessRepo.GetByID(actor.BusinessID)
		if err != nil {
			return nil, err
		}
		if business == nil {
			return nil, domain.ErrNotFound
		}
		if currency == "" {
			currency = business.DefaultCurrency
		}
		if theme == "" {
			theme = business.DefaultTheme
		}
	}
	if !entity.ValidCurrency(currency) {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidTheme(theme) {
		return nil, domain.ErrInvalidInput
	}

	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		BusinessID:  actor.BusinessID,
		ClientID:    client.ID,
		CreatedBy:   actor.MembershipID,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Status:      entity.StatusDraft,
		Currency:    currency,
		Discount:    in.Discount,
		Notes:       in.Notes,
		Terms:       in.Terms,
		Theme:       theme,
		ShareToken:  uuid.New().String(),
		PaidAmount:  decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	items, err := uc.buildItems(actor.BusinessID, inv.ID, in.Items)
	if err != nil {
		return nil, err
	}
	invdomain.Recalculate(inv, items)
	if err := invdomain.ValidateDiscount(inv); err != nil {
		return nil, err
	}

	if err := uc.persistNumbered(ctx, actor.BusinessID, inv, items); err != nil {
		return nil, err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityInvoice,
		EntityID:   inv.ID,
		Action:     entity.EventCreated,
		Detail:     inv.Number,
		OccurredAt: now,
	})

	return uc.toResponse(inv, items, nil, client.Name), nil
}

// Get devuelve la factura completa con líneas y pagos.
func (uc *InvoiceUseCase) Get(ctx context.Context, actor tenant.Actor, id string) (*dto.InvoiceResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceInvoice)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	inv, err := loadInvoiceScoped(uc.invoiceRepo, uc.clientRepo, actor, id, decision.Scope, false)
	if err != nil {
		return nil, err
	}
	items, err := uc.invoiceRepo.ListItems(inv.ID)
	if err != nil {
		return nil, err
	}
	payments, err := uc.paymentRepo.ListByInvoice(inv.ID)
	if err != nil {
		return nil, err
	}
	clientName := ""
	if client, _ := uc.clientRepo.GetByID(inv.ClientID); client != nil {
		clientName = client.Name
	}
	return uc.toResponse(inv, items, payments, clientName), nil
}

// List lista facturas del negocio activo, opcionalmente por estado.
// Con alcance SALES_REP solo devuelve las facturas propias o de clientes
// asignados. Las lecturas de alcance total pasan por el caché del tenant.
func (uc *InvoiceUseCase) List(ctx context.Context, actor tenant.Actor, status string, page dto.PageRequest) ([]*dto.InvoiceResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceInvoice)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()

	var st entity.InvoiceStatus
	if status != "" {
		parsed, ok := entity.ParseInvoiceStatus(status)
		if !ok {
			return nil, domain.ErrInvalidInput
		}
		st = parsed
	}

	if decision.Scope == rbac.ScopeAssigned {
		list, err := uc.invoiceRepo.ListCreatedBy(actor.BusinessID, actor.MembershipID, page.Limit, page.Offset)
		if err != nil {
			return nil, err
		}
		return uc.toResponseList(list), nil
	}

	cacheKey := fmt.Sprintf("invoices:%s:%d:%d", st, page.Limit, page.Offset)
	if cached, ok := uc.cache.Get(actor.BusinessID, cacheKey); ok {
		if list, ok := cached.([]*dto.InvoiceResponse); ok {
			return list, nil
		}
	}
	list, err := uc.invoiceRepo.ListByBusiness(actor.BusinessID, st, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := uc.toResponseList(list)
	uc.cache.Set(actor.BusinessID, cacheKey, out)
	return out, nil
}

// Update edita una factura; solo los borradores son editables.
// Items nil conserva las líneas; una lista presente las reemplaza completas.
func (uc *InvoiceUseCase) Update(ctx context.Context, actor tenant.Actor, id string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	decision := rbac.Authorize(actor.Role, rbac.ActionUpdate, rbac.ResourceInvoice)
	if !decision.Allowed {
		return nil, domain.ErrForbidden
	}
	inv, err := loadInvoiceScoped(uc.invoiceRepo, uc.clientRepo, actor, id, decision.Scope, false)
	if err != nil {
		return nil, err
	}
	if !invdomain.Editable(inv.Status) {
		return nil, domain.ErrInvoiceImmutable
	}

	if in.ClientID != nil && *in.ClientID != inv.ClientID {
		client, err := uc.loadClient(actor, *in.ClientID, decision.Scope)
		if err != nil {
			return nil, err
		}
		inv.ClientID = client.ID
	}
	if in.InvoiceDate != nil {
		d, err := parseDate(*in.InvoiceDate)
		if err != nil {
			return nil, err
		}
		inv.InvoiceDate = d
	}
	if in.DueDate != nil {
		d, err := parseDate(*in.DueDate)
		if err != nil {
			return nil, err
		}
		inv.DueDate = d
	}
	if inv.DueDate.Before(inv.InvoiceDate) {
		return nil, domain.ErrInvalidInput
	}
	if in.Currency != nil {
		if !entity.ValidCurrency(*in.Currency) {
			return nil, domain.ErrInvalidInput
		}
		inv.Currency = *in.Currency
	}
	if in.Theme != nil {
		if !entity.ValidTheme(*in.Theme) {
			return nil, domain.ErrInvalidInput
		}
		inv.Theme = *in.Theme
	}
	if in.Discount != nil {
		inv.Discount = *in.Discount
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	if in.Terms != nil {
		inv.Terms = *in.Terms
	}

	var items []*entity.InvoiceItem
	if in.Items != nil {
		items, err = uc.buildItems(actor.BusinessID, inv.ID, in.Items)
		if err != nil {
			return nil, err
		}
	} else {
		items, err = uc.invoiceRepo.ListItems(inv.ID)
		if err != nil {
			return nil, err
		}
	}
	invdomain.Recalculate(inv, items)
	if err := invdomain.ValidateDiscount(inv); err != nil {
		return nil, err
	}
	inv.UpdatedAt = time.Now()

	err = uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.PaymentRepository) error {
		if in.Items != nil {
			if err := invoiceRepo.DeleteItems(inv.ID); err != nil {
				return err
			}
			for _, it := range items {
				if err := invoiceRepo.CreateItem(it); err != nil {
					return err
				}
			}
		}
		return invoiceRepo.Update(inv)
	})
	if err != nil {
		return nil, err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityInvoice,
		EntityID:   inv.ID,
		Action:     entity.EventUpdated,
		Detail:     inv.Number,
		OccurredAt: inv.UpdatedAt,
	})

	clientName := ""
	if client, _ := uc.clientRepo.GetByID(inv.ClientID); client != nil {
		clientName = client.Name
	}
	return uc.toResponse(inv, items, nil, clientName), nil
}

// Delete elimina una factura. Nunca si tiene pagos, sin importar el rol:
// en ese caso se cancela. La política ya restringe delete a
// OWNER/MANAGER/ACCOUNTANT.
func (uc *InvoiceUseCase) Delete(ctx context.Context, actor tenant.Actor, id string) error {
	decision := rbac.Authorize(actor.Role, rbac.ActionDelete, rbac.ResourceInvoice)
	if !decision.Allowed {
		return domain.ErrForbidden
	}
	// Carga, verificación de pagos y borrado en la misma transacción, con la
	// fila bloqueada: un pago concurrente espera el lock y encuentra la
	// factura ya borrada, o llega primero y el conteo aquí lo ve.
	var inv *entity.Invoice
	err := uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) error {
		loaded, err := loadInvoiceScoped(invoiceRepo, uc.clientRepo, actor, id, decision.Scope, true)
		if err != nil {
			return err
		}
		inv = loaded
		count, err := paymentRepo.CountByInvoice(inv.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrInvoiceHasPayments
		}
		if err := invoiceRepo.DeleteItems(inv.ID); err != nil {
			return err
		}
		return invoiceRepo.Delete(inv.ID)
	})
	if err != nil {
		return err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityInvoice,
		EntityID:   inv.ID,
		Action:     entity.EventDeleted,
		Detail:     inv.Number,
		OccurredAt: time.Now(),
	})
	return nil
}

// Duplicate copia la factura a un borrador nuevo: número fresco, token de
// compartir nuevo, sin pagos, líneas iguales a las de la fuente al momento
// de duplicar.
func (uc *InvoiceUseCase) Duplicate(ctx context.Context, actor tenant.Actor, id string) (*dto.InvoiceResponse, error) {
	readDecision := rbac.Authorize(actor.Role, rbac.ActionRead, rbac.ResourceInvoice)
	createDecision := rbac.Authorize(actor.Role, rbac.ActionCreate, rbac.ResourceInvoice)
	if !readDecision.Allowed || !createDecision.Allowed {
		return nil, domain.ErrForbidden
	}
	src, err := loadInvoiceScoped(uc.invoiceRepo, uc.clientRepo, actor, id, readDecision.Scope, false)
	if err != nil {
		return nil, err
	}
	srcItems, err := uc.invoiceRepo.ListItems(src.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dup := &entity.Invoice{
		ID:          uuid.New().String(),
		BusinessID:  src.BusinessID,
		ClientID:    src.ClientID,
		CreatedBy:   actor.MembershipID,
		InvoiceDate: src.InvoiceDate,
		DueDate:     src.DueDate,
		Status:      entity.StatusDraft,
		Currency:    src.Currency,
		Discount:    src.Discount,
		Notes:       src.Notes,
		Terms:       src.Terms,
		Theme:       src.Theme,
		ShareToken:  uuid.New().String(),
		PaidAmount:  decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	items := make([]*entity.InvoiceItem, 0, len(srcItems))
	for _, it := range srcItems {
		copied := *it
		copied.ID = uuid.New().String()
		copied.InvoiceID = dup.ID
		items = append(items, &copied)
	}
	invdomain.Recalculate(dup, items)

	if err := uc.persistNumbered(ctx, actor.BusinessID, dup, items); err != nil {
		return nil, err
	}

	uc.cache.Invalidate(actor.BusinessID)
	uc.publisher.Publish(&entity.Event{
		BusinessID: actor.BusinessID,
		ActorID:    actor.MembershipID,
		EntityKind: entity.EntityInvoice,
		EntityID:   dup.ID,
		Action:     entity.EventCreated,
		Detail:     fmt.Sprintf("%s (duplicado de %s)", dup.Number, src.Number),
		OccurredAt: now,
	})

	return uc.toResponse(dup, items, nil, ""), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers internos
// ──────────────────────────────────────────────────────────────────────────────

// persistNumbered asigna el consecutivo del negocio y persiste la factura
// con sus líneas en una sola transacción. LastNumber bloquea la última fila
// para serializar creaciones concurrentes; con cero facturas no hay fila que
// bloquear y dos primeras creaciones pueden chocar en el único
// (business_id, number), así que el perdedor reintenta una vez con el
// número del ganador ya visible.
func (uc *InvoiceUseCase) persistNumbered(ctx context.Context, businessID string, inv *entity.Invoice, items []*entity.InvoiceItem) error {
	create := func() error {
		return uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository, _ repository.PaymentRepository) error {
			last, err := invoiceRepo.LastNumber(businessID)
			if err != nil {
				return err
			}
			count, err := invoiceRepo.CountByBusiness(businessID)
			if err != nil {
				return err
			}
			inv.Number = invdomain.NextNumber(last, count)
			if err := invoiceRepo.Create(inv); err != nil {
				return err
			}
			for _, it := range items {
				if err := invoiceRepo.CreateItem(it); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := create()
	if errors.Is(err, domain.ErrDuplicate) {
		err = create()
	}
	return err
}

// loadClient carga el cliente verificando tenant y, con alcance SALES_REP,
// que esté asignado a la membresía del caller.
func (uc *InvoiceUseCase) loadClient(actor tenant.Actor, clientID string, scope rbac.Scope) (*entity.Client, error) {
	client, err := uc.clientRepo.GetByID(clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	if err := tenant.SameTenant(actor.BusinessID, client.BusinessID); err != nil {
		return nil, err
	}
	if scope == rbac.ScopeAssigned && client.AssignedTo != actor.MembershipID {
		return nil, domain.ErrForbidden
	}
	return client, nil
}

// buildItems valida las líneas y copia datos del producto referenciado
// (descripción, precio, unidad) si la línea no los trae. La copia es
// definitiva: editar el producto después no toca la línea.
func (uc *InvoiceUseCase) buildItems(businessID, invoiceID string, in []dto.InvoiceItemRequest) ([]*entity.InvoiceItem, error) {
	items := make([]*entity.InvoiceItem, 0, len(in))
	for i, req := range in {
		it := &entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   invoiceID,
			ProductID:   req.ProductID,
			Description: req.Description,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
			UnitPrice:   req.UnitPrice,
			TaxRate:     req.TaxRate,
			SortOrder:   i,
		}
		if req.ProductID != "" {
			product, err := uc.productRepo.GetByID(req.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, domain.ErrNotFound
			}
			if err := tenant.SameTenant(businessID, product.BusinessID); err != nil {
				return nil, err
			}
			if it.Description == "" {
				it.Description = product.Name
			}
			if it.Unit == "" {
				it.Unit = product.Unit
			}
			if it.UnitPrice.IsZero() {
				it.UnitPrice = product.BasePrice
			}
		}
		if it.Description == "" {
			return nil, domain.ErrInvalidInput
		}
		if err := invdomain.ValidateItem(it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q: %w", s, domain.ErrInvalidInput)
	}
	return d, nil
}

func parseDates(invoiceDate, dueDate string) (time.Time, time.Time, error) {
	d1, err := parseDate(invoiceDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	d2, err := parseDate(dueDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if d2.Before(d1) {
		return time.Time{}, time.Time{}, fmt.Errorf("due_date anterior a invoice_date: %w", domain.ErrInvalidInput)
	}
	return d1, d2, nil
}

func (uc *InvoiceUseCase) toResponse(inv *entity.Invoice, items []*entity.InvoiceItem, payments []*entity.Payment, clientName string) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:         inv.ID,
		BusinessID: inv.BusinessID,
		ClientID:   inv.ClientID,
		ClientName: clientName,
		CreatedBy:  inv.CreatedBy,
		Number:     inv.Number,
		Date:       inv.InvoiceDate.Format(dateLayout),
		DueDate:    inv.DueDate.Format(dateLayout),
		Status:     string(inv.Status),
		Currency:   inv.Currency,
		Subtotal:   inv.Subtotal,
		TaxAmount:  inv.TaxAmount,
		Discount:   inv.Discount,
		Total:      inv.Total,
		PaidAmount: inv.PaidAmount,
		Notes:      inv.Notes,
		Terms:      inv.Terms,
		Theme:      inv.Theme,
		ShareToken: inv.ShareToken,
		SentAt:     inv.SentAt,
		ViewedAt:   inv.ViewedAt,
		PaidAt:     inv.PaidAt,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp
}

func (uc *InvoiceUseCase) toResponseList(list []*entity.Invoice) []*dto.InvoiceResponse {
	out := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, uc.toResponse(inv, nil, nil, ""))
	}
	return out
}

func toItemResponse(it *entity.InvoiceItem) dto.InvoiceItemResponse {
	return dto.InvoiceItemResponse{
		ID:          it.ID,
		ProductID:   it.ProductID,
		Description: it.Description,
		Quantity:    it.Quantity,
		Unit:        it.Unit,
		UnitPrice:   it.UnitPrice,
		TaxRate:     it.TaxRate,
		Amount:      it.Amount,
	}
}

func toPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate.Format(dateLayout),
		Method:      p.Method,
		Reference:   p.Reference,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}
