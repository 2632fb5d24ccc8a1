// Package sales orquesta ventas: autorización del vendedor, descuento de inventario,
// cálculo de totales y persistencia en el libro de ventas.
package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Ventas-api/internal/application/authorization"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/pricing"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/metrics"
)

// SystemActor actor de los movimientos que no origina un usuario (anulaciones, compensaciones).
const SystemActor = "system"

const tracerName = "ventas-api/sales"

// Deps dependencias del orquestador.
type Deps struct {
	TxRunner    SalesTxRunner
	SaleRepo    repository.SaleRepository
	ProductRepo repository.ProductRepository
	Ledger      InventoryLedger
	Oracle      AuthorizationChecker
	Customers   CustomerLookup
	Metrics     *metrics.Sales // nil = contadores sin registrar
}

// Config parámetros del orquestador.
type Config struct {
	TaxRate             decimal.Decimal
	CompensationRetries int
	// CompensationBackoff espera base entre reintentos; crece linealmente por intento.
	CompensationBackoff time.Duration
}

// Orchestrator es el único escritor del libro de ventas.
type Orchestrator struct {
	txRunner    SalesTxRunner
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	ledger      InventoryLedger
	oracle      AuthorizationChecker
	customers   CustomerLookup
	calc        *pricing.Calculator
	cfg         Config
	metrics     *metrics.Sales
	tracer      trace.Tracer
	log         zerolog.Logger
}

// NewOrchestrator construye el orquestador. Falla si la tasa de impuesto es negativa.
func NewOrchestrator(deps Deps, cfg Config, log zerolog.Logger) (*Orchestrator, error) {
	calc, err := pricing.NewCalculator(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("tasa de impuesto: %w", err)
	}
	if cfg.CompensationRetries < 1 {
		cfg.CompensationRetries = 1
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.NewSales(nil)
	}
	return &Orchestrator{
		txRunner:    deps.TxRunner,
		saleRepo:    deps.SaleRepo,
		productRepo: deps.ProductRepo,
		ledger:      deps.Ledger,
		oracle:      deps.Oracle,
		customers:   deps.Customers,
		calc:        calc,
		cfg:         cfg,
		metrics:     m,
		tracer:      otel.Tracer(tracerName),
		log:         log.With().Str("component", "sale_orchestrator").Logger(),
	}, nil
}

// LineInput línea solicitada. UnitPrice cero toma el precio del catálogo.
type LineInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// ProcessSaleInput entrada de ProcessSale.
type ProcessSaleInput struct {
	CustomerID string
	SellerID   string
	Items      []LineInput
	Notes      string
}

// ProcessSale valida vendedor y cliente, verifica disponibilidad de todas las líneas,
// descuenta el inventario línea por línea (verificación y descuento atómicos por producto)
// y solo entonces persiste la venta. Si un descuento o la persistencia fallan, los
// descuentos ya aplicados se revierten con entradas compensatorias y la venta no se guarda.
func (o *Orchestrator) ProcessSale(ctx context.Context, in ProcessSaleInput) (sale *entity.Sale, err error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "sale.ProcessSale")
	defer span.End()
	span.SetAttributes(
		attribute.String("seller.id", in.SellerID),
		attribute.String("customer.id", in.CustomerID),
		attribute.Int("items", len(in.Items)),
	)
	defer func() {
		o.metrics.Duration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if len(in.Items) == 0 {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, domain.ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, domain.ErrInvalidInput
		}
	}

	// 1. Vendedor
	if d := o.checkSeller(ctx, in.SellerID); !d.Authorized {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
		o.log.Info().Str("seller_id", in.SellerID).Str("reason", d.Reason).Msg("venta rechazada: vendedor no autorizado")
		return nil, &domain.SellerNotAuthorizedError{SellerID: in.SellerID, Reason: d.Reason}
	}

	// 2. Cliente
	ok, err := o.customers.Exists(ctx, in.CustomerID)
	if err != nil {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: consultar cliente: %v", domain.ErrInternal, err)
	}
	if !ok {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, domain.ErrCustomerNotFound
	}

	// 3. Disponibilidad de todas las líneas, sin cortar en la primera falla
	if err := o.precheckAvailability(ctx, in.Items); err != nil {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	// 4. Totales
	lines, err := o.resolveLines(ctx, in.Items)
	if err != nil {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}
	totals, err := o.calc.Calculate(lines)
	if err != nil {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	now := time.Now()
	sale = &entity.Sale{
		ID:         uuid.New().String(),
		Date:       now,
		CustomerID: in.CustomerID,
		SellerID:   in.SellerID,
		Subtotal:   totals.Subtotal,
		TaxTotal:   totals.Tax,
		Total:      totals.Total,
		Status:     entity.SaleStatusProcessed,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
		Items:      make([]entity.SaleItem, 0, len(lines)),
	}
	for i, l := range lines {
		sale.Items = append(sale.Items, entity.SaleItem{
			ProductID: in.Items[i].ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
			Subtotal:  totals.Lines[i],
		})
	}
	span.SetAttributes(attribute.String("sale.id", sale.ID))

	sg := &saleSaga{
		saleID:  sale.ID,
		retries: o.cfg.CompensationRetries,
		backoff: o.cfg.CompensationBackoff,
		tracer:  o.tracer,
		metrics: o.metrics,
		log:     o.log,
	}

	// 5. Descuento de inventario, una transacción por línea
	for _, item := range sale.Items {
		if err := o.applyExit(ctx, sg, sale, item); err != nil {
			return nil, o.abort(ctx, sg, sale.ID, err)
		}
	}

	// 6. Cabecera y líneas en una sola escritura
	if err := o.persist(ctx, sale); err != nil {
		return nil, o.abort(ctx, sg, sale.ID, err)
	}

	o.metrics.Processed.WithLabelValues(metrics.OutcomeProcessed).Inc()
	o.log.Info().
		Str("sale_id", sale.ID).
		Str("seller_id", sale.SellerID).
		Str("total", sale.Total.StringFixed(pricing.MoneyPlaces)).
		Int("items", len(sale.Items)).
		Msg("venta procesada")
	return sale, nil
}

func (o *Orchestrator) checkSeller(ctx context.Context, sellerID string) authorization.Decision {
	ctx, span := o.tracer.Start(ctx, "sale.CheckAuthorization")
	defer span.End()
	d := o.oracle.CheckAuthorized(ctx, sellerID)
	span.SetAttributes(attribute.Bool("authorized", d.Authorized))
	return d
}

// precheckAvailability consulta en paralelo la disponibilidad de cada producto con la
// cantidad total pedida y reporta todos los faltantes juntos.
func (o *Orchestrator) precheckAvailability(ctx context.Context, items []LineInput) error {
	ctx, span := o.tracer.Start(ctx, "sale.CheckAvailability")
	defer span.End()

	order := make([]string, 0, len(items))
	requested := make(map[string]int, len(items))
	for _, it := range items {
		if _, seen := requested[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}

	available := make([]bool, len(order))
	g, gctx := errgroup.WithContext(ctx)
	for i, productID := range order {
		qty := requested[productID]
		g.Go(func() error {
			a, err := o.ledger.CheckAvailability(gctx, productID, qty)
			if err != nil {
				return err
			}
			available[i] = a.AvailableForSale
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: verificar disponibilidad: %v", domain.ErrInternal, err)
	}

	var missing []string
	for i, ok := range available {
		if !ok {
			missing = append(missing, order[i])
		}
	}
	if len(missing) > 0 {
		span.SetAttributes(attribute.StringSlice("insufficient", missing))
		return domain.NewInsufficientStockError(missing...)
	}
	return nil
}

// resolveLines completa el precio unitario desde el catálogo cuando viene en cero.
func (o *Orchestrator) resolveLines(ctx context.Context, items []LineInput) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		price := it.UnitPrice
		if price.IsZero() {
			p, err := o.productRepo.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, fmt.Errorf("%w: consultar producto: %v", domain.ErrInternal, err)
			}
			if p == nil {
				return nil, domain.ErrProductNotFound
			}
			price = p.Price
		}
		l := pricing.Line{Quantity: it.Quantity, UnitPrice: price, Discount: it.Discount}
		if err := pricing.ValidateLine(l); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// applyExit descuenta una línea y registra su entrada compensatoria en la saga.
func (o *Orchestrator) applyExit(ctx context.Context, sg *saleSaga, sale *entity.Sale, item entity.SaleItem) error {
	ctx, span := o.tracer.Start(ctx, "sale.ApplyMovement")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", item.ProductID),
		attribute.Int("quantity", item.Quantity),
	)

	res, err := o.ledger.ApplyMovement(ctx, inventory.MovementInput{
		ProductID: item.ProductID,
		Type:      entity.MovementTypeEXIT,
		Quantity:  item.Quantity,
		Reason:    "Venta " + sale.ID,
		Reference: sale.ID,
		Actor:     sale.SellerID,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("stock.after", res.StockAfter))

	productID, qty := item.ProductID, item.Quantity
	sg.addCompensation("RestoreStock", func(ctx context.Context) error {
		_, err := o.ledger.ApplyMovement(ctx, inventory.MovementInput{
			ProductID: productID,
			Type:      entity.MovementTypeENTRY,
			Quantity:  qty,
			Reason:    "Compensación venta " + sale.ID,
			Reference: sale.ID,
			Actor:     SystemActor,
		})
		return err
	})
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, sale *entity.Sale) error {
	ctx, span := o.tracer.Start(ctx, "sale.Persist")
	defer span.End()
	err := o.txRunner.RunSales(ctx, func(
		_ repository.InventoryMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		return saleRepo.Create(ctx, sale)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// abort compensa los pasos aplicados y traduce la causa al error que ve el caller.
func (o *Orchestrator) abort(ctx context.Context, sg *saleSaga, saleID string, cause error) error {
	o.log.Warn().Err(cause).Str("sale_id", saleID).Msg("venta abortada, revirtiendo inventario")
	if err := sg.compensate(ctx); err != nil {
		o.metrics.Processed.WithLabelValues(metrics.OutcomeInconsistentState).Inc()
		o.log.Error().Err(err).Str("sale_id", saleID).Msg("compensación incompleta: inventario requiere conciliación manual")
		return fmt.Errorf("%w: venta %s: %v", domain.ErrInconsistentState, saleID, err)
	}
	o.metrics.Processed.WithLabelValues(metrics.OutcomeCompensated).Inc()
	if errors.Is(cause, domain.ErrInsufficientStock) || errors.Is(cause, domain.ErrProductNotFound) {
		return cause
	}
	return fmt.Errorf("%w: %v", domain.ErrInternal, cause)
}

// CalculateSaleTotal calcula subtotal, impuesto y total sin persistir nada.
func (o *Orchestrator) CalculateSaleTotal(ctx context.Context, items []LineInput) (pricing.Result, error) {
	if len(items) == 0 {
		return pricing.Result{}, domain.ErrInvalidInput
	}
	lines, err := o.resolveLines(ctx, items)
	if err != nil {
		return pricing.Result{}, err
	}
	return o.calc.Calculate(lines)
}

// ApplyDiscount descuenta amount del total de una venta procesada y agrega una nota.
// No toca inventario ni las líneas.
func (o *Orchestrator) ApplyDiscount(ctx context.Context, saleID string, amount decimal.Decimal, reason string) (*entity.Sale, error) {
	ctx, span := o.tracer.Start(ctx, "sale.ApplyDiscount")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", saleID))

	if !pricing.ValidMoney(amount) {
		return nil, domain.ErrInvalidInput
	}

	var updated *entity.Sale
	err := o.txRunner.RunSales(ctx, func(
		_ repository.InventoryMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		if sale.Status != entity.SaleStatusProcessed {
			return domain.ErrInvalidSaleState
		}
		if !amount.IsPositive() || amount.GreaterThan(sale.Total) {
			return domain.ErrInvalidInput
		}
		sale.Total = sale.Total.Sub(amount)
		sale.Notes = appendNote(sale.Notes, fmt.Sprintf("Descuento %s: %s", amount.StringFixed(pricing.MoneyPlaces), strings.TrimSpace(reason)))
		sale.UpdatedAt = time.Now()
		if err := saleRepo.Update(ctx, sale); err != nil {
			return err
		}
		updated = sale
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, asDomainError(err)
	}
	o.log.Info().Str("sale_id", saleID).Str("amount", amount.String()).Msg("descuento aplicado")
	return updated, nil
}

// CancelSale anula una venta procesada: una entrada por línea devuelve el stock y la venta
// pasa a CANCELLED, todo en una transacción. Si algo falla no queda ni stock restaurado
// parcialmente ni la venta anulada; los errores transitorios se reintentan.
func (o *Orchestrator) CancelSale(ctx context.Context, saleID, reason string) (*entity.Sale, error) {
	ctx, span := o.tracer.Start(ctx, "sale.CancelSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", saleID))

	var (
		cancelled *entity.Sale
		err       error
	)
	for attempt := 1; attempt <= o.cfg.CompensationRetries; attempt++ {
		cancelled, err = o.cancelOnce(ctx, saleID, reason)
		if err == nil || isDomainError(err) || ctx.Err() != nil {
			break
		}
		o.log.Warn().Err(err).Str("sale_id", saleID).Int("attempt", attempt).Msg("anulación falló, reintentando")
		if attempt < o.cfg.CompensationRetries {
			if werr := waitBackoff(ctx, o.cfg.CompensationBackoff*time.Duration(attempt)); werr != nil {
				err = errors.Join(err, werr)
				break
			}
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !isDomainError(err) {
			o.log.Error().Err(err).Str("sale_id", saleID).Msg("anulación no completada")
		}
		return nil, asDomainError(err)
	}

	o.metrics.Cancelled.Inc()
	o.log.Info().Str("sale_id", saleID).Str("reason", reason).Msg("venta anulada")
	return cancelled, nil
}

func (o *Orchestrator) cancelOnce(ctx context.Context, saleID, reason string) (*entity.Sale, error) {
	var cancelled *entity.Sale
	err := o.txRunner.RunSales(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		switch sale.Status {
		case entity.SaleStatusCancelled:
			return domain.ErrAlreadyCancelled
		case entity.SaleStatusProcessed:
		default:
			return domain.ErrInvalidSaleState
		}

		// Orden estable por producto: las filas de stock se bloquean siempre en el mismo orden
		items := make([]entity.SaleItem, len(sale.Items))
		copy(items, sale.Items)
		sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		now := time.Now()
		movReason := fmt.Sprintf("Anulación %s - %s", sale.ID, strings.TrimSpace(reason))
		for _, item := range items {
			if _, err := o.ledger.ApplyMovementInTx(ctx, movRepo, stockRepo, productRepo, inventory.MovementInput{
				ProductID: item.ProductID,
				Type:      entity.MovementTypeENTRY,
				Quantity:  item.Quantity,
				Reason:    movReason,
				Reference: sale.ID,
				Actor:     SystemActor,
			}, now); err != nil {
				return fmt.Errorf("restaurar stock %s: %w", item.ProductID, err)
			}
		}

		sale.Status = entity.SaleStatusCancelled
		sale.CancelReason = reason
		sale.CancelledAt = &now
		sale.UpdatedAt = now
		if err := saleRepo.Update(ctx, sale); err != nil {
			return err
		}
		cancelled = sale
		return nil
	})
	return cancelled, err
}

// GetSaleByID devuelve la venta persistida con sus líneas.
func (o *Orchestrator) GetSaleByID(ctx context.Context, saleID string) (*entity.Sale, error) {
	sale, err := o.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: consultar venta: %v", domain.ErrInternal, err)
	}
	if sale == nil {
		return nil, domain.ErrSaleNotFound
	}
	return sale, nil
}

// GetSalesBySeller devuelve las ventas del vendedor, más recientes primero.
func (o *Orchestrator) GetSalesBySeller(ctx context.Context, sellerID string) ([]*entity.Sale, error) {
	list, err := o.saleRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("%w: listar ventas: %v", domain.ErrInternal, err)
	}
	if list == nil {
		list = []*entity.Sale{}
	}
	return list, nil
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}

var domainErrors = []error{
	domain.ErrInvalidInput,
	domain.ErrSaleNotFound,
	domain.ErrInvalidSaleState,
	domain.ErrAlreadyCancelled,
	domain.ErrProductNotFound,
	domain.ErrInsufficientStock,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// asDomainError deja pasar los errores de negocio y envuelve el resto como ErrInternal.
func asDomainError(err error) error {
	if isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrInternal, err)
}

// TaxRate tasa de impuesto configurada.
func (o *Orchestrator) TaxRate() decimal.Decimal { return o.calc.TaxRate() }
