package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/pricing"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// LedgerUseCase es el único componente que modifica stock. Cada cambio se hace en una
// transacción con la fila bloqueada (SELECT FOR UPDATE) y deja exactamente un movimiento.
type LedgerUseCase struct {
	txRunner    TxRunner
	stockRepo   repository.StockRepository
	movRepo     repository.InventoryMovementRepository
	productRepo repository.ProductRepository
	log         zerolog.Logger
}

// NewLedgerUseCase construye el libro de inventario.
func NewLedgerUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	log zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:    txRunner,
		stockRepo:   stockRepo,
		movRepo:     movRepo,
		productRepo: productRepo,
		log:         log.With().Str("component", "inventory_ledger").Logger(),
	}
}

// MovementInput entrada para aplicar un movimiento.
// ENTRY/EXIT: Quantity > 0. ADJUSTMENT: Quantity con signo, distinto de cero.
type MovementInput struct {
	ProductID string
	Type      string
	Quantity  int
	Reason    string
	Reference string
	Actor     string
	UnitCost  *decimal.Decimal // solo ENTRY; actualiza el costo promedio ponderado
}

// MovementResult instantánea antes/después del movimiento aplicado.
type MovementResult struct {
	MovementID  string
	ProductID   string
	StockBefore int
	StockAfter  int
	// Overstock señal no fatal: la entrada dejó el stock por encima del máximo.
	Overstock bool
}

// Availability resultado de CheckAvailability. Sin esquema de reservas, disponible == actual.
type Availability struct {
	ProductID         string
	CurrentStock      int
	AvailableStock    int
	RequestedQuantity int
	AvailableForSale  bool
}

// CheckAvailability consulta (sin bloquear) si el stock cubre la cantidad solicitada.
func (uc *LedgerUseCase) CheckAvailability(ctx context.Context, productID string, quantity int) (*Availability, error) {
	if productID == "" || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	stock, err := uc.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("consultar stock %s: %w", productID, err)
	}
	if stock == nil {
		return nil, domain.ErrProductNotFound
	}
	return &Availability{
		ProductID:         productID,
		CurrentStock:      stock.Quantity,
		AvailableStock:    stock.Quantity,
		RequestedQuantity: quantity,
		AvailableForSale:  stock.Quantity >= quantity,
	}, nil
}

// ApplyMovement inicia una transacción, bloquea la fila de stock, valida y aplica el delta,
// y registra el movimiento. Una salida mayor al stock falla con InsufficientStockError
// y deja el stock sin cambios.
func (uc *LedgerUseCase) ApplyMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		r, err := uc.ApplyMovementInTx(ctx, movRepo, stockRepo, productRepo, in, time.Now())
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Overstock {
		uc.log.Warn().
			Str("product_id", res.ProductID).
			Int("stock_after", res.StockAfter).
			Msg("stock por encima del máximo")
	}
	uc.log.Debug().
		Str("product_id", res.ProductID).
		Str("type", in.Type).
		Int("stock_before", res.StockBefore).
		Int("stock_after", res.StockAfter).
		Str("reference", in.Reference).
		Msg("movimiento aplicado")
	return res, nil
}

// ApplyMovementInTx aplica el movimiento usando los repositorios del caller (misma transacción).
// Lo usan ApplyMovement y la anulación de ventas, que restaura varias líneas atómicamente.
func (uc *LedgerUseCase) ApplyMovementInTx(
	ctx context.Context,
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	in MovementInput,
	now time.Time,
) (*MovementResult, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	// Bloquea la fila de stock para evitar actualizaciones perdidas
	stock, err := stockRepo.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("bloquear stock %s: %w", in.ProductID, err)
	}
	if stock == nil {
		return nil, domain.ErrProductNotFound
	}

	delta := signedDelta(in)
	after := stock.Quantity + delta
	if after < 0 {
		return nil, domain.NewInsufficientStockError(in.ProductID)
	}

	unitCost := decimal.Zero
	if in.Type == entity.MovementTypeENTRY && in.UnitCost != nil {
		product, err := productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("obtener producto %s: %w", in.ProductID, err)
		}
		if product == nil {
			return nil, domain.ErrProductNotFound
		}
		unitCost = *in.UnitCost
		newCost := pricing.WeightedAverageCost(stock.Quantity, product.Cost, delta, unitCost)
		if err := productRepo.UpdateCost(ctx, in.ProductID, newCost); err != nil {
			return nil, fmt.Errorf("actualizar costo %s: %w", in.ProductID, err)
		}
	}

	if err := stockRepo.UpdateQuantity(ctx, in.ProductID, stock.Quantity, after); err != nil {
		if errors.Is(err, domain.ErrConflict) && delta < 0 {
			return nil, domain.NewInsufficientStockError(in.ProductID)
		}
		return nil, fmt.Errorf("actualizar stock %s: %w", in.ProductID, err)
	}

	mov := &entity.InventoryMovement{
		ProductID:   in.ProductID,
		Type:        in.Type,
		Quantity:    delta,
		StockBefore: stock.Quantity,
		StockAfter:  after,
		Reason:      in.Reason,
		Reference:   in.Reference,
		UnitCost:    unitCost,
		CreatedAt:   now,
		CreatedBy:   in.Actor,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, fmt.Errorf("registrar movimiento %s: %w", in.ProductID, err)
	}

	return &MovementResult{
		MovementID:  mov.ID,
		ProductID:   in.ProductID,
		StockBefore: stock.Quantity,
		StockAfter:  after,
		Overstock:   delta > 0 && stock.MaxStock > 0 && after > stock.MaxStock,
	}, nil
}

// GetStock devuelve el registro de stock del producto.
func (uc *LedgerUseCase) GetStock(ctx context.Context, productID string) (*entity.ProductStock, error) {
	stock, err := uc.stockRepo.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("consultar stock %s: %w", productID, err)
	}
	if stock == nil {
		return nil, domain.ErrProductNotFound
	}
	return stock, nil
}

// GetMovementHistory devuelve los movimientos del producto en el rango, más recientes primero.
// Cada llamada es una lectura nueva; no hay cursor.
func (uc *LedgerUseCase) GetMovementHistory(ctx context.Context, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.GetStock(ctx, productID); err != nil {
		return nil, err
	}
	list, err := uc.movRepo.ListByProduct(ctx, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("historial de movimientos %s: %w", productID, err)
	}
	return list, nil
}

func validateMovement(in MovementInput) error {
	if in.ProductID == "" {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementTypeENTRY, entity.MovementTypeEXIT:
		if in.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeADJUSTMENT:
		if in.Quantity == 0 {
			return domain.ErrInvalidInput
		}
	default:
		return domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	return nil
}

func signedDelta(in MovementInput) int {
	if in.Type == entity.MovementTypeEXIT {
		return -in.Quantity
	}
	return in.Quantity
}
