package sales

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/application/authorization"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// SalesTxRunner ejecuta una función en una transacción con los repositorios de inventario y ventas.
// Lo usan la persistencia de la venta, la anulación y el descuento.
type SalesTxRunner interface {
	RunSales(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// AuthorizationChecker consulta si un vendedor puede vender. No devuelve error: falla cerrado.
type AuthorizationChecker interface {
	CheckAuthorized(ctx context.Context, sellerID string) authorization.Decision
}

// InventoryLedger operaciones del libro de inventario que usa el orquestador.
// El orquestador nunca escribe stock directamente.
type InventoryLedger interface {
	CheckAvailability(ctx context.Context, productID string, quantity int) (*inventory.Availability, error)
	ApplyMovement(ctx context.Context, in inventory.MovementInput) (*inventory.MovementResult, error)
	ApplyMovementInTx(
		ctx context.Context,
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		in inventory.MovementInput,
		now time.Time,
	) (*inventory.MovementResult, error)
}

// CustomerLookup verifica la existencia del cliente.
type CustomerLookup interface {
	Exists(ctx context.Context, customerID string) (bool, error)
}
