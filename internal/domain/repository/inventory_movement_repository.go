package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario.
// Solo inserción y lectura: los movimientos son inmutables.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// ListByProduct devuelve los movimientos del producto ordenados por fecha descendente.
	// from/to nil = sin límite.
	ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error)
	ListByReference(ctx context.Context, reference string) ([]*entity.InventoryMovement, error)
}
