package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia del libro de ventas (cabecera + detalle).
// Create debe ejecutarse dentro de una transacción para que cabecera y líneas sean atómicas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve la venta con sus líneas, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate como GetByID pero bloquea la cabecera hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// Update persiste total, estado, notas y datos de anulación. Las líneas no cambian.
	Update(ctx context.Context, sale *entity.Sale) error
	ListBySeller(ctx context.Context, sellerID string) ([]*entity.Sale, error)
}
