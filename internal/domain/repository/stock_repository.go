package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar el stock por producto.
// Las escrituras se hacen dentro de transacciones (TxRunner) para garantizar consistencia.
type StockRepository interface {
	// Get devuelve nil, nil si el producto no tiene registro de stock.
	Get(ctx context.Context, productID string) (*entity.ProductStock, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID string) (*entity.ProductStock, error)
	// UpdateQuantity es una actualización condicional: solo escribe si la cantidad
	// actual sigue siendo expected y newQty no es negativo; si no, domain.ErrConflict.
	UpdateQuantity(ctx context.Context, productID string, expected, newQty int) error
	Create(ctx context.Context, stock *entity.ProductStock) error
	UpdateThresholds(ctx context.Context, productID string, minStock, maxStock int) error
	List(ctx context.Context) ([]*entity.ProductStock, error)
}
