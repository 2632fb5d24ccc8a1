package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// SellerRepository define el puerto de persistencia del registro de autorización de vendedores.
type SellerRepository interface {
	Create(ctx context.Context, seller *entity.Seller) error
	GetByID(ctx context.Context, id string) (*entity.Seller, error)
	Update(ctx context.Context, seller *entity.Seller) error
}
