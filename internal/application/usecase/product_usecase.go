package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// ProductUseCase alta y consulta del catálogo. Costo y stock cambian solo vía movimientos.
type ProductUseCase struct {
	txRunner  inventory.TxRunner
	repo      repository.ProductRepository
	stockRepo repository.StockRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(txRunner inventory.TxRunner, repo repository.ProductRepository, stockRepo repository.StockRepository) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, repo: repo, stockRepo: stockRepo}
}

// Create crea el producto, su registro de stock y, si InitialStock > 0, la entrada
// "Inventario inicial", todo en una transacción. Así el stock cuadra con el historial desde el primer día.
func (uc *ProductUseCase) Create(ctx context.Context, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Price.IsNegative() || in.UnitCost.IsNegative() || in.InitialStock < 0 || in.MinStock < 0 || in.MaxStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.MaxStock > 0 && in.MinStock > in.MaxStock {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       in.SKU,
		Name:      in.Name,
		Price:     in.Price,
		Cost:      decimal.Zero,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stock := &entity.ProductStock{
		ProductID: product.ID,
		MinStock:  in.MinStock,
		MaxStock:  in.MaxStock,
		UpdatedAt: now,
	}

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if err := stockRepo.Create(ctx, stock); err != nil {
			return err
		}
		if in.InitialStock == 0 {
			return nil
		}
		if err := productRepo.UpdateCost(ctx, product.ID, in.UnitCost); err != nil {
			return err
		}
		if err := stockRepo.UpdateQuantity(ctx, product.ID, 0, in.InitialStock); err != nil {
			return err
		}
		stock.Quantity = in.InitialStock
		product.Cost = in.UnitCost
		return movRepo.Create(ctx, &entity.InventoryMovement{
			ProductID:   product.ID,
			Type:        entity.MovementTypeENTRY,
			Quantity:    in.InitialStock,
			StockBefore: 0,
			StockAfter:  in.InitialStock,
			Reason:      "Inventario inicial",
			UnitCost:    in.UnitCost,
			CreatedAt:   now,
			CreatedBy:   userID,
		})
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product, stock), nil
}

// GetByID obtiene un producto con su stock. ErrProductNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	stock, err := uc.stockRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product, stock), nil
}

// List lista el catálogo con el stock actual de cada producto.
func (uc *ProductUseCase) List(ctx context.Context) ([]*dto.ProductResponse, error) {
	products, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	stocks, err := uc.stockRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.ProductStock, len(stocks))
	for _, s := range stocks {
		byID[s.ProductID] = s
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p, byID[p.ID]))
	}
	return out, nil
}

func toProductResponse(p *entity.Product, s *entity.ProductStock) *dto.ProductResponse {
	r := &dto.ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.Price,
		Cost:      p.Cost,
		CreatedAt: p.CreatedAt,
	}
	if s != nil {
		r.Stock = s.Quantity
		r.MinStock = s.MinStock
		r.MaxStock = s.MaxStock
	}
	return r
}
