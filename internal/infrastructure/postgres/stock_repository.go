package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, quantity, min_stock, max_stock, updated_at`

func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.ProductStock, error) {
	return r.get(ctx, `SELECT `+stockColumns+` FROM product_stock WHERE product_id = $1`, productID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.ProductStock, error) {
	return r.get(ctx, `SELECT `+stockColumns+` FROM product_stock WHERE product_id = $1 FOR UPDATE`, productID)
}

func (r *StockRepo) get(ctx context.Context, query, productID string) (*entity.ProductStock, error) {
	var s entity.ProductStock
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&s.ProductID, &s.Quantity, &s.MinStock, &s.MaxStock, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// UpdateQuantity escribe solo si la cantidad sigue siendo expected: una escritura
// concurrente que se haya colado hace que no se afecte ninguna fila.
func (r *StockRepo) UpdateQuantity(ctx context.Context, productID string, expected, newQty int) error {
	if newQty < 0 {
		return domain.ErrConflict
	}
	query := `
		UPDATE product_stock SET quantity = $3, updated_at = now()
		WHERE product_id = $1 AND quantity = $2`
	tag, err := r.q.Exec(ctx, query, productID, expected, newQty)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *StockRepo) Create(ctx context.Context, stock *entity.ProductStock) error {
	query := `
		INSERT INTO product_stock (product_id, quantity, min_stock, max_stock, updated_at)
		VALUES ($1, $2, $3, $4, now())`
	_, err := r.q.Exec(ctx, query, stock.ProductID, stock.Quantity, stock.MinStock, stock.MaxStock)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

func (r *StockRepo) UpdateThresholds(ctx context.Context, productID string, minStock, maxStock int) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE product_stock SET min_stock = $2, max_stock = $3, updated_at = now() WHERE product_id = $1`,
		productID, minStock, maxStock,
	)
	if err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *StockRepo) List(ctx context.Context) ([]*entity.ProductStock, error) {
	rows, err := r.q.Query(ctx, `SELECT `+stockColumns+` FROM product_stock ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductStock
	for rows.Next() {
		var s entity.ProductStock
		if err := rows.Scan(&s.ProductID, &s.Quantity, &s.MinStock, &s.MaxStock, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
