package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.StockRepository             = (*StockRepo)(nil)
	_ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)
	_ repository.ProductRepository           = (*ProductRepo)(nil)
)

// StockRepo stock en memoria (usable con o sin transacción).
type StockRepo struct {
	s  *Store
	tx *tx
}

// NewStockRepository construye el repositorio fuera de transacción.
func NewStockRepository(s *Store) *StockRepo { return &StockRepo{s: s} }

func (r *StockRepo) Get(_ context.Context, productID string) (*entity.ProductStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[productID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.ProductStock, error) {
	if r.tx != nil {
		r.tx.lock("stock:" + productID)
	}
	return r.Get(ctx, productID)
}

func (r *StockRepo) UpdateQuantity(_ context.Context, productID string, expected, newQty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if st.Quantity != expected || newQty < 0 {
		return domain.ErrConflict
	}
	prev := st
	st.Quantity = newQty
	st.UpdatedAt = time.Now()
	r.s.stocks[productID] = st
	r.tx.record(func() { r.s.stocks[productID] = prev })
	return nil
}

func (r *StockRepo) Create(_ context.Context, stock *entity.ProductStock) error {
	if stock.Quantity < 0 {
		return domain.ErrInvalidInput
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stocks[stock.ProductID]; ok {
		return domain.ErrDuplicate
	}
	if stock.UpdatedAt.IsZero() {
		stock.UpdatedAt = time.Now()
	}
	r.s.stocks[stock.ProductID] = *stock
	id := stock.ProductID
	r.tx.record(func() { delete(r.s.stocks, id) })
	return nil
}

func (r *StockRepo) UpdateThresholds(_ context.Context, productID string, minStock, maxStock int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	prev := st
	st.MinStock, st.MaxStock = minStock, maxStock
	r.s.stocks[productID] = st
	r.tx.record(func() { r.s.stocks[productID] = prev })
	return nil
}

func (r *StockRepo) List(_ context.Context) ([]*entity.ProductStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]*entity.ProductStock, 0, len(r.s.stocks))
	for _, st := range r.s.stocks {
		st := st
		list = append(list, &st)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

// InventoryMovementRepo movimientos en memoria (solo inserción).
type InventoryMovementRepo struct {
	s  *Store
	tx *tx
}

// NewInventoryMovementRepository construye el repositorio fuera de transacción.
func NewInventoryMovementRepository(s *Store) *InventoryMovementRepo {
	return &InventoryMovementRepo{s: s}
}

func (r *InventoryMovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, *m)
	id := m.ID
	r.tx.record(func() {
		for i := len(r.s.movements) - 1; i >= 0; i-- {
			if r.s.movements[i].ID == id {
				r.s.movements = append(r.s.movements[:i], r.s.movements[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *InventoryMovementRepo) ListByProduct(_ context.Context, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.InventoryMovement
	// recorrido inverso: orden de inserción descendente como desempate de CreatedAt
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		list = append(list, &m)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *InventoryMovementRepo) ListByReference(_ context.Context, reference string) ([]*entity.InventoryMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.InventoryMovement
	for _, m := range r.s.movements {
		if m.Reference == reference {
			m := m
			list = append(list, &m)
		}
	}
	return list, nil
}

// ProductRepo catálogo en memoria.
type ProductRepo struct {
	s  *Store
	tx *tx
}

// NewProductRepository construye el repositorio fuera de transacción.
func NewProductRepository(s *Store) *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if p.SKU != "" && existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.products[p.ID] = *p
	id := p.ID
	r.tx.record(func() { delete(r.s.products, id) })
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	prev := p
	p.Cost = cost
	p.UpdatedAt = time.Now()
	r.s.products[productID] = p
	r.tx.record(func() { r.s.products[productID] = prev })
	return nil
}

func (r *ProductRepo) List(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return list, nil
}
