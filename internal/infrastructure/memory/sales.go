package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository     = (*SaleRepo)(nil)
	_ repository.SellerRepository   = (*SellerRepo)(nil)
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.UserRepository     = (*UserRepo)(nil)
)

// SaleRepo libro de ventas en memoria.
type SaleRepo struct {
	s  *Store
	tx *tx
}

// NewSaleRepository construye el repositorio fuera de transacción.
func NewSaleRepository(s *Store) *SaleRepo { return &SaleRepo{s: s} }

func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	for i := range sale.Items {
		if sale.Items[i].ID == "" {
			sale.Items[i].ID = uuid.New().String()
		}
		sale.Items[i].SaleID = sale.ID
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sales[sale.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.sales[sale.ID] = copySale(*sale)
	id := sale.ID
	r.tx.record(func() { delete(r.s.sales, id) })
	return nil
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, nil
	}
	cp := copySale(sale)
	return &cp, nil
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	if r.tx != nil {
		r.tx.lock("sale:" + id)
	}
	return r.GetByID(ctx, id)
}

func (r *SaleRepo) Update(_ context.Context, sale *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.sales[sale.ID]
	if !ok {
		return domain.ErrSaleNotFound
	}
	next := copySale(prev)
	next.Total = sale.Total
	next.Status = sale.Status
	next.Notes = sale.Notes
	next.CancelReason = sale.CancelReason
	next.CancelledAt = sale.CancelledAt
	next.UpdatedAt = sale.UpdatedAt
	r.s.sales[sale.ID] = next
	r.tx.record(func() { r.s.sales[prev.ID] = prev })
	return nil
}

func (r *SaleRepo) ListBySeller(_ context.Context, sellerID string) ([]*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Sale
	for _, sale := range r.s.sales {
		if sale.SellerID == sellerID {
			cp := copySale(sale)
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list, nil
}

// SellerRepo registros de autorización en memoria.
type SellerRepo struct{ s *Store }

// NewSellerRepository construye el repositorio.
func NewSellerRepository(s *Store) *SellerRepo { return &SellerRepo{s: s} }

func (r *SellerRepo) Create(_ context.Context, seller *entity.Seller) error {
	if seller.ID == "" {
		seller.ID = uuid.New().String()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sellers[seller.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.sellers[seller.ID] = *seller
	return nil
}

func (r *SellerRepo) GetByID(_ context.Context, id string) (*entity.Seller, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seller, ok := r.s.sellers[id]
	if !ok {
		return nil, nil
	}
	return &seller, nil
}

func (r *SellerRepo) Update(_ context.Context, seller *entity.Seller) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sellers[seller.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.sellers[seller.ID] = *seller
	return nil
}

// CustomerRepo clientes en memoria.
type CustomerRepo struct{ s *Store }

// NewCustomerRepository construye el repositorio.
func NewCustomerRepository(s *Store) *CustomerRepo { return &CustomerRepo{s: s} }

func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.customers {
		if c.TaxID != "" && existing.TaxID == c.TaxID {
			return domain.ErrDuplicate
		}
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CustomerRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.TaxID == taxID {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CustomerRepo) List(_ context.Context, limit, offset int) ([]*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*entity.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		c := c
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return []*entity.Customer{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

// NewUserRepository construye el repositorio.
func NewUserRepository(s *Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}
