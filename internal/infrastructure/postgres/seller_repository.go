package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.SellerRepository = (*SellerRepo)(nil)

// SellerRepo registro de autorización de vendedores sobre PostgreSQL.
type SellerRepo struct {
	q Querier
}

// NewSellerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSellerRepository(q Querier) *SellerRepo {
	return &SellerRepo{q: q}
}

const sellerColumns = `id, name, territory, commission_rate, authorized, active, authorized_by, authorized_at, created_at, updated_at`

func (r *SellerRepo) Create(ctx context.Context, s *entity.Seller) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `INSERT INTO sellers (` + sellerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Name, s.Territory, s.CommissionRate, s.Authorized, s.Active,
		nullableString(s.AuthorizedBy), s.AuthorizedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

func (r *SellerRepo) GetByID(ctx context.Context, id string) (*entity.Seller, error) {
	var s entity.Seller
	var authorizedBy *string
	err := r.q.QueryRow(ctx, `SELECT `+sellerColumns+` FROM sellers WHERE id = $1`, id).Scan(
		&s.ID, &s.Name, &s.Territory, &s.CommissionRate, &s.Authorized, &s.Active,
		&authorizedBy, &s.AuthorizedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}
	s.AuthorizedBy = derefString(authorizedBy)
	return &s, nil
}

func (r *SellerRepo) Update(ctx context.Context, s *entity.Seller) error {
	query := `
		UPDATE sellers SET name = $2, territory = $3, commission_rate = $4, authorized = $5, active = $6,
			authorized_by = $7, authorized_at = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.Name, s.Territory, s.CommissionRate, s.Authorized, s.Active,
		nullableString(s.AuthorizedBy), s.AuthorizedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update seller: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
