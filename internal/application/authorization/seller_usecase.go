package authorization

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// SellerUseCase acciones de RRHH sobre el registro de autorización.
// Los registros nunca se eliminan: se desactivan.
type SellerUseCase struct {
	repo   repository.SellerRepository
	oracle *Oracle
	log    zerolog.Logger
}

// NewSellerUseCase construye el caso de uso.
func NewSellerUseCase(repo repository.SellerRepository, oracle *Oracle, log zerolog.Logger) *SellerUseCase {
	return &SellerUseCase{repo: repo, oracle: oracle, log: log}
}

// Create registra un vendedor sin autorización.
func (uc *SellerUseCase) Create(ctx context.Context, in dto.CreateSellerRequest) (*dto.SellerResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.CommissionRate.IsNegative() || in.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, domain.ErrInvalidInput
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	s := &entity.Seller{
		ID:             id,
		Name:           name,
		Territory:      in.Territory,
		CommissionRate: in.CommissionRate,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return toSellerResponse(s), nil
}

// Get devuelve el registro. ErrNotFound si no existe.
func (uc *SellerUseCase) Get(ctx context.Context, id string) (*dto.SellerResponse, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSellerResponse(s), nil
}

// Check expone la decisión del oráculo.
func (uc *SellerUseCase) Check(ctx context.Context, id string) *dto.AuthorizationResponse {
	d := uc.oracle.CheckAuthorized(ctx, id)
	return &dto.AuthorizationResponse{SellerID: id, Authorized: d.Authorized, Reason: d.Reason}
}

// Approve autoriza al vendedor. actor es el usuario de RRHH.
func (uc *SellerUseCase) Approve(ctx context.Context, id, actor string) (*dto.SellerResponse, error) {
	return uc.setAuthorized(ctx, id, actor, true)
}

// Revoke retira la autorización.
func (uc *SellerUseCase) Revoke(ctx context.Context, id, actor string) (*dto.SellerResponse, error) {
	return uc.setAuthorized(ctx, id, actor, false)
}

// Deactivate desactiva el registro; un vendedor inactivo no puede vender aunque esté autorizado.
func (uc *SellerUseCase) Deactivate(ctx context.Context, id, actor string) (*dto.SellerResponse, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s.Active = false
	s.AuthorizedBy = actor
	s.AuthorizedAt = &now
	s.UpdatedAt = now
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	uc.log.Info().Str("seller_id", id).Str("actor", actor).Msg("vendedor desactivado")
	return toSellerResponse(s), nil
}

func (uc *SellerUseCase) setAuthorized(ctx context.Context, id, actor string, authorized bool) (*dto.SellerResponse, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if authorized && !s.Active {
		return nil, domain.ErrConflict
	}
	now := time.Now()
	s.Authorized = authorized
	s.AuthorizedBy = actor
	s.AuthorizedAt = &now
	s.UpdatedAt = now
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	uc.log.Info().Str("seller_id", id).Str("actor", actor).Bool("authorized", authorized).Msg("autorización de vendedor actualizada")
	return toSellerResponse(s), nil
}

func (uc *SellerUseCase) load(ctx context.Context, id string) (*entity.Seller, error) {
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func toSellerResponse(s *entity.Seller) *dto.SellerResponse {
	return &dto.SellerResponse{
		ID:             s.ID,
		Name:           s.Name,
		Territory:      s.Territory,
		CommissionRate: s.CommissionRate,
		Authorized:     s.Authorized,
		Active:         s.Active,
		AuthorizedBy:   s.AuthorizedBy,
		AuthorizedAt:   s.AuthorizedAt,
	}
}
