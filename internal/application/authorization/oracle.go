// Package authorization responde si un vendedor puede vender y administra su registro de autorización.
package authorization

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// Razones devueltas por el oráculo.
const (
	ReasonAuthorized    = "vendedor autorizado"
	ReasonNotFound      = "vendedor no registrado"
	ReasonInactive      = "vendedor inactivo"
	ReasonNotAuthorized = "vendedor sin autorización de RRHH"
	ReasonLookupFailed  = "no fue posible verificar la autorización"
)

// Decision resultado de consultar la autorización de un vendedor.
type Decision struct {
	Authorized bool
	Reason     string
}

// Oracle consulta (sin modificar) el registro de autorización de vendedores.
type Oracle struct {
	repo repository.SellerRepository
	log  zerolog.Logger
}

// NewOracle construye el oráculo.
func NewOracle(repo repository.SellerRepository, log zerolog.Logger) *Oracle {
	return &Oracle{repo: repo, log: log.With().Str("component", "authorization_oracle").Logger()}
}

// CheckAuthorized nunca devuelve error: ante un fallo de consulta o un registro
// ausente/inactivo responde no autorizado con una razón legible.
func (o *Oracle) CheckAuthorized(ctx context.Context, sellerID string) Decision {
	if sellerID == "" {
		return Decision{Reason: ReasonNotFound}
	}
	seller, err := o.repo.GetByID(ctx, sellerID)
	if err != nil {
		o.log.Warn().Err(err).Str("seller_id", sellerID).Msg("consulta de autorización falló")
		return Decision{Reason: ReasonLookupFailed}
	}
	switch {
	case seller == nil:
		return Decision{Reason: ReasonNotFound}
	case !seller.Active:
		return Decision{Reason: ReasonInactive}
	case !seller.Authorized:
		return Decision{Reason: ReasonNotAuthorized}
	}
	return Decision{Authorized: true, Reason: ReasonAuthorized}
}
