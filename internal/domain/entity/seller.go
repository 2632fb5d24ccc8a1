package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seller registro de autorización de un vendedor.
// Solo RRHH lo modifica (aprobar/revocar); nunca se elimina, se desactiva.
type Seller struct {
	ID             string
	Name           string
	Territory      string
	CommissionRate decimal.Decimal
	Authorized     bool
	Active         bool
	AuthorizedBy   string // usuario de RRHH que hizo el último cambio
	AuthorizedAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
