package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSellerRequest body para POST /api/sellers. El vendedor nace sin autorización.
type CreateSellerRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Territory      string          `json:"territory"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// SellerResponse registro de autorización del vendedor.
type SellerResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Territory      string          `json:"territory"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Authorized     bool            `json:"authorized"`
	Active         bool            `json:"active"`
	AuthorizedBy   string          `json:"authorized_by,omitempty"`
	AuthorizedAt   *time.Time      `json:"authorized_at,omitempty"`
}

// AuthorizationResponse resultado de consultar el oráculo de autorización.
type AuthorizationResponse struct {
	SellerID   string `json:"seller_id"`
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason"`
}
