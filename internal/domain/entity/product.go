package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Cost es promedio ponderado calculado desde las entradas; el stock vive en ProductStock.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de venta sugerido
	Cost      decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
