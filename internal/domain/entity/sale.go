package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta persistida. No existe fila en estado pendiente:
// la venta solo se escribe cuando ya fue validada y descontada del inventario.
const (
	SaleStatusProcessed = "PROCESSED"
	SaleStatusCancelled = "CANCELLED"
)

// Sale cabecera de una venta.
type Sale struct {
	ID           string
	Date         time.Time
	CustomerID   string
	SellerID     string
	Subtotal     decimal.Decimal
	TaxTotal     decimal.Decimal
	Total        decimal.Decimal
	Status       string
	Notes        string
	CancelReason string
	CancelledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []SaleItem
}

// SaleItem línea de detalle de una venta.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal // Quantity*UnitPrice - Discount
}
