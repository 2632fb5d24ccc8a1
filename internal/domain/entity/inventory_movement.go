package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeENTRY      = "ENTRY"      // entrada
	MovementTypeEXIT       = "EXIT"       // salida
	MovementTypeADJUSTMENT = "ADJUSTMENT" // ajuste (positivo o negativo)
)

// InventoryMovement registro inmutable de un cambio de stock.
// Quantity es el delta con signo: positivo entrada, negativo salida.
type InventoryMovement struct {
	ID          string
	ProductID   string
	Type        string
	Quantity    int
	StockBefore int
	StockAfter  int
	Reason      string
	Reference   string // documento que origina el movimiento (ej. ID de venta)
	UnitCost    decimal.Decimal
	CreatedAt   time.Time
	CreatedBy   string
}
