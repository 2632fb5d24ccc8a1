package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdateStockRequest body para POST /api/inventory/movements.
// Para ENTRY/EXIT quantity es positivo; para ADJUSTMENT lleva signo.
type UpdateStockRequest struct {
	ProductID string           `json:"product_id"`
	Type      string           `json:"type"`
	Quantity  int              `json:"quantity"`
	Reason    string           `json:"reason"`
	Reference string           `json:"reference,omitempty"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// StockUpdateResponse resultado de aplicar un movimiento.
type StockUpdateResponse struct {
	MovementID  string `json:"movement_id"`
	ProductID   string `json:"product_id"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	Overstock   bool   `json:"overstock"`
}

// DisponibilidadInventario respuesta de consulta de disponibilidad.
type DisponibilidadInventario struct {
	ProductID         string `json:"product_id"`
	CurrentStock      int    `json:"current_stock"`
	AvailableStock    int    `json:"available_stock"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableForSale  bool   `json:"available_for_sale"`
}

// StockResponse stock actual de un producto.
type StockResponse struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	MinStock  int       `json:"min_stock"`
	MaxStock  int       `json:"max_stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MovementResponse movimiento de inventario en respuestas.
type MovementResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	Reason      string    `json:"reason"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// StockAlertResponse alerta de stock derivada.
type StockAlertResponse struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
	MaxStock     int    `json:"max_stock"`
}
