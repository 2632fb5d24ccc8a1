package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessSaleRequest body para POST /api/sales.
type ProcessSaleRequest struct {
	CustomerID string            `json:"customer_id"`
	SellerID   string            `json:"seller_id"`
	Items      []SaleItemRequest `json:"items"`
	Notes      string            `json:"notes,omitempty"`
}

// SaleItemRequest línea de venta. unit_price 0 toma el precio del catálogo.
type SaleItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

// CalculateTotalRequest body para POST /api/sales/calculate.
type CalculateTotalRequest struct {
	Items []SaleItemRequest `json:"items"`
}

// SaleTotalResponse resultado del cálculo de totales.
type SaleTotalResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	TaxTotal decimal.Decimal `json:"tax_total"`
	Total    decimal.Decimal `json:"total"`
}

// ApplyDiscountRequest body para POST /api/sales/:id/discount.
type ApplyDiscountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// CancelSaleRequest body para POST /api/sales/:id/cancel.
type CancelSaleRequest struct {
	Reason string `json:"reason"`
}

// CancelSaleResponse resultado de la anulación.
type CancelSaleResponse struct {
	Cancelled bool   `json:"cancelled"`
	SaleID    string `json:"sale_id"`
	Status    string `json:"status"`
}

// SaleResponse venta con detalle.
type SaleResponse struct {
	ID           string             `json:"id"`
	Date         time.Time          `json:"date"`
	CustomerID   string             `json:"customer_id"`
	SellerID     string             `json:"seller_id"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	TaxTotal     decimal.Decimal    `json:"tax_total"`
	Total        decimal.Decimal    `json:"total"`
	Status       string             `json:"status"`
	Notes        string             `json:"notes,omitempty"`
	CancelReason string             `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
	Items        []SaleItemResponse `json:"items"`
}

// SaleItemResponse línea de detalle en la respuesta.
type SaleItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
