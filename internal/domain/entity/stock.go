package entity

import "time"

// ProductStock representa el stock actual de un producto con sus umbrales mínimo y máximo.
// Quantity nunca es negativo; solo cambia a través de un InventoryMovement.
type ProductStock struct {
	ProductID string
	Quantity  int
	MinStock  int
	MaxStock  int // 0 = sin máximo
	UpdatedAt time.Time
}

// IsLow indica si el stock está en o por debajo del mínimo.
func (s *ProductStock) IsLow() bool {
	return s.MinStock > 0 && s.Quantity <= s.MinStock
}

// IsOver indica si el stock supera el máximo configurado.
func (s *ProductStock) IsOver() bool {
	return s.MaxStock > 0 && s.Quantity > s.MaxStock
}
