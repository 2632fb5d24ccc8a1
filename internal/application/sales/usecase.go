package sales

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ProcessSaleFromRequest adapta el body HTTP a ProcessSale.
func (o *Orchestrator) ProcessSaleFromRequest(ctx context.Context, req dto.ProcessSaleRequest) (*dto.SaleResponse, error) {
	sale, err := o.ProcessSale(ctx, ProcessSaleInput{
		CustomerID: req.CustomerID,
		SellerID:   req.SellerID,
		Items:      toLineInputs(req.Items),
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// CalculateFromRequest adapta el body HTTP a CalculateSaleTotal.
func (o *Orchestrator) CalculateFromRequest(ctx context.Context, req dto.CalculateTotalRequest) (*dto.SaleTotalResponse, error) {
	res, err := o.CalculateSaleTotal(ctx, toLineInputs(req.Items))
	if err != nil {
		return nil, err
	}
	return &dto.SaleTotalResponse{
		Subtotal: res.Subtotal,
		TaxRate:  res.TaxRate,
		TaxTotal: res.Tax,
		Total:    res.Total,
	}, nil
}

func toLineInputs(items []dto.SaleItemRequest) []LineInput {
	out := make([]LineInput, 0, len(items))
	for _, it := range items {
		out = append(out, LineInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
		})
	}
	return out
}

// ToSaleResponse convierte la venta al DTO de salida.
func ToSaleResponse(s *entity.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
			Subtotal:  it.Subtotal,
		})
	}
	return &dto.SaleResponse{
		ID:           s.ID,
		Date:         s.Date,
		CustomerID:   s.CustomerID,
		SellerID:     s.SellerID,
		Subtotal:     s.Subtotal,
		TaxTotal:     s.TaxTotal,
		Total:        s.Total,
		Status:       s.Status,
		Notes:        s.Notes,
		CancelReason: s.CancelReason,
		CancelledAt:  s.CancelledAt,
		Items:        items,
	}
}
