package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// UpdateStockFromRequest aplica un movimiento manual recibido por HTTP (bodega).
func (uc *LedgerUseCase) UpdateStockFromRequest(ctx context.Context, userID string, in dto.UpdateStockRequest) (*dto.StockUpdateResponse, error) {
	res, err := uc.ApplyMovement(ctx, MovementInput{
		ProductID: in.ProductID,
		Type:      strings.ToUpper(strings.TrimSpace(in.Type)),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		Reference: in.Reference,
		Actor:     userID,
		UnitCost:  in.UnitCost,
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockUpdateResponse{
		MovementID:  res.MovementID,
		ProductID:   res.ProductID,
		StockBefore: res.StockBefore,
		StockAfter:  res.StockAfter,
		Overstock:   res.Overstock,
	}, nil
}

// Disponibilidad versión DTO de CheckAvailability.
func (uc *LedgerUseCase) Disponibilidad(ctx context.Context, productID string, quantity int) (*dto.DisponibilidadInventario, error) {
	a, err := uc.CheckAvailability(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	return &dto.DisponibilidadInventario{
		ProductID:         a.ProductID,
		CurrentStock:      a.CurrentStock,
		AvailableStock:    a.AvailableStock,
		RequestedQuantity: a.RequestedQuantity,
		AvailableForSale:  a.AvailableForSale,
	}, nil
}

// StockDTO stock actual en formato de respuesta.
func (uc *LedgerUseCase) StockDTO(ctx context.Context, productID string) (*dto.StockResponse, error) {
	st, err := uc.GetStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &dto.StockResponse{
		ProductID: st.ProductID,
		Quantity:  st.Quantity,
		MinStock:  st.MinStock,
		MaxStock:  st.MaxStock,
		UpdatedAt: st.UpdatedAt,
	}, nil
}

// HistoryDTO historial de movimientos en formato de respuesta.
func (uc *LedgerUseCase) HistoryDTO(ctx context.Context, productID string, from, to *time.Time) ([]dto.MovementResponse, error) {
	list, err := uc.GetMovementHistory(ctx, productID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out, nil
}

// AlertsDTO alertas de stock en formato de respuesta.
func (uc *LedgerUseCase) AlertsDTO(ctx context.Context) ([]dto.StockAlertResponse, error) {
	alerts, err := uc.GenerateAlerts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, dto.StockAlertResponse{
			ProductID:    a.ProductID,
			ProductName:  a.ProductName,
			Kind:         a.Kind,
			Message:      a.Message,
			CurrentStock: a.CurrentStock,
			MinStock:     a.MinStock,
			MaxStock:     a.MaxStock,
		})
	}
	return out, nil
}

func toMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reason:      m.Reason,
		Reference:   m.Reference,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}
