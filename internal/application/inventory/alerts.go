package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// GenerateAlerts compara el stock actual de cada producto con sus umbrales.
// Sin stock: OUT_OF_STOCK; en o bajo el mínimo: LOW_STOCK; sobre el máximo: OVERSTOCK.
// Las alertas se derivan en cada consulta, no se persisten.
func (uc *LedgerUseCase) GenerateAlerts(ctx context.Context) ([]entity.StockAlert, error) {
	stocks, err := uc.stockRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	products, err := uc.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	alerts := make([]entity.StockAlert, 0)
	for _, st := range stocks {
		alert := entity.StockAlert{
			ProductID:    st.ProductID,
			ProductName:  names[st.ProductID],
			CurrentStock: st.Quantity,
			MinStock:     st.MinStock,
			MaxStock:     st.MaxStock,
		}
		switch {
		case st.Quantity == 0:
			alert.Kind = entity.AlertOutOfStock
			alert.Message = "producto sin stock"
		case st.IsLow():
			alert.Kind = entity.AlertLowStock
			alert.Message = fmt.Sprintf("stock %d en o bajo el mínimo %d", st.Quantity, st.MinStock)
		case st.IsOver():
			alert.Kind = entity.AlertOverstock
			alert.Message = fmt.Sprintf("stock %d supera el máximo %d", st.Quantity, st.MaxStock)
		default:
			continue
		}
		alerts = append(alerts, alert)
	}

	// Primero los más urgentes: sin stock, luego bajo mínimo, luego exceso
	rank := map[string]int{entity.AlertOutOfStock: 0, entity.AlertLowStock: 1, entity.AlertOverstock: 2}
	sort.SliceStable(alerts, func(i, j int) bool {
		return rank[alerts[i].Kind] < rank[alerts[j].Kind]
	})
	if len(alerts) > 0 {
		uc.log.Info().Int("alerts", len(alerts)).Msg("alertas de stock generadas")
	}
	return alerts, nil
}
