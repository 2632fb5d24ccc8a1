package memory

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner  = (*TxRunner)(nil)
	_ sales.SalesTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción en memoria.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

// Run ejecuta fn con repos de inventario atados a la tx; Commit si fn no falla, si no Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.do(ctx, func(t *tx) error {
		return fn(
			&InventoryMovementRepo{s: r.s, tx: t},
			&StockRepo{s: r.s, tx: t},
			&ProductRepo{s: r.s, tx: t},
		)
	})
}

// RunSales como Run pero incluye el repositorio de ventas.
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.do(ctx, func(t *tx) error {
		return fn(
			&InventoryMovementRepo{s: r.s, tx: t},
			&StockRepo{s: r.s, tx: t},
			&ProductRepo{s: r.s, tx: t},
			&SaleRepo{s: r.s, tx: t},
		)
	})
}

func (r *TxRunner) do(ctx context.Context, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(r.s)
	committed := false
	defer func() {
		if !committed {
			t.rollback()
		}
	}()
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	committed = true
	return nil
}
