package sales

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// ReceiptLine línea del comprobante con el nombre del producto resuelto.
type ReceiptLine struct {
	SKU         string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
}

// Receipt datos necesarios para renderizar el comprobante de una venta.
type Receipt struct {
	Sale          *entity.Sale
	CustomerName  string
	CustomerTaxID string
	SellerName    string
	TaxRate       decimal.Decimal
	Lines         []ReceiptLine
}

// ReceiptRenderer genera el documento (PDF) del comprobante.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, r Receipt) ([]byte, error)
}

// ReceiptUseCase arma el comprobante de una venta persistida.
type ReceiptUseCase struct {
	orch         *Orchestrator
	customerRepo repository.CustomerRepository
	sellerRepo   repository.SellerRepository
	productRepo  repository.ProductRepository
	renderer     ReceiptRenderer
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(
	orch *Orchestrator,
	customerRepo repository.CustomerRepository,
	sellerRepo repository.SellerRepository,
	productRepo repository.ProductRepository,
	renderer ReceiptRenderer,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		orch:         orch,
		customerRepo: customerRepo,
		sellerRepo:   sellerRepo,
		productRepo:  productRepo,
		renderer:     renderer,
	}
}

// Build reúne venta, cliente, vendedor y productos. Datos de referencia ausentes
// no impiden el comprobante: se muestra el identificador.
func (uc *ReceiptUseCase) Build(ctx context.Context, saleID string) (*Receipt, error) {
	sale, err := uc.orch.GetSaleByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	r := &Receipt{
		Sale:         sale,
		CustomerName: sale.CustomerID,
		SellerName:   sale.SellerID,
		TaxRate:      uc.orch.TaxRate(),
		Lines:        make([]ReceiptLine, 0, len(sale.Items)),
	}
	if c, err := uc.customerRepo.GetByID(ctx, sale.CustomerID); err == nil && c != nil {
		r.CustomerName, r.CustomerTaxID = c.Name, c.TaxID
	}
	if s, err := uc.sellerRepo.GetByID(ctx, sale.SellerID); err == nil && s != nil {
		r.SellerName = s.Name
	}
	for _, it := range sale.Items {
		line := ReceiptLine{
			ProductName: it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Discount:    it.Discount,
			Subtotal:    it.Subtotal,
		}
		if p, err := uc.productRepo.GetByID(ctx, it.ProductID); err == nil && p != nil {
			line.SKU, line.ProductName = p.SKU, p.Name
		}
		r.Lines = append(r.Lines, line)
	}
	return r, nil
}

// Download genera el PDF del comprobante y su nombre de archivo.
func (uc *ReceiptUseCase) Download(ctx context.Context, saleID string) ([]byte, string, error) {
	r, err := uc.Build(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.renderer.RenderReceipt(ctx, *r)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante %s: %w", saleID, err)
	}
	return pdf, fmt.Sprintf("venta-%s.pdf", saleID), nil
}
