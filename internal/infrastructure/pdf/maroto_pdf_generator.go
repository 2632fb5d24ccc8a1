// Package pdf genera el comprobante de venta en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Comercio + NIT      │  N° Venta + Fecha + Estado   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + NIT/CC    │  VENDEDOR                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Producto | P.Unit | Desc. | Subtotal          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA / TOTAL                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID de la venta + notas / anulación        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 30, Blue: 30}
)

var _ sales.ReceiptRenderer = (*ReceiptGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// ReceiptGenerator implementa sales.ReceiptRenderer usando Maroto v2.
type ReceiptGenerator struct {
	issuerName  string
	issuerTaxID string
}

// NewReceiptGenerator construye el generador con los datos del comercio emisor.
func NewReceiptGenerator(issuerName, issuerTaxID string) *ReceiptGenerator {
	return &ReceiptGenerator{issuerName: issuerName, issuerTaxID: issuerTaxID}
}

// RenderReceipt genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) RenderReceipt(_ context.Context, r sales.Receipt) ([]byte, error) {
	if r.Sale == nil {
		return nil, fmt.Errorf("pdf: comprobante sin venta")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de venta "+r.Sale.ID, true).
		WithAuthor(nonEmpty(g.issuerName, "Ventas"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(r.Sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(r.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(r))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(r.Sale)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: comercio + NIT (izq) y N° venta + fecha + estado (der).
func (g *ReceiptGenerator) headerRow(sale *entity.Sale) core.Row {
	status := text.New("PROCESADA", props.Text{
		Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 19, Color: colorPrimary,
	})
	if sale.Status == entity.SaleStatusCancelled {
		status = text.New("ANULADA", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 19, Color: colorRed,
		})
	}

	return row.New(24).Add(
		col.New(7).Add(
			text.New(nonEmpty(g.issuerName, "Ventas"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+nonEmpty(g.issuerTaxID, "N/D"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(sale.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Fecha: "+sale.Date.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
			status,
		),
	)
}

// partiesRow: cliente (izq) y vendedor (der).
func partiesRow(r sales.Receipt) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(r.CustomerName, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New("NIT/CC: "+nonEmpty(r.CustomerTaxID, "N/D"), props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("VENDEDOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(r.SellerName, props.Text{
				Size: 10, Align: align.Right, Top: 6,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Producto", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Desc.", 2, align.Right),
		h("Subtotal", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea de la venta.
func tableDetailRows(lines []sales.ReceiptLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		name := l.ProductName
		if l.SKU != "" && l.SKU != l.ProductName {
			name = l.SKU + " · " + name
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", l.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				name,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(l.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(l.Discount),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(l.Subtotal),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha. Si hubo descuento posterior
// a la venta, el total puede ser menor que subtotal + IVA.
func totalsRow(r sales.Receipt) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top,
		})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: 12,
		})
	}

	iva := fmt.Sprintf("IVA (%s%%):", r.TaxRate.Mul(decimal.NewFromInt(100)).String())
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 0),
			label(iva, 6),
			grand("TOTAL:"),
		),
		col.New(3).Add(
			value("$"+formatMoney(r.Sale.Subtotal), 0),
			value("$"+formatMoney(r.Sale.TaxTotal), 6),
			grand("$"+formatMoney(r.Sale.Total)),
		),
	)
}

// footerRows: QR con el ID de la venta, notas y datos de anulación.
func footerRows(sale *entity.Sale) []core.Row {
	notes := []string{"Venta: " + sale.ID}
	if sale.Notes != "" {
		notes = append(notes, "Notas: "+strings.ReplaceAll(sale.Notes, "\n", " / "))
	}
	if sale.Status == entity.SaleStatusCancelled {
		cancel := "Anulada"
		if sale.CancelledAt != nil {
			cancel += " el " + sale.CancelledAt.Format("02/01/2006 15:04")
		}
		if sale.CancelReason != "" {
			cancel += ": " + sale.CancelReason
		}
		notes = append(notes, cancel)
	}

	return []core.Row{
		row.New(40).Add(
			col.New(3).Add(code.NewQr(sale.ID, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(9).Add(
				text.New(strings.Join(notes, "\n"), props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
			),
		),
		row.New(8).Add(col.New(12).Add(
			text.New("Este comprobante no reemplaza la factura electrónica.", props.Text{
				Size: 6.5, Color: colorGray, Top: 2, Align: align.Center,
			}),
		)),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return "N° " + strings.ToUpper(id[:8])
	}
	return "N° " + id
}

// formatMoney formatea con puntos de miles y coma decimal.
// Ej: 25000 → "25.000,00", -1234567.5 → "-1.234.567,50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	if d.IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	buf = append(buf, ',')
	buf = append(buf, frac...)
	return string(buf)
}
