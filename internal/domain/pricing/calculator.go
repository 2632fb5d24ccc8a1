// Package pricing contiene los cálculos monetarios puros de una venta.
//
// Todos los montos usan shopspring/decimal. El impuesto se redondea a 2 decimales
// con redondeo half-up (decimal.Round redondea la mitad alejándose de cero, que
// para montos positivos es half-up); el subtotal se mantiene exacto.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Ventas-api/internal/domain"
)

// DefaultTaxRate IVA general en Colombia.
var DefaultTaxRate = decimal.RequireFromString("0.19")

// MoneyPlaces decimales de los montos calculados.
const MoneyPlaces = 2

// Line entrada de cálculo para una línea de venta.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// Gross cantidad × precio unitario.
func (l Line) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal cantidad × precio − descuento.
func (l Line) Subtotal() decimal.Decimal {
	return l.Gross().Sub(l.Discount)
}

// Result totales de una venta.
type Result struct {
	Subtotal decimal.Decimal
	TaxRate  decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Lines    []decimal.Decimal // subtotal por línea, en el mismo orden de la entrada
}

// Calculator calcula subtotal, impuesto y total con una tasa fija configurada.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator construye la calculadora. Una tasa negativa se rechaza.
func NewCalculator(taxRate decimal.Decimal) (*Calculator, error) {
	if taxRate.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	return &Calculator{taxRate: taxRate}, nil
}

// TaxRate tasa configurada.
func (c *Calculator) TaxRate() decimal.Decimal { return c.taxRate }

// Calculate subtotal = Σ(cantidad × precio − descuento); total = subtotal + round(subtotal × tasa, 2).
// Devuelve ErrInvalidInput si alguna línea tiene cantidad <= 0, precio negativo
// o un descuento negativo o mayor al valor bruto de la línea.
func (c *Calculator) Calculate(lines []Line) (Result, error) {
	res := Result{
		Subtotal: decimal.Zero,
		TaxRate:  c.taxRate,
		Lines:    make([]decimal.Decimal, 0, len(lines)),
	}
	for _, l := range lines {
		if err := ValidateLine(l); err != nil {
			return Result{}, err
		}
		sub := l.Subtotal()
		res.Lines = append(res.Lines, sub)
		res.Subtotal = res.Subtotal.Add(sub)
	}
	res.Tax = res.Subtotal.Mul(c.taxRate).Round(MoneyPlaces)
	res.Total = res.Subtotal.Add(res.Tax)
	return res, nil
}

// ValidMoney indica si d se representa en centavos sin redondear.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

// ValidateLine verifica los rangos de una línea. Precio y descuento no admiten
// fracciones de centavo.
func ValidateLine(l Line) error {
	if l.Quantity <= 0 || l.UnitPrice.IsNegative() || l.Discount.IsNegative() {
		return domain.ErrInvalidInput
	}
	if !ValidMoney(l.UnitPrice) || !ValidMoney(l.Discount) {
		return domain.ErrInvalidInput
	}
	if l.Discount.GreaterThan(l.Gross()) {
		return domain.ErrInvalidInput
	}
	return nil
}

// WeightedAverageCost implementa el costo promedio ponderado tras una entrada.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(stock int, cost decimal.Decimal, entryQty int, entryCost decimal.Decimal) decimal.Decimal {
	total := stock + entryQty
	if total <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(int64(stock)).Mul(cost).
		Add(decimal.NewFromInt(int64(entryQty)).Mul(entryCost))
	return num.Div(decimal.NewFromInt(int64(total)))
}
