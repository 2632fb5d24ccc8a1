package entity

// Tipos de alerta de stock.
const (
	AlertLowStock   = "LOW_STOCK"
	AlertOutOfStock = "OUT_OF_STOCK"
	AlertOverstock  = "OVERSTOCK"
)

// StockAlert alerta derivada al comparar stock actual con sus umbrales. No se persiste.
type StockAlert struct {
	ProductID    string
	ProductName  string
	Kind         string
	Message      string
	CurrentStock int
	MinStock     int
	MaxStock     int
}
