package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	ErrSellerNotAuthorized = errors.New("vendedor no autorizado")
	ErrCustomerNotFound    = errors.New("cliente no encontrado")
	ErrProductNotFound     = errors.New("producto no encontrado")
	ErrSaleNotFound        = errors.New("venta no encontrada")
	ErrInvalidSaleState    = errors.New("operación no permitida para el estado de la venta")
	ErrAlreadyCancelled    = errors.New("la venta ya fue anulada")
	ErrInternal            = errors.New("error interno")
	// ErrInconsistentState indica que una compensación no pudo completarse y el
	// inventario requiere revisión manual.
	ErrInconsistentState = errors.New("estado inconsistente entre ventas e inventario")
)

// InsufficientStockError lista todos los productos sin stock suficiente.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ProductIDs []string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para: %s", strings.Join(e.ProductIDs, ", "))
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NewInsufficientStockError construye el error para uno o más productos.
func NewInsufficientStockError(productIDs ...string) *InsufficientStockError {
	return &InsufficientStockError{ProductIDs: productIDs}
}

// SellerNotAuthorizedError indica qué vendedor fue rechazado y por qué.
type SellerNotAuthorizedError struct {
	SellerID string
	Reason   string
}

func (e *SellerNotAuthorizedError) Error() string {
	return fmt.Sprintf("vendedor %s no autorizado: %s", e.SellerID, e.Reason)
}

func (e *SellerNotAuthorizedError) Is(target error) bool { return target == ErrSellerNotAuthorized }
