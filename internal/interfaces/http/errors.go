package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Orden importa: los errores tipados de venta van antes que los genéricos.
var errorMappings = []errorMapping{
	{domain.ErrSellerNotAuthorized, fiber.StatusForbidden, "SELLER_NOT_AUTHORIZED", "el vendedor no está autorizado para vender"},
	{domain.ErrCustomerNotFound, fiber.StatusNotFound, "CUSTOMER_NOT_FOUND", "cliente no encontrado"},
	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND", "producto no encontrado"},
	{domain.ErrSaleNotFound, fiber.StatusNotFound, "SALE_NOT_FOUND", "venta no encontrada"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrAlreadyCancelled, fiber.StatusConflict, "ALREADY_CANCELLED", "la venta ya fue anulada"},
	{domain.ErrInvalidSaleState, fiber.StatusConflict, "INVALID_SALE_STATE", "operación no permitida para el estado de la venta"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", "el recurso ya existe"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", "conflicto con el estado actual"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrUserNotFound, fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado"},
	{domain.ErrInconsistentState, fiber.StatusInternalServerError, "INCONSISTENT_STATE", "la operación no se completó; el inventario requiere revisión"},
}

// writeError traduce un error de aplicación a dto.ErrorResponse. Los errores no
// mapeados se registran y responden como INTERNAL sin exponer el detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := dto.ErrorResponse{Code: m.code, Message: m.message}
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			resp.ProductIDs = stockErr.ProductIDs
		}
		var sellerErr *domain.SellerNotAuthorizedError
		if errors.As(err, &sellerErr) {
			resp.SellerID = sellerErr.SellerID
			resp.Reason = sellerErr.Reason
		}
		if m.status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg(m.code)
		}
		return c.Status(m.status).JSON(resp)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func validation(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}
