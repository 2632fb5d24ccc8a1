package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP de stock y movimientos (protegido).
type InventoryHandler struct {
	uc  *inventory.LedgerUseCase
	log zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, log: log}
}

// GetStock godoc
// @Summary      Stock actual de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.uc.StockDTO(c.UserContext(), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Availability godoc
// @Summary      Verificar disponibilidad
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true  "ID del producto"
// @Param        quantity   query  int     true  "Cantidad solicitada"
// @Success      200  {object}  dto.DisponibilidadInventario
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/availability [get]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	qty := c.QueryInt("quantity", 0)
	if qty <= 0 {
		return validation(c, "quantity debe ser mayor a cero")
	}
	out, err := h.uc.Disponibilidad(c.UserContext(), c.Params("productId"), qty)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateStock godoc
// @Summary      Registrar movimiento manual de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateStockRequest  true  "product_id, type (ENTRY|EXIT|ADJUSTMENT), quantity, reason"
// @Success      201   {object}  dto.StockUpdateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) UpdateStock(c *fiber.Ctx) error {
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ProductID == "" || in.Type == "" {
		return validation(c, "product_id y type son requeridos")
	}
	out, err := h.uc.UpdateStockFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// History GET /api/inventory/:productId/movements?from=&to= (RFC3339)
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return validation(c, "from debe estar en formato RFC3339")
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return validation(c, "to debe estar en formato RFC3339")
	}
	list, err := h.uc.HistoryDTO(c.UserContext(), c.Params("productId"), from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "movements": list})
}

// Alerts GET /api/inventory/alerts
func (h *InventoryHandler) Alerts(c *fiber.Ctx) error {
	list, err := h.uc.AlertsDTO(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "alerts": list})
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
