package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
)

// SalesHandler maneja las peticiones HTTP de ventas (protegido).
type SalesHandler struct {
	orch     *sales.Orchestrator
	receipts *sales.ReceiptUseCase
	log      zerolog.Logger
}

// NewSalesHandler construye el handler.
func NewSalesHandler(orch *sales.Orchestrator, receipts *sales.ReceiptUseCase, log zerolog.Logger) *SalesHandler {
	return &SalesHandler{orch: orch, receipts: receipts, log: log}
}

// Process godoc
// @Summary      Procesar venta
// @Description  Si algún paso falla el inventario queda como estaba.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProcessSaleRequest  true  "customer_id, seller_id, items"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse  "SELLER_NOT_AUTHORIZED"
// @Failure      404   {object}  dto.ErrorResponse  "CUSTOMER_NOT_FOUND / PRODUCT_NOT_FOUND"
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con product_ids"
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SalesHandler) Process(c *fiber.Ctx) error {
	var in dto.ProcessSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.CustomerID == "" || in.SellerID == "" {
		return validation(c, "customer_id y seller_id son requeridos")
	}
	if len(in.Items) == 0 {
		return validation(c, "la venta debe tener al menos una línea")
	}
	out, err := h.orch.ProcessSaleFromRequest(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Calculate godoc
// @Summary      Calcular totales sin registrar la venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CalculateTotalRequest  true  "items"
// @Success      200   {object}  dto.SaleTotalResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales/calculate [post]
func (h *SalesHandler) Calculate(c *fiber.Ctx) error {
	var in dto.CalculateTotalRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.orch.CalculateFromRequest(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SalesHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.orch.GetSaleByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(sales.ToSaleResponse(sale))
}

// Receipt GET /api/sales/:id/receipt → PDF
func (h *SalesHandler) Receipt(c *fiber.Ctx) error {
	pdf, filename, err := h.receipts.Download(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

// ApplyDiscount godoc
// @Summary      Aplicar descuento a una venta procesada
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la venta"
// @Param        body  body  dto.ApplyDiscountRequest  true  "amount, reason"
// @Success      200   {object}  dto.SaleResponse
// @Failure      404   {object}  dto.ErrorResponse  "SALE_NOT_FOUND"
// @Failure      409   {object}  dto.ErrorResponse  "INVALID_SALE_STATE"
// @Router       /api/sales/{id}/discount [post]
func (h *SalesHandler) ApplyDiscount(c *fiber.Ctx) error {
	var in dto.ApplyDiscountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sale, err := h.orch.ApplyDiscount(c.UserContext(), c.Params("id"), in.Amount, in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(sales.ToSaleResponse(sale))
}

// Cancel godoc
// @Summary      Anular venta y devolver el stock
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la venta"
// @Param        body  body  dto.CancelSaleRequest  true  "reason"
// @Success      200   {object}  dto.CancelSaleResponse
// @Failure      404   {object}  dto.ErrorResponse  "SALE_NOT_FOUND"
// @Failure      409   {object}  dto.ErrorResponse  "ALREADY_CANCELLED"
// @Router       /api/sales/{id}/cancel [post]
func (h *SalesHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Reason == "" {
		return validation(c, "reason es requerido")
	}
	sale, err := h.orch.CancelSale(c.UserContext(), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CancelSaleResponse{Cancelled: true, SaleID: sale.ID, Status: sale.Status})
}

// ListBySeller GET /api/sellers/:id/sales
func (h *SalesHandler) ListBySeller(c *fiber.Ctx) error {
	list, err := h.orch.GetSalesBySeller(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]*dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, sales.ToSaleResponse(s))
	}
	return c.JSON(fiber.Map{"total": len(out), "sales": out})
}
