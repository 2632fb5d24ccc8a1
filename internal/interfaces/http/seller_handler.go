package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Ventas-api/internal/application/authorization"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
)

// SellerHandler registro de autorización de vendedores. Las escrituras son de RRHH/admin.
type SellerHandler struct {
	uc  *authorization.SellerUseCase
	log zerolog.Logger
}

// NewSellerHandler construye el handler.
func NewSellerHandler(uc *authorization.SellerUseCase, log zerolog.Logger) *SellerHandler {
	return &SellerHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Registrar vendedor (queda pendiente de aprobación)
// @Tags         sellers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSellerRequest  true  "id, name, territory, commission_rate"
// @Success      201   {object}  dto.SellerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sellers [post]
func (h *SellerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSellerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get GET /api/sellers/:id
func (h *SellerHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Authorization GET /api/sellers/:id/authorization. Nunca falla: responde la decisión.
func (h *SellerHandler) Authorization(c *fiber.Ctx) error {
	return c.JSON(h.uc.Check(c.UserContext(), c.Params("id")))
}

// Approve POST /api/sellers/:id/approve
func (h *SellerHandler) Approve(c *fiber.Ctx) error {
	out, err := h.uc.Approve(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Revoke POST /api/sellers/:id/revoke
func (h *SellerHandler) Revoke(c *fiber.Ctx) error {
	out, err := h.uc.Revoke(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Deactivate POST /api/sellers/:id/deactivate
func (h *SellerHandler) Deactivate(c *fiber.Ctx) error {
	out, err := h.uc.Deactivate(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
