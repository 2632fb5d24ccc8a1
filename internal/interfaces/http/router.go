package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Ventas-api/internal/application/auth"
	"github.com/jhoicas/Ventas-api/internal/application/authorization"
	"github.com/jhoicas/Ventas-api/internal/application/customer"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/application/usecase"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	CustomerUC   *customer.CustomerUseCase
	ProductUC    *usecase.ProductUseCase
	SellerUC     *authorization.SellerUseCase
	Ledger       *inventory.LedgerUseCase
	Orchestrator *sales.Orchestrator
	Receipts     *sales.ReceiptUseCase
	Log          zerolog.Logger
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	const (
		admin     = entity.RoleAdmin
		bodeguero = entity.RoleBodeguero
		vendedor  = entity.RoleVendedor
		rrhh      = entity.RoleRRHH
	)
	jwtAuth := AuthMiddleware(deps.JWTSecret)

	// Auth: login público, registro solo admin
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register", jwtAuth, RequireRole(admin), authHandler.Register)

	// Products
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products := api.Group("/products", jwtAuth)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", RequireRole(admin, bodeguero), productHandler.Create)

	// Inventory: "/alerts" y "/movements" antes de "/:productId"
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Log)
	inv := api.Group("/inventory", jwtAuth)
	inv.Get("/alerts", inventoryHandler.Alerts)
	inv.Post("/movements", RequireRole(admin, bodeguero), inventoryHandler.UpdateStock)
	inv.Get("/:productId", inventoryHandler.GetStock)
	inv.Get("/:productId/availability", inventoryHandler.Availability)
	inv.Get("/:productId/movements", inventoryHandler.History)

	// Customers
	customerHandler := NewCustomerHandler(deps.CustomerUC, deps.Log)
	customers := api.Group("/customers", jwtAuth)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Post("/", RequireRole(admin, vendedor), customerHandler.Create)

	// Sales
	salesHandler := NewSalesHandler(deps.Orchestrator, deps.Receipts, deps.Log)
	salesGroup := api.Group("/sales", jwtAuth)
	salesGroup.Post("/calculate", salesHandler.Calculate)
	salesGroup.Post("/", RequireRole(admin, vendedor), salesHandler.Process)
	salesGroup.Get("/:id", salesHandler.GetByID)
	salesGroup.Get("/:id/receipt", salesHandler.Receipt)
	salesGroup.Post("/:id/discount", RequireRole(admin, vendedor), salesHandler.ApplyDiscount)
	salesGroup.Post("/:id/cancel", RequireRole(admin), salesHandler.Cancel)

	// Sellers: las escrituras son de RRHH
	sellerHandler := NewSellerHandler(deps.SellerUC, deps.Log)
	sellers := api.Group("/sellers", jwtAuth)
	sellers.Get("/:id", sellerHandler.Get)
	sellers.Get("/:id/authorization", sellerHandler.Authorization)
	sellers.Get("/:id/sales", salesHandler.ListBySeller)
	sellers.Post("/", RequireRole(admin, rrhh), sellerHandler.Create)
	sellers.Post("/:id/approve", RequireRole(admin, rrhh), sellerHandler.Approve)
	sellers.Post("/:id/revoke", RequireRole(admin, rrhh), sellerHandler.Revoke)
	sellers.Post("/:id/deactivate", RequireRole(admin, rrhh), sellerHandler.Deactivate)
}
