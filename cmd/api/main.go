package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Ventas-api/internal/application/auth"
	"github.com/jhoicas/Ventas-api/internal/application/authorization"
	"github.com/jhoicas/Ventas-api/internal/application/customer"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/application/usecase"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Ventas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Ventas-api/internal/interfaces/http"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
	"github.com/jhoicas/Ventas-api/pkg/metrics"
	"github.com/jhoicas/Ventas-api/pkg/tracing"
)

// txRunner transacciones de inventario y de ventas sobre el mismo almacenamiento.
type txRunner interface {
	inventory.TxRunner
	sales.SalesTxRunner
}

// storage repositorios de nivel raíz (fuera de transacción) del driver elegido.
type storage struct {
	tx        txRunner
	users     repository.UserRepository
	products  repository.ProductRepository
	stock     repository.StockRepository
	movements repository.InventoryMovementRepository
	sellers   repository.SellerRepository
	customers repository.CustomerRepository
	sales     repository.SaleRepository
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{
			tx:        memory.NewTxRunner(store),
			users:     memory.NewUserRepository(store),
			products:  memory.NewProductRepository(store),
			stock:     memory.NewStockRepository(store),
			movements: memory.NewInventoryMovementRepository(store),
			sellers:   memory.NewSellerRepository(store),
			customers: memory.NewCustomerRepository(store),
			sales:     memory.NewSaleRepository(store),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		tx:        postgres.NewTxRunner(pool),
		users:     postgres.NewUserRepository(pool),
		products:  postgres.NewProductRepository(pool),
		stock:     postgres.NewStockRepository(pool),
		movements: postgres.NewInventoryMovementRepository(pool),
		sellers:   postgres.NewSellerRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		sales:     postgres.NewSaleRepository(pool),
		close:     pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("tax_rate", cfg.Sales.TaxRate.String()).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer st.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	salesMetrics := metrics.NewSales(registry)

	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))
	if err := authUC.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("administrador inicial")
	}

	ledger := inventory.NewLedgerUseCase(st.tx, st.stock, st.movements, st.products, log.Zerolog())
	oracle := authorization.NewOracle(st.sellers, log.Zerolog())
	sellerUC := authorization.NewSellerUseCase(st.sellers, oracle, log.Component("sellers"))
	customerUC := customer.NewCustomerUseCase(st.customers)
	productUC := usecase.NewProductUseCase(st.tx, st.products, st.stock)

	orchestrator, err := sales.NewOrchestrator(sales.Deps{
		TxRunner:    st.tx,
		SaleRepo:    st.sales,
		ProductRepo: st.products,
		Ledger:      ledger,
		Oracle:      oracle,
		Customers:   customerUC,
		Metrics:     salesMetrics,
	}, sales.Config{
		TaxRate:             cfg.Sales.TaxRate,
		CompensationRetries: cfg.Sales.CompensationRetries,
		CompensationBackoff: 50 * time.Millisecond,
	}, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("orquestador de ventas")
	}

	// PDF: comprobante de venta
	receipts := sales.NewReceiptUseCase(orchestrator, st.customers, st.sellers, st.products,
		infrapdf.NewReceiptGenerator(cfg.App.Name, cfg.App.IssuerTaxID))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Ventas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		CustomerUC:   customerUC,
		ProductUC:    productUC,
		SellerUC:     sellerUC,
		Ledger:       ledger,
		Orchestrator: orchestrator,
		Receipts:     receipts,
		Log:          log.Component("http"),
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cerrar exportador de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
