package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/authorization"
	"github.com/jhoicas/Ventas-api/internal/application/customer"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/pkg/metrics"
)

// ─── Fixture ────────────────────────────────────────────────────────────────

type fixture struct {
	store   *memory.Store
	ledger  *inventory.LedgerUseCase
	orch    *sales.Orchestrator
	metrics *metrics.Sales
}

type option func(*sales.Deps)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledger := inventory.NewLedgerUseCase(
		memory.NewTxRunner(store),
		memory.NewStockRepository(store),
		memory.NewInventoryMovementRepository(store),
		memory.NewProductRepository(store),
		zerolog.Nop(),
	)
	m := metrics.NewSales(prometheus.NewRegistry())
	deps := sales.Deps{
		TxRunner:    memory.NewTxRunner(store),
		SaleRepo:    memory.NewSaleRepository(store),
		ProductRepo: memory.NewProductRepository(store),
		Ledger:      ledger,
		Oracle:      authorization.NewOracle(memory.NewSellerRepository(store), zerolog.Nop()),
		Customers:   customer.NewCustomerUseCase(memory.NewCustomerRepository(store)),
		Metrics:     m,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	orch, err := sales.NewOrchestrator(deps, sales.Config{
		TaxRate:             decimal.RequireFromString("0.19"),
		CompensationRetries: 3,
	}, zerolog.Nop())
	require.NoError(t, err)

	f := &fixture{store: store, ledger: ledger, orch: orch, metrics: m}
	f.seedSeller(t, "V001", true, true)
	f.seedSeller(t, "V006", false, true)
	require.NoError(t, memory.NewCustomerRepository(store).Create(context.Background(), &entity.Customer{
		ID: "C001", Name: "Cliente Uno", TaxID: "900100200",
	}))
	return f
}

func (f *fixture) seedSeller(t *testing.T, id string, authorized, active bool) {
	t.Helper()
	require.NoError(t, memory.NewSellerRepository(f.store).Create(context.Background(), &entity.Seller{
		ID: id, Name: "Vendedor " + id, Authorized: authorized, Active: active,
	}))
}

func (f *fixture) seedProduct(t *testing.T, id string, price string, qty, minStock int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, memory.NewProductRepository(f.store).Create(ctx, &entity.Product{
		ID: id, SKU: id, Name: "Producto " + id, Price: decimal.RequireFromString(price), Active: true,
	}))
	require.NoError(t, memory.NewStockRepository(f.store).Create(ctx, &entity.ProductStock{
		ProductID: id, Quantity: qty, MinStock: minStock,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	st, err := memory.NewStockRepository(f.store).Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, st)
	return st.Quantity
}

func (f *fixture) movements(t *testing.T, productID string) []*entity.InventoryMovement {
	t.Helper()
	list, err := memory.NewInventoryMovementRepository(f.store).ListByProduct(context.Background(), productID, nil, nil)
	require.NoError(t, err)
	return list
}

func (f *fixture) salesOf(t *testing.T, sellerID string) []*entity.Sale {
	t.Helper()
	list, err := f.orch.GetSalesBySeller(context.Background(), sellerID)
	require.NoError(t, err)
	return list
}

func line(productID string, qty int) sales.LineInput {
	return sales.LineInput{ProductID: productID, Quantity: qty}
}

// ─── ProcessSale ────────────────────────────────────────────────────────────

func TestProcessSale_EscenarioA(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P", "1000", 10, 2)
	ctx := context.Background()

	a, err := f.ledger.CheckAvailability(ctx, "P", 5)
	require.NoError(t, err)
	assert.True(t, a.AvailableForSale)
	assert.Equal(t, 10, a.AvailableStock)

	sale, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P", 5)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusProcessed, sale.Status)
	assert.Equal(t, 5, f.stock(t, "P"))

	movs := f.movements(t, "P")
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeEXIT, movs[0].Type)
	assert.Equal(t, -5, movs[0].Quantity)
	assert.Equal(t, 10, movs[0].StockBefore)
	assert.Equal(t, 5, movs[0].StockAfter)
	assert.Equal(t, sale.ID, movs[0].Reference)
	assert.Equal(t, "V001", movs[0].CreatedBy)
	assert.Equal(t, "Venta "+sale.ID, movs[0].Reason)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Processed.WithLabelValues(metrics.OutcomeProcessed)))
}

func TestProcessSale_EscenarioB_VendedorNoAutorizado(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)
	f.seedProduct(t, "P2", "2000", 4, 0)

	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V006", Items: []sales.LineInput{line("P1", 1), line("P2", 1)},
	})
	require.ErrorIs(t, err, domain.ErrSellerNotAuthorized)

	var authErr *domain.SellerNotAuthorizedError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "V006", authErr.SellerID)
	assert.Equal(t, authorization.ReasonNotAuthorized, authErr.Reason)

	assert.Empty(t, f.salesOf(t, "V006"))
	assert.Empty(t, f.movements(t, "P1"))
	assert.Empty(t, f.movements(t, "P2"))
	assert.Equal(t, 10, f.stock(t, "P1"))
	assert.Equal(t, 4, f.stock(t, "P2"))
}

func TestProcessSale_VendedorInactivoOInexistente(t *testing.T) {
	f := newFixture(t)
	f.seedSeller(t, "V010", true, false)
	f.seedProduct(t, "P1", "1000", 10, 0)

	for _, sellerID := range []string{"V010", "V404"} {
		_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
			CustomerID: "C001", SellerID: sellerID, Items: []sales.LineInput{line("P1", 1)},
		})
		assert.ErrorIs(t, err, domain.ErrSellerNotAuthorized, sellerID)
	}
	assert.Equal(t, 10, f.stock(t, "P1"))
}

func TestProcessSale_ClienteInexistente(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)

	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C404", SellerID: "V001", Items: []sales.LineInput{line("P1", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.Equal(t, 10, f.stock(t, "P1"))
	assert.Empty(t, f.movements(t, "P1"))
}

func TestProcessSale_StockInsuficienteNombraTodosLosProductos(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 2, 0)
	f.seedProduct(t, "P2", "1000", 10, 0)
	f.seedProduct(t, "P3", "1000", 0, 0)

	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001",
		Items: []sales.LineInput{line("P1", 3), line("P2", 1), line("P3", 1)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, []string{"P1", "P3"}, stockErr.ProductIDs)

	assert.Empty(t, f.salesOf(t, "V001"))
	for _, id := range []string{"P1", "P2", "P3"} {
		assert.Empty(t, f.movements(t, id), id)
	}
	assert.Equal(t, 2, f.stock(t, "P1"))
	assert.Equal(t, 10, f.stock(t, "P2"))
}

func TestProcessSale_LineasRepetidasSeSumanEnLaVerificacion(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 5, 0)

	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 3), line("P1", 3)},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, f.stock(t, "P1"))
}

func TestProcessSale_TotalesConImpuesto(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "12500.50", 10, 0)
	f.seedProduct(t, "P2", "9500", 10, 0)

	sale, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001",
		Items: []sales.LineInput{
			{ProductID: "P1", Quantity: 2, Discount: decimal.RequireFromString("500")},
			{ProductID: "P2", Quantity: 1, UnitPrice: decimal.RequireFromString("10000")},
		},
	})
	require.NoError(t, err)

	// (2×12500.50 − 500) + 10000 = 34501; IVA 19% = 6555.19
	assert.Equal(t, "34501.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "6555.19", sale.TaxTotal.StringFixed(2))
	assert.Equal(t, "41056.19", sale.Total.StringFixed(2))

	sum := decimal.Zero
	for _, it := range sale.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Sub(it.Discount))
	}
	expected := sum.Mul(decimal.RequireFromString("1.19"))
	assert.True(t, expected.Sub(sale.Total).Abs().LessThanOrEqual(decimal.RequireFromString("0.005")))

	stored, err := f.orch.GetSaleByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(sale.Total))
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "12500.50", stored.Items[0].UnitPrice.StringFixed(2))
}

func TestProcessSale_EntradasInvalidas(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)
	ctx := context.Background()

	cases := []sales.ProcessSaleInput{
		{CustomerID: "C001", SellerID: "V001"},
		{CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 0)}},
		{CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("", 1)}},
		{CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{
			{ProductID: "P1", Quantity: 1, Discount: decimal.RequireFromString("5000")},
		}},
	}
	for _, in := range cases {
		_, err := f.orch.ProcessSale(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", in)
	}
	assert.Equal(t, 10, f.stock(t, "P1"))
}

func TestProcessSale_PrecioConFraccionDeCentavo(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)
	ctx := context.Background()

	_, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{
			{ProductID: "P1", Quantity: 3, UnitPrice: decimal.RequireFromString("0.335")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 10, f.stock(t, "P1"))
	assert.Empty(t, f.movements(t, "P1"))

	_, err = f.orch.CalculateSaleTotal(ctx, []sales.LineInput{
		{ProductID: "P1", Quantity: 3, UnitPrice: decimal.RequireFromString("0.335")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcessSale_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("NOPE", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

// ─── Concurrencia ───────────────────────────────────────────────────────────

func TestProcessSale_ConcurrenciaUltimaUnidad(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 1, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
				CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 1)},
			})
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, f.stock(t, "P1"))
	assert.Len(t, f.salesOf(t, "V001"), 1)
}

func TestProcessSale_ConcurrenciaLibroCuadra(t *testing.T) {
	const initial = 20
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", initial, 0)
	f.seedProduct(t, "P2", "500", initial, 0)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
				CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 1), line("P2", 1)},
			})
		}()
	}
	wg.Wait()

	for _, id := range []string{"P1", "P2"} {
		sum := 0
		for _, m := range f.movements(t, id) {
			sum += m.Quantity
		}
		assert.GreaterOrEqual(t, f.stock(t, id), 0)
		assert.Equal(t, f.stock(t, id), initial+sum, id)
	}

	sold := 0
	for _, s := range f.salesOf(t, "V001") {
		sold += s.Items[0].Quantity
	}
	assert.Equal(t, initial-f.stock(t, "P1"), sold)
}

// ─── Saga ───────────────────────────────────────────────────────────────────

// staleLedger reporta disponibilidad aunque no la haya, como si otra venta
// consumiera el stock entre la verificación y el descuento.
type staleLedger struct {
	*inventory.LedgerUseCase
}

func (l staleLedger) CheckAvailability(_ context.Context, productID string, qty int) (*inventory.Availability, error) {
	return &inventory.Availability{ProductID: productID, RequestedQuantity: qty, AvailableForSale: true}, nil
}

func TestProcessSale_CarreraCompensaLineasAplicadas(t *testing.T) {
	var ledger *inventory.LedgerUseCase
	f := newFixture(t, func(d *sales.Deps) {
		ledger = d.Ledger.(*inventory.LedgerUseCase)
		d.Ledger = staleLedger{ledger}
	})
	f.seedProduct(t, "P1", "1000", 10, 0)
	f.seedProduct(t, "P2", "1000", 1, 0)

	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 4), line("P2", 2)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, []string{"P2"}, stockErr.ProductIDs)

	assert.Equal(t, 10, f.stock(t, "P1"))
	assert.Equal(t, 1, f.stock(t, "P2"))
	assert.Empty(t, f.salesOf(t, "V001"))

	movs := f.movements(t, "P1")
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeENTRY, movs[0].Type)
	assert.Equal(t, 4, movs[0].Quantity)
	assert.Equal(t, sales.SystemActor, movs[0].CreatedBy)
	assert.Equal(t, movs[1].Reference, movs[0].Reference)
	assert.Empty(t, f.movements(t, "P2"))

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Processed.WithLabelValues(metrics.OutcomeCompensated)))
}

// failingPersistRunner deja pasar las transacciones pero la escritura de la venta falla.
type failingPersistRunner struct {
	inner *memory.TxRunner
}

func (r failingPersistRunner) RunSales(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.inner.RunSales(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		return fn(movRepo, stockRepo, productRepo, failingSaleRepo{saleRepo})
	})
}

type failingSaleRepo struct {
	repository.SaleRepository
}

func (failingSaleRepo) Create(context.Context, *entity.Sale) error {
	return errors.New("conexión perdida")
}

func TestProcessSale_FallaAlPersistirCompensaTodo(t *testing.T) {
	f := newFixture(t, func(d *sales.Deps) {
		d.TxRunner = failingPersistRunner{inner: d.TxRunner.(*memory.TxRunner)}
	})
	f.seedProduct(t, "P1", "1000", 10, 0)
	f.seedProduct(t, "P2", "1000", 5, 0)

	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 3), line("P2", 2)},
	})
	require.ErrorIs(t, err, domain.ErrInternal)

	assert.Equal(t, 10, f.stock(t, "P1"))
	assert.Equal(t, 5, f.stock(t, "P2"))
	assert.Empty(t, f.salesOf(t, "V001"))
	assert.Len(t, f.movements(t, "P1"), 2)
	assert.Len(t, f.movements(t, "P2"), 2)

	// Las compensaciones corren en orden inverso: P2 se restaura antes que P1
	p1 := f.movements(t, "P1")[0]
	p2 := f.movements(t, "P2")[0]
	assert.False(t, p2.CreatedAt.After(p1.CreatedAt))
}

// brokenRestoreLedger no puede aplicar entradas: la compensación nunca completa.
type brokenRestoreLedger struct {
	*inventory.LedgerUseCase
	mu       sync.Mutex
	attempts int
}

func (l *brokenRestoreLedger) ApplyMovement(ctx context.Context, in inventory.MovementInput) (*inventory.MovementResult, error) {
	if in.Type == entity.MovementTypeENTRY {
		l.mu.Lock()
		l.attempts++
		l.mu.Unlock()
		return nil, errors.New("almacenamiento no disponible")
	}
	return l.LedgerUseCase.ApplyMovement(ctx, in)
}

func TestProcessSale_CompensacionFallidaReportaEstadoInconsistente(t *testing.T) {
	broken := &brokenRestoreLedger{}
	f := newFixture(t, func(d *sales.Deps) {
		d.TxRunner = failingPersistRunner{inner: d.TxRunner.(*memory.TxRunner)}
		broken.LedgerUseCase = d.Ledger.(*inventory.LedgerUseCase)
		d.Ledger = broken
	})
	f.seedProduct(t, "P1", "1000", 10, 0)

	_, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 3)},
	})
	require.ErrorIs(t, err, domain.ErrInconsistentState)
	assert.Equal(t, 3, broken.attempts, "un intento por reintento configurado")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Processed.WithLabelValues(metrics.OutcomeInconsistentState)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("failed")))
}

// ─── CalculateSaleTotal ─────────────────────────────────────────────────────

func TestCalculateSaleTotal_NoPersiste(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "100", 1, 0)

	res, err := f.orch.CalculateSaleTotal(context.Background(), []sales.LineInput{line("P1", 3)})
	require.NoError(t, err)
	assert.Equal(t, "300.00", res.Subtotal.StringFixed(2))
	assert.Equal(t, "57.00", res.Tax.StringFixed(2))
	assert.Equal(t, "357.00", res.Total.StringFixed(2))

	assert.Equal(t, 1, f.stock(t, "P1"))
	assert.Empty(t, f.movements(t, "P1"))
}

func TestCalculateSaleTotal_TasaConfigurable(t *testing.T) {
	store := memory.NewStore()
	orch, err := sales.NewOrchestrator(sales.Deps{ProductRepo: memory.NewProductRepository(store)}, sales.Config{
		TaxRate: decimal.RequireFromString("0.05"),
	}, zerolog.Nop())
	require.NoError(t, err)

	res, err := orch.CalculateSaleTotal(context.Background(), []sales.LineInput{
		{ProductID: "X", Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
	})
	require.NoError(t, err)
	assert.Equal(t, "105.00", res.Total.StringFixed(2))
}

func TestNewOrchestrator_TasaNegativa(t *testing.T) {
	_, err := sales.NewOrchestrator(sales.Deps{}, sales.Config{TaxRate: decimal.RequireFromString("-0.19")}, zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─── ApplyDiscount ──────────────────────────────────────────────────────────

func TestApplyDiscount_RestaDelTotalYAgregaNota(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)
	ctx := context.Background()

	sale, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 2)}, Notes: "Entrega en tienda",
	})
	require.NoError(t, err)
	assert.Equal(t, "2380.00", sale.Total.StringFixed(2))

	updated, err := f.orch.ApplyDiscount(ctx, sale.ID, decimal.RequireFromString("380"), "cliente frecuente")
	require.NoError(t, err)
	assert.Equal(t, "2000.00", updated.Total.StringFixed(2))
	assert.Contains(t, updated.Notes, "Entrega en tienda")
	assert.Contains(t, updated.Notes, "Descuento 380.00: cliente frecuente")

	stored, err := f.orch.GetSaleByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "2000.00", stored.Total.StringFixed(2))
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, 8, f.stock(t, "P1"), "el descuento no toca inventario")
}

func TestApplyDiscount_VentaAnuladaEsEstadoInvalido(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)
	ctx := context.Background()

	sale, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 1)},
	})
	require.NoError(t, err)
	_, err = f.orch.CancelSale(ctx, sale.ID, "error de digitación")
	require.NoError(t, err)

	_, err = f.orch.ApplyDiscount(ctx, sale.ID, decimal.NewFromInt(10), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidSaleState)
}

func TestApplyDiscount_MontoInvalido(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)
	ctx := context.Background()

	sale, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 1)},
	})
	require.NoError(t, err)

	for _, amount := range []string{"0", "-5", "5000", "0.001", "10.125"} {
		_, err = f.orch.ApplyDiscount(ctx, sale.ID, decimal.RequireFromString(amount), "x")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, amount)
	}

	_, err = f.orch.ApplyDiscount(ctx, "S404", decimal.NewFromInt(1), "x")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

// ─── CancelSale ─────────────────────────────────────────────────────────────

func TestCancelSale_EscenarioC(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 7, 0)
	f.seedProduct(t, "P2", "2000", 8, 0)
	ctx := context.Background()

	require.NoError(t, memory.NewSaleRepository(f.store).Create(ctx, &entity.Sale{
		ID: "S001", Date: time.Now(), CustomerID: "C001", SellerID: "V001",
		Status: entity.SaleStatusProcessed, Total: decimal.NewFromInt(8330),
		Items: []entity.SaleItem{
			{ProductID: "P1", Quantity: 3, UnitPrice: decimal.NewFromInt(1000), Subtotal: decimal.NewFromInt(3000)},
			{ProductID: "P2", Quantity: 2, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(4000)},
		},
	}))

	cancelled, err := f.orch.CancelSale(ctx, "S001", "customer return")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, cancelled.Status)
	assert.Equal(t, "customer return", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)

	byRef, err := memory.NewInventoryMovementRepository(f.store).ListByReference(ctx, "S001")
	require.NoError(t, err)
	require.Len(t, byRef, 2)
	qty := map[string]int{}
	for _, m := range byRef {
		assert.Equal(t, entity.MovementTypeENTRY, m.Type)
		assert.Equal(t, sales.SystemActor, m.CreatedBy)
		assert.Equal(t, "Anulación S001 - customer return", m.Reason)
		qty[m.ProductID] = m.Quantity
	}
	assert.Equal(t, map[string]int{"P1": 3, "P2": 2}, qty)
	assert.Equal(t, 10, f.stock(t, "P1"))
	assert.Equal(t, 10, f.stock(t, "P2"))

	stored, err := f.orch.GetSaleByID(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, stored.Status)

	_, err = f.orch.CancelSale(ctx, "S001", "otra vez")
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	byRef, err = memory.NewInventoryMovementRepository(f.store).ListByReference(ctx, "S001")
	require.NoError(t, err)
	assert.Len(t, byRef, 2)
}

func TestCancelSale_RestauraStockPrevio(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "P1", "1000", 10, 0)
	f.seedProduct(t, "P2", "500", 6, 0)
	ctx := context.Background()

	sale, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P2", 6), line("P1", 4)},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock(t, "P1"))
	assert.Equal(t, 0, f.stock(t, "P2"))

	_, err = f.orch.CancelSale(ctx, sale.ID, "devolución")
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t, "P1"))
	assert.Equal(t, 6, f.stock(t, "P2"))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Cancelled))
}

func TestCancelSale_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.CancelSale(context.Background(), "S404", "x")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

// failingUpdateRunner hace fallar la actualización de la venta dentro de la anulación.
type failingUpdateRunner struct {
	inner *memory.TxRunner
	mu    sync.Mutex
	calls int
}

func (r *failingUpdateRunner) RunSales(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.inner.RunSales(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		return fn(movRepo, stockRepo, productRepo, failingUpdateSaleRepo{SaleRepository: saleRepo, r: r})
	})
}

type failingUpdateSaleRepo struct {
	repository.SaleRepository
	r *failingUpdateRunner
}

func (s failingUpdateSaleRepo) Update(context.Context, *entity.Sale) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.calls++
	return errors.New("deadlock detectado")
}

func TestCancelSale_FallaTransitoriaNoDejaStockParcial(t *testing.T) {
	runner := &failingUpdateRunner{}
	f := newFixture(t, func(d *sales.Deps) {
		runner.inner = d.TxRunner.(*memory.TxRunner)
	})
	f.seedProduct(t, "P1", "1000", 10, 0)
	ctx := context.Background()

	sale, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 4)},
	})
	require.NoError(t, err)

	broken, err := sales.NewOrchestrator(sales.Deps{
		TxRunner:    runner,
		SaleRepo:    memory.NewSaleRepository(f.store),
		ProductRepo: memory.NewProductRepository(f.store),
		Ledger:      f.ledger,
	}, sales.Config{TaxRate: decimal.RequireFromString("0.19"), CompensationRetries: 2}, zerolog.Nop())
	require.NoError(t, err)

	_, err = broken.CancelSale(ctx, sale.ID, "x")
	require.ErrorIs(t, err, domain.ErrInternal)
	assert.Equal(t, 2, runner.calls, "se reintenta la anulación completa")

	assert.Equal(t, 6, f.stock(t, "P1"), "la restauración se revierte con la transacción")
	stored, err := f.orch.GetSaleByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusProcessed, stored.Status)
	assert.Len(t, f.movements(t, "P1"), 1)
}

func TestCancelSale_EsperaEntreReintentosRespetaContexto(t *testing.T) {
	runner := &failingUpdateRunner{}
	f := newFixture(t, func(d *sales.Deps) {
		runner.inner = d.TxRunner.(*memory.TxRunner)
	})
	f.seedProduct(t, "P1", "1000", 10, 0)

	sale, err := f.orch.ProcessSale(context.Background(), sales.ProcessSaleInput{
		CustomerID: "C001", SellerID: "V001", Items: []sales.LineInput{line("P1", 4)},
	})
	require.NoError(t, err)

	broken, err := sales.NewOrchestrator(sales.Deps{
		TxRunner:    runner,
		SaleRepo:    memory.NewSaleRepository(f.store),
		ProductRepo: memory.NewProductRepository(f.store),
		Ledger:      f.ledger,
	}, sales.Config{
		TaxRate:             decimal.RequireFromString("0.19"),
		CompensationRetries: 3,
		CompensationBackoff: time.Minute,
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = broken.CancelSale(ctx, sale.ID, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second, "la espera se corta con el contexto")
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 6, f.stock(t, "P1"))
}

// ─── Consultas ──────────────────────────────────────────────────────────────

func TestGetSalesBySeller(t *testing.T) {
	f := newFixture(t)
	f.seedSeller(t, "V002", true, true)
	f.seedProduct(t, "P1", "1000", 10, 0)
	ctx := context.Background()

	for _, seller := range []string{"V001", "V001", "V002"} {
		_, err := f.orch.ProcessSale(ctx, sales.ProcessSaleInput{
			CustomerID: "C001", SellerID: seller, Items: []sales.LineInput{line("P1", 1)},
		})
		require.NoError(t, err)
	}

	assert.Len(t, f.salesOf(t, "V001"), 2)
	assert.Len(t, f.salesOf(t, "V002"), 1)
	assert.NotNil(t, f.salesOf(t, "V999"))
	assert.Empty(t, f.salesOf(t, "V999"))

	_, err := f.orch.GetSaleByID(ctx, "S404")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}
