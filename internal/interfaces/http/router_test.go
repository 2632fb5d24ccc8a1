package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/auth"
	"github.com/jhoicas/Ventas-api/internal/application/authorization"
	"github.com/jhoicas/Ventas-api/internal/application/customer"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/application/usecase"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Ventas-api/internal/interfaces/http"
)

// ─── Fixture ────────────────────────────────────────────────────────────────

type fakePDF struct{}

func (fakePDF) RenderReceipt(_ context.Context, r sales.Receipt) ([]byte, error) {
	return []byte("%PDF-1.4 " + r.Sale.ID), nil
}

type api struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)

	productRepo := memory.NewProductRepository(store)
	stockRepo := memory.NewStockRepository(store)
	sellerRepo := memory.NewSellerRepository(store)
	customerRepo := memory.NewCustomerRepository(store)

	ledger := inventory.NewLedgerUseCase(runner, stockRepo, memory.NewInventoryMovementRepository(store), productRepo, log)
	oracle := authorization.NewOracle(sellerRepo, log)
	customers := customer.NewCustomerUseCase(customerRepo)
	orch, err := sales.NewOrchestrator(sales.Deps{
		TxRunner:    runner,
		SaleRepo:    memory.NewSaleRepository(store),
		ProductRepo: productRepo,
		Ledger:      ledger,
		Oracle:      oracle,
		Customers:   customers,
	}, sales.Config{TaxRate: decimal.RequireFromString("0.19"), CompensationRetries: 3}, log)
	require.NoError(t, err)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:       auth.NewAuthUseCase(memory.NewUserRepository(store), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, log),
		CustomerUC:   customers,
		ProductUC:    usecase.NewProductUseCase(runner, productRepo, stockRepo),
		SellerUC:     authorization.NewSellerUseCase(sellerRepo, oracle, log),
		Ledger:       ledger,
		Orchestrator: orch,
		Receipts:     sales.NewReceiptUseCase(orch, customerRepo, sellerRepo, productRepo, fakePDF{}),
		Log:          log,
		JWTSecret:    testJWTSecret,
	})

	require.NoError(t, sellerRepo.Create(ctx, &entity.Seller{ID: "V001", Name: "Ana", Authorized: true, Active: true}))
	require.NoError(t, sellerRepo.Create(ctx, &entity.Seller{ID: "V006", Name: "Luis", Authorized: false, Active: true}))
	require.NoError(t, customerRepo.Create(ctx, &entity.Customer{ID: "C001", Name: "Cliente Uno", TaxID: "900100200"}))
	for _, p := range []struct {
		id, price string
		qty       int
	}{{"P1", "1000", 5}, {"P2", "500", 1}} {
		require.NoError(t, productRepo.Create(ctx, &entity.Product{ID: p.id, SKU: p.id, Name: "Producto " + p.id, Price: decimal.RequireFromString(p.price), Active: true}))
		require.NoError(t, stockRepo.Create(ctx, &entity.ProductStock{ProductID: p.id, Quantity: p.qty}))
	}
	return &api{app: app, store: store}
}

func (a *api) do(t *testing.T, method, path, role string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func saleBody(seller string, items ...dto.SaleItemRequest) dto.ProcessSaleRequest {
	return dto.ProcessSaleRequest{CustomerID: "C001", SellerID: seller, Items: items}
}

func item(productID string, qty int) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: productID, Quantity: qty}
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

// ─── Ventas ─────────────────────────────────────────────────────────────────

func TestPostSales_Creada(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V001", item("P1", 3)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(raw, &sale))
	assert.Equal(t, entity.SaleStatusProcessed, sale.Status)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("3570")), sale.Total.String())
	require.Len(t, sale.Items, 1)

	resp, raw = a.do(t, http.MethodGet, "/api/inventory/P1", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Equal(t, 2, st.Quantity)
}

func TestPostSales_VendedorNoAutorizado_403(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V006", item("P1", 1)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "SELLER_NOT_AUTHORIZED", e.Code)
	assert.Equal(t, "V006", e.SellerID)
	assert.NotEmpty(t, e.Reason, "el motivo del rechazo llega al cliente")
}

func TestPostSales_StockInsuficiente_409ConProductos(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V001", item("P1", 1), item("P2", 2)))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.Equal(t, []string{"P2"}, e.ProductIDs)

	_, raw = a.do(t, http.MethodGet, "/api/inventory/P1", "vendedor", nil)
	var st dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Equal(t, 5, st.Quantity, "la venta rechazada no toca inventario")
}

func TestPostSales_ClienteInexistente_404(t *testing.T) {
	a := newAPI(t)
	body := saleBody("V001", item("P1", 1))
	body.CustomerID = "C999"
	resp, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", decodeError(t, raw).Code)
}

func TestPostSales_SinLineas_400(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V001"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)
}

func TestPostSales_BodegueroNoVende(t *testing.T) {
	a := newAPI(t)
	resp, _ := a.do(t, http.MethodPost, "/api/sales", "bodeguero", saleBody("V001", item("P1", 1)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPostCalculate_NoPersiste(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodPost, "/api/sales/calculate", "vendedor",
		dto.CalculateTotalRequest{Items: []dto.SaleItemRequest{item("P1", 2)}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.SaleTotalResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Total.Equal(decimal.RequireFromString("2380")), out.Total.String())

	_, raw = a.do(t, http.MethodGet, "/api/sellers/V001/sales", "vendedor", nil)
	assert.Contains(t, string(raw), `"total":0`)
}

func TestGetSale_NoExiste_404(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodGet, "/api/sales/nope", "vendedor", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SALE_NOT_FOUND", decodeError(t, raw).Code)
}

func TestCancelSale_DevuelveStockYRechazaSegundaAnulacion(t *testing.T) {
	a := newAPI(t)
	_, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V001", item("P1", 2)))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(raw, &sale))

	resp, _ := a.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", "vendedor", dto.CancelSaleRequest{Reason: "devolución"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin anula")

	resp, raw = a.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", "admin", dto.CancelSaleRequest{Reason: "devolución"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.CancelSaleResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Cancelled)
	assert.Equal(t, entity.SaleStatusCancelled, out.Status)

	resp, raw = a.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", "admin", dto.CancelSaleRequest{Reason: "otra vez"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_CANCELLED", decodeError(t, raw).Code)

	_, raw = a.do(t, http.MethodGet, "/api/inventory/P1", "admin", nil)
	var st dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Equal(t, 5, st.Quantity)
}

func TestDiscount_VentaAnulada_409(t *testing.T) {
	a := newAPI(t)
	_, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V001", item("P1", 1)))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(raw, &sale))
	a.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", "admin", dto.CancelSaleRequest{Reason: "error"})

	resp, raw := a.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/discount", "vendedor",
		dto.ApplyDiscountRequest{Amount: decimal.NewFromInt(100), Reason: "fidelidad"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_SALE_STATE", decodeError(t, raw).Code)
}

func TestReceipt_DevuelvePDF(t *testing.T) {
	a := newAPI(t)
	_, raw := a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V001", item("P1", 1)))
	var sale dto.SaleResponse
	require.NoError(t, json.Unmarshal(raw, &sale))

	resp, raw := a.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/receipt", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "venta-"+sale.ID+".pdf")
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

// ─── Inventario y vendedores ────────────────────────────────────────────────

func TestAvailability_CantidadInvalida_400(t *testing.T) {
	a := newAPI(t)
	resp, _ := a.do(t, http.MethodGet, "/api/inventory/P1/availability?quantity=0", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw := a.do(t, http.MethodGet, "/api/inventory/P1/availability?quantity=6", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.DisponibilidadInventario
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.False(t, out.AvailableForSale)
	assert.Equal(t, 5, out.CurrentStock)
}

func TestAlerts_NoSeConfundeConProductId(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodGet, "/api/inventory/alerts", "bodeguero", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), `"alerts"`)
}

func TestSellerApprove_HabilitaVentas(t *testing.T) {
	a := newAPI(t)
	resp, _ := a.do(t, http.MethodPost, "/api/sellers/V006/approve", "vendedor", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := a.do(t, http.MethodPost, "/api/sellers/V006/approve", "rrhh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = a.do(t, http.MethodPost, "/api/sales", "vendedor", saleBody("V006", item("P1", 1)))
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
}

// ─── Auth ───────────────────────────────────────────────────────────────────

func TestLogin_CredencialesInvalidas_401(t *testing.T) {
	a := newAPI(t)
	resp, raw := a.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nadie@ventas.co", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, raw).Code)
}

func TestRegisterYLogin(t *testing.T) {
	a := newAPI(t)
	reg := dto.RegisterRequest{Email: "ana@ventas.co", Password: "secreto123", Name: "Ana", Role: entity.RoleVendedor}

	resp, _ := a.do(t, http.MethodPost, "/api/auth/register", "vendedor", reg)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin registra usuarios")

	resp, raw := a.do(t, http.MethodPost, "/api/auth/register", "admin", reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = a.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: reg.Email, Password: reg.Password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleVendedor, out.User.Role)
}
