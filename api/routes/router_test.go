package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/internal/clients"
	"github.com/stantonsupply/backoffice/internal/ledger"
	"github.com/stantonsupply/backoffice/internal/orders"
	"github.com/stantonsupply/backoffice/internal/payments"
	"github.com/stantonsupply/backoffice/internal/stock"
	pkgAuth "github.com/stantonsupply/backoffice/pkg/auth"
	"github.com/stantonsupply/backoffice/pkg/config"
	"github.com/stantonsupply/backoffice/pkg/db"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	"github.com/stantonsupply/backoffice/pkg/logger"
	"github.com/stantonsupply/backoffice/pkg/metrics"
	"github.com/stantonsupply/backoffice/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{}, &models.Warehouse{}, &models.WarehouseStock{},
		&models.Client{}, &models.Order{}, &models.OrderItem{},
		&models.OrderPayment{}, &models.LedgerEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	redisClient := redis.FromRaw(raw)

	runner := db.FromGorm(conn)
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	registry := prometheus.NewRegistry()
	domain := metrics.NewDomainMetrics(registry)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	clientsSvc, err := clients.NewService(clients.NewRepository(conn), ledgerSvc, runner, redisClient)
	if err != nil {
		t.Fatalf("clients service: %v", err)
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(conn), runner, nil, domain, logg)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	paymentsSvc, err := payments.NewService(orders.NewRepository(conn), ledgerSvc, runner, redisClient, nil, domain, logg)
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	stockSvc, err := stock.NewService(stock.NewRepository(conn), nil, logg)
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}

	return NewRouter(cfg, logg, stubPinger{}, redisClient, registry, clientsSvc, ledgerSvc, ordersSvc, paymentsSvc, stockSvc)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Name:   "Router Test",
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestClientRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	delivery := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	delivery.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleDelivery))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, delivery)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for delivery got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestDeliveryCanListOrders(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleDelivery))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestClientCreateRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, enums.ActorRoleAdmin)
	body := `{"name":"Ridgeline Traders","opening_balance_cents":50000,"opening_balance_type":"debit"}`

	missing := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(body))
	missing.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			ID           string `json:"id"`
			BalanceCents int    `json:"balance_cents"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.BalanceCents != 50000 {
		t.Fatalf("balance = %d, want 50000", envelope.Data.BalanceCents)
	}
}

func TestClientCreateReplaysOnSameIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, enums.ActorRoleAdmin)
	key := uuid.NewString()
	body := `{"name":"Harbor Mills","opening_balance_cents":12000,"opening_balance_type":"debit"}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", key)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201 got %d: %s", second.Code, second.Body.String())
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body differs:\nfirst:  %s\nsecond: %s", first.Body.String(), second.Body.String())
	}

	list := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	list.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Clients []json.RawMessage `json:"clients"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Clients) != 1 {
		t.Fatalf("clients created = %d, want 1", len(envelope.Data.Clients))
	}
}

func TestStockProvisionAndFetch(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, enums.ActorRoleAdmin)
	productID := uuid.New()
	warehouseID := uuid.New()

	body := `{"product_id":"` + productID.String() + `","warehouse_id":"` + warehouseID.String() + `","quantity":25}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/stock", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("provision: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	fetch := httptest.NewRequest(http.MethodGet, "/api/v1/stock/products/"+productID.String()+"/warehouses/"+warehouseID.String(), nil)
	fetch.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, fetch)
	if resp.Code != http.StatusOK {
		t.Fatalf("fetch: expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Quantity int `json:"quantity"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Quantity != 25 {
		t.Fatalf("quantity = %d, want 25", envelope.Data.Quantity)
	}
}

func TestDevTokenEndpointHiddenInProd(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = "prod"
	router := newTestRouter(t, cfg)

	body := `{"user_id":"` + uuid.NewString() + `","role":"admin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/dev/v1/token", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatal("dev token endpoint must not exist in prod")
	}
}

func TestDevTokenEndpointMintsUsableToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	body := `{"user_id":"` + uuid.NewString() + `","role":"admin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/dev/v1/token", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	list := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	list.Header.Set("Authorization", "Bearer "+envelope.Data.AccessToken)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("minted token rejected: %d", resp.Code)
	}
}
