package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stantonsupply/backoffice/api/controllers"
	"github.com/stantonsupply/backoffice/api/middleware"
	"github.com/stantonsupply/backoffice/internal/clients"
	"github.com/stantonsupply/backoffice/internal/ledger"
	"github.com/stantonsupply/backoffice/internal/orders"
	"github.com/stantonsupply/backoffice/internal/payments"
	"github.com/stantonsupply/backoffice/internal/stock"
	"github.com/stantonsupply/backoffice/pkg/config"
	"github.com/stantonsupply/backoffice/pkg/db"
	"github.com/stantonsupply/backoffice/pkg/logger"
	"github.com/stantonsupply/backoffice/pkg/redis"
)

const (
	roleAdmin    = "admin"
	roleDelivery = "delivery"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	clientsSvc clients.Service,
	ledgerSvc ledger.Service,
	ordersSvc orders.Service,
	paymentsSvc payments.Service,
	stockSvc stock.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	if !cfg.App.IsProd() {
		r.Post("/api/dev/v1/token", controllers.DevMintToken(cfg, logg))
	}

	var idemStore redis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		// Reachable by both roles; the order service enforces the
		// per-role transition table itself.
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersSvc, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersSvc, logg))
			r.Post("/{orderId}/status", controllers.OrderUpdateStatus(ordersSvc, logg))
			r.Post("/{orderId}/items/{itemId}/collect", controllers.OrderCollectItem(ordersSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(roleAdmin, logg))
				r.Post("/", controllers.OrderCreate(ordersSvc, logg))
				r.Put("/{orderId}/items", controllers.OrderUpdateItems(ordersSvc, logg))
				r.Delete("/{orderId}", controllers.OrderDelete(ordersSvc, logg))
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Use(middleware.RequireRole(roleAdmin, logg))
			r.Post("/", controllers.ClientCreate(clientsSvc, logg))
			r.Get("/", controllers.ClientList(clientsSvc, logg))
			r.Get("/{clientId}", controllers.ClientDetail(clientsSvc, logg))
			r.Put("/{clientId}/opening-balance", controllers.ClientUpdateOpeningBalance(clientsSvc, logg))
			r.Get("/{clientId}/ledger", controllers.ClientLedger(ledgerSvc, logg))
			r.Post("/{clientId}/payments", controllers.ClientRecordPayment(paymentsSvc, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Use(middleware.RequireRole(roleAdmin, logg))
			r.Put("/", controllers.StockProvision(stockSvc, logg))
			r.Get("/products/{productId}", controllers.StockByProduct(stockSvc, logg))
			r.Get("/products/{productId}/warehouses/{warehouseId}", controllers.StockDetail(stockSvc, logg))
		})
	})

	return r
}
