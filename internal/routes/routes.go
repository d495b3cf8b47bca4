package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/moosoltadiwa/localpay-connect/internal/auth"
	"github.com/moosoltadiwa/localpay-connect/internal/config"
	"github.com/moosoltadiwa/localpay-connect/internal/deposit"
	"github.com/moosoltadiwa/localpay-connect/internal/identity"
	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
	"github.com/moosoltadiwa/localpay-connect/internal/metrics"
	"github.com/moosoltadiwa/localpay-connect/internal/middleware"
	"github.com/moosoltadiwa/localpay-connect/internal/notification"
	"github.com/moosoltadiwa/localpay-connect/internal/order"
	"github.com/moosoltadiwa/localpay-connect/internal/paynow"
	"github.com/moosoltadiwa/localpay-connect/internal/proof"
	"github.com/moosoltadiwa/localpay-connect/internal/settings"
	"github.com/moosoltadiwa/localpay-connect/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Wiring exposes the constructed backends the caller needs outside the HTTP
// surface, such as the background sweeper.
type Wiring struct {
	Ledger   ledger.Store
	Notifier notification.Notifier
	Metrics  *metrics.Metrics
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (*Wiring, error) {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app, registry)

	// Backends. In-memory fallbacks keep dev mode runnable without
	// Postgres; production refuses to start that way above.
	var ledgerStore ledger.Store
	var proofStore proof.Store
	var orderStore order.Store
	var identityRepo identity.Repository
	if d.DB != nil {
		ledgerStore = ledger.NewPostgresStore(d.DB)
		proofStore = proof.NewPostgresStore(d.DB)
		orderStore = order.NewPostgresStore(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		ledgerStore = ledger.NewInMemory()
		proofStore = proof.NewMemoryStore(ledgerStore)
		orderStore = order.NewMemoryStore()
		identityRepo = identity.NewMemoryRepository()
	}

	gateway, err := buildGateway(d)
	if err != nil {
		return nil, err
	}

	notifier := notification.NewLoggerNotifier(d.Logger)

	// Services and handlers
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg)
	authHandler := auth.NewHandler(identitySvc, authSvc)
	depositSvc := deposit.NewService(ledgerStore, gateway, m, d.Logger)
	depositHandler := deposit.NewHandler(depositSvc)
	proofSvc := proof.NewService(proofStore, ledgerStore, m, d.Logger)
	proofHandler := proof.NewHandler(proofSvc)
	walletSvc := wallet.NewService(ledgerStore, d.Logger)
	walletHandler := wallet.NewHandler(walletSvc)
	orderSvc := order.NewService(orderStore, ledgerStore, notifier, d.Logger)
	orderHandler := order.NewHandler(orderSvc)

	// Idempotency is attached per-route: replaying a client retry is
	// correct for money-moving POSTs, wrong for webhook and poll which
	// must always re-evaluate.
	var idem fiber.Handler
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes. The webhook authenticates by message digest, never by
	// bearer token.
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)
	api.Post("/payments/paynow/webhook", depositHandler.Webhook)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg)
	protected := api.Group("", jwtmw)
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := identityRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":    user.ID,
			"email":      user.Email,
			"full_name":  user.FullName,
			"is_admin":   user.IsAdmin,
			"created_at": user.CreatedAt,
		})
	})
	RegisterPaymentRoutes(protected, depositHandler, proofHandler, idem)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterOrderRoutes(protected, orderHandler, idem)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireAdmin())
	RegisterAdminRoutes(admin, proofHandler, walletHandler, orderHandler, idem)

	return &Wiring{Ledger: ledgerStore, Notifier: notifier, Metrics: m}, nil
}

// buildGateway resolves the Paynow credentials through the settings chain and
// constructs the client. Missing credentials abort startup; a panel that
// cannot verify callbacks must not accept deposits.
func buildGateway(d Deps) (*paynow.Client, error) {
	chain := settings.Chain{}
	if d.DB != nil {
		chain = append(chain, settings.NewPostgresProvider(d.DB, d.Cache, 5*time.Minute))
	}
	chain = append(chain, settings.Static{
		settings.KeyPaynowIntegrationID:  d.Cfg.PaynowIntegrationID,
		settings.KeyPaynowIntegrationKey: d.Cfg.PaynowIntegrationKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := chain.Get(ctx, settings.KeyPaynowIntegrationID)
	if err != nil {
		return nil, fmt.Errorf("resolve paynow integration id: %w", err)
	}
	key, err := chain.Get(ctx, settings.KeyPaynowIntegrationKey)
	if err != nil {
		return nil, fmt.Errorf("resolve paynow integration key: %w", err)
	}

	return paynow.NewClient(paynow.Config{
		IntegrationID:  id,
		IntegrationKey: key,
		InitiateURL:    d.Cfg.PaynowInitiateURL,
		RemoteURL:      d.Cfg.PaynowRemoteURL,
		ResultURL:      strings.TrimRight(d.Cfg.BaseURL, "/") + "/api/v1/payments/paynow/webhook",
		ReturnURL:      strings.TrimRight(d.Cfg.SiteURL, "/") + "/wallet",
	})
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
