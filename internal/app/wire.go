package app

import (
	"log/slog"
	"time"

	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/guard"
	"github.com/attaboy/bonusvalue/internal/handler"
	adminhandler "github.com/attaboy/bonusvalue/internal/handler/admin"
	"github.com/attaboy/bonusvalue/internal/infra"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/attaboy/bonusvalue/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool        *pgxpool.Pool
	Config      *infra.Config
	JWTMgr      *auth.JWTManager
	IngestMgr   *auth.IngestTokenManager
	RateLimiter *guard.RateLimiter
	Logger      *slog.Logger
}

// Services groups the services shared by the HTTP API and the workers.
type Services struct {
	Offers          *service.OfferService
	Operators       *service.OperatorService
	Recommendations *service.RecommendationService
	AdminAuth       *service.AdminAuthService
}

// NewServices builds the service layer on top of pool.
func NewServices(pool *pgxpool.Pool, cfg *infra.Config, jwtMgr *auth.JWTManager, logger *slog.Logger) *Services {
	offerRepo := repository.NewOfferRepository()
	operatorRepo := repository.NewOperatorRepository()
	outboxRepo := repository.NewOutboxRepository()
	adminRepo := repository.NewAdminUserRepository()

	return &Services{
		Offers:          service.NewOfferService(pool, offerRepo, operatorRepo, outboxRepo, cfg.DefaultBudget, logger),
		Operators:       service.NewOperatorService(pool, operatorRepo, logger),
		Recommendations: service.NewRecommendationService(pool, offerRepo, cfg.RecommendLimit, logger),
		AdminAuth: service.NewAdminAuthService(pool, adminRepo, jwtMgr, logger).
			WithLockout(guard.NewLoginLockout(pool, logger)),
	}
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps, svcs *Services) chi.Router {
	cfg := deps.Config
	logger := deps.Logger

	rl := deps.RateLimiter
	if rl == nil {
		rl = guard.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	dedup := guard.NewIdempotencyGuard(cfg.IdempotencyTTL)

	// Handlers
	offerHandler := handler.NewOfferHandler(svcs.Recommendations, svcs.Offers, cfg.DefaultBudget)
	ingestHandler := handler.NewIngestHandler(svcs.Offers, dedup, logger)

	// Admin handlers
	offerAdmin := adminhandler.NewOfferAdminHandler(svcs.Offers)
	operatorAdmin := adminhandler.NewOperatorAdminHandler(svcs.Operators)
	var issuer adminhandler.TokenIssuer
	if deps.IngestMgr != nil {
		issuer = deps.IngestMgr
	}
	authAdmin := adminhandler.NewAuthAdminHandler(svcs.AdminAuth, issuer, logger)
	reportsAdmin := adminhandler.NewReportsHandler(deps.Pool)

	var db infra.Pinger
	if deps.Pool != nil {
		db = deps.Pool
	}

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(cfg.CORSAllowedOrigins))

	// Health and metrics (no auth)
	r.Get("/health", handler.HealthHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		// Public catalog
		r.Route("/offers", func(r chi.Router) {
			r.Get("/", offerHandler.ListOffers)
			r.With(handler.RateLimit(rl)).Post("/preview", offerHandler.Preview)
			r.Get("/{id}", offerHandler.GetOffer)
		})
		r.With(handler.RateLimit(rl)).Post("/recommendations", offerHandler.Recommend)

		// Scraper ingest (ingest token)
		r.With(auth.RequireIngestScope(deps.IngestMgr, auth.ScopeIngestOffers)).
			Post("/ingest/offers", ingestHandler.IngestOffers)

		r.Route("/admin", func(r chi.Router) {
			// Login (no auth)
			r.With(handler.RateLimit(rl)).Post("/login", authAdmin.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.AuthenticateAdmin(deps.JWTMgr))

				r.Route("/offers", func(r chi.Router) {
					r.Get("/", offerAdmin.ListOffers)
					r.Get("/{id}", offerAdmin.GetOffer)
					r.Post("/preview", offerHandler.Preview)

					r.Group(func(r chi.Router) {
						r.Use(auth.RequireRole(auth.WriteRoles()...))
						r.Post("/", offerAdmin.CreateOffer)
						r.Put("/{id}", offerAdmin.UpdateOffer)
						r.Patch("/{id}/status", offerAdmin.UpdateOfferStatus)
						r.Post("/rescore", offerAdmin.RescoreAll)
					})
				})

				r.Route("/operators", func(r chi.Router) {
					r.Get("/", operatorAdmin.ListOperators)
					r.With(auth.RequireRole(auth.WriteRoles()...)).Post("/", operatorAdmin.CreateOperator)
				})

				r.Route("/reports", func(r chi.Router) {
					r.Get("/dashboard", reportsAdmin.GetDashboardStats)
					r.Get("/operators", reportsAdmin.GetOperatorReport)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleSuperAdmin))
					r.Post("/users", authAdmin.CreateAdmin)
					r.Post("/ingest-tokens", authAdmin.IssueIngestToken)
				})
			})
		})
	})

	return r
}
