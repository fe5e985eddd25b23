package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autoaudit/autoaudit-backend/api/controllers"
	"github.com/autoaudit/autoaudit-backend/api/middleware"
	"github.com/autoaudit/autoaudit-backend/pkg/config"
	"github.com/autoaudit/autoaudit-backend/pkg/identity"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/autoaudit/autoaudit-backend/pkg/redis"
	"github.com/autoaudit/autoaudit-backend/pkg/storage"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	Verifier identity.Verifier
	Users    middleware.UserResolver
	Redis    *redis.Client
	Storage  storage.ObjectStore

	DBPinger      controllers.Pinger
	RedisPinger   controllers.Pinger
	StoragePinger controllers.Pinger

	Vehicles   controllers.VehicleService
	Invoices   controllers.InvoiceService
	Extraction controllers.ExtractionService
	Chat       controllers.ChatService
}

// NewRouter wires middleware, public endpoints, and the authenticated v1
// surface.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DBPinger,
			"redis":    p.RedisPinger,
			"storage":  p.StoragePinger,
		}))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	aiPolicy := middleware.NewAIRateLimitPolicy(cfg.AIRateLimit.Window, cfg.AIRateLimit.Limit)
	var aiLimiterStore middleware.RateLimiterStore
	if p.Redis != nil {
		aiLimiterStore = p.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Verifier, p.Users, logg))

		r.Post("/uploads", controllers.UploadsCreate(p.Storage, cfg.Document.MaxUploadBytes, logg))

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", controllers.VehiclesList(p.Vehicles, logg))
			r.Post("/", controllers.VehiclesCreate(p.Vehicles, logg))
			r.Delete("/{vehicleId}", controllers.VehiclesDelete(p.Vehicles, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.With(middleware.AIRateLimit(aiPolicy, aiLimiterStore, logg)).
				Post("/analyze", controllers.InvoicesAnalyze(p.Extraction, logg))
			r.Get("/", controllers.InvoicesList(p.Invoices, logg))
			r.Get("/{invoiceId}", controllers.InvoicesGet(p.Invoices, logg))
			r.Get("/{invoiceId}/file", controllers.InvoicesFileLink(p.Invoices, logg))
			r.Delete("/{invoiceId}", controllers.InvoicesDelete(p.Invoices, logg))
			r.Get("/{invoiceId}/messages", controllers.InvoiceMessages(p.Chat, logg))
		})

		r.With(middleware.AIRateLimit(aiPolicy, aiLimiterStore, logg)).
			Post("/chat", controllers.ChatSend(p.Chat, logg))
	})

	return r
}
