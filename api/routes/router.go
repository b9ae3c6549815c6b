package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomasarrieta/shopwindow/api/controllers"
	"github.com/tomasarrieta/shopwindow/api/middleware"
	"github.com/tomasarrieta/shopwindow/internal/browse"
	"github.com/tomasarrieta/shopwindow/pkg/config"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
	"github.com/tomasarrieta/shopwindow/pkg/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Products   controllers.ProductLister
	Categories controllers.CategoryLister
	Pingers    map[string]controllers.Pinger
	Metrics    *metrics.BrowseMetrics
	Registry   *prometheus.Registry
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	codec := browse.NewCodec(browse.Defaults{
		PerPage:      cfg.Browse.DefaultPerPage,
		PriceCeiling: cfg.Browse.PriceCeiling,
		PriceStep:    cfg.Browse.PriceStep,
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/browse", func(r chi.Router) {
		r.Get("/products", controllers.BrowseProducts(deps.Products, codec, deps.Metrics, logg))
		r.Post("/products", controllers.BrowseProductsSearch(deps.Products, codec, deps.Metrics, logg))
		r.Get("/categories", controllers.BrowseCategories(deps.Categories, deps.Metrics, logg))
	})

	return r
}
