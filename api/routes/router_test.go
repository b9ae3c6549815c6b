package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomasarrieta/shopwindow/api/controllers"
	"github.com/tomasarrieta/shopwindow/internal/catalog"
	"github.com/tomasarrieta/shopwindow/pkg/config"
	pkgerrors "github.com/tomasarrieta/shopwindow/pkg/errors"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
	"github.com/tomasarrieta/shopwindow/pkg/metrics"
)

type stubCatalog struct {
	productsErr error
}

func (s stubCatalog) ListProducts(_ context.Context, params catalog.ListParams) (*catalog.ProductPage, error) {
	if s.productsErr != nil {
		return nil, s.productsErr
	}
	return &catalog.ProductPage{CurrentPage: params.Page, PerPage: params.PerPage, TotalPages: 1}, nil
}

func (s stubCatalog) ListCategories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: 1, Slug: "laptops", Name: "Laptops"}}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "test", Port: "0"},
		Browse: config.BrowseConfig{DefaultPerPage: 12, PriceCeiling: 5000, PriceStep: 1},
	}
}

func newTestRouter(cat stubCatalog) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	registry := prometheus.NewRegistry()
	return NewRouter(testConfig(), logg, Deps{
		Products:   cat,
		Categories: cat,
		Pingers:    map[string]controllers.Pinger{"catalog": stubPinger{}},
		Metrics:    metrics.NewBrowseMetrics(registry),
		Registry:   registry,
	})
}

func TestBrowseProductsRoute(t *testing.T) {
	router := newTestRouter(stubCatalog{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/browse/products?page=2", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Canonical-Query"); got != "page=2" {
		t.Fatalf("expected canonical query header, got %q", got)
	}
}

func TestBrowseProductsRouteUpstreamDown(t *testing.T) {
	router := newTestRouter(stubCatalog{productsErr: pkgerrors.New(pkgerrors.CodeDependency, "down")})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/browse/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestBrowseSearchRouteRejectsBadJSON(t *testing.T) {
	router := newTestRouter(stubCatalog{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/browse/products", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestCategoriesRoute(t *testing.T) {
	router := newTestRouter(stubCatalog{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/browse/categories", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(stubCatalog{})
	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(stubCatalog{})

	// Drive one request through so at least one browse series exists.
	warm := httptest.NewRequest(http.MethodGet, "/api/v1/browse/products", nil)
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "browse_fetch_issued") {
		t.Fatalf("expected browse metrics in exposition, got:\n%s", resp.Body.String())
	}
}
