package config

import (
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	t.Setenv("SHOPWINDOW_CATALOG_BASE_URL", "https://catalog.example.com/api")
	t.Setenv("SHOPWINDOW_APP_ENV", "production")
	t.Setenv("SHOPWINDOW_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env production, got %q", cfg.App.Env)
	}
	if cfg.Catalog.Timeout != 15*time.Second {
		t.Fatalf("expected default catalog timeout 15s, got %v", cfg.Catalog.Timeout)
	}
	if cfg.Browse.Debounce != 300*time.Millisecond {
		t.Fatalf("expected default debounce 300ms, got %v", cfg.Browse.Debounce)
	}
	if cfg.Browse.PriceCeiling != 5000 {
		t.Fatalf("expected default price ceiling 5000, got %d", cfg.Browse.PriceCeiling)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected Redis.Enabled with URL set")
	}
	if cfg.Cache.CategoriesTTL != 5*time.Minute {
		t.Fatalf("expected default categories TTL 5m, got %v", cfg.Cache.CategoriesTTL)
	}
}

func TestLoad_MissingCatalogBaseURL(t *testing.T) {
	t.Setenv("SHOPWINDOW_CATALOG_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing catalog base url to return an error")
	}
}

func TestLoad_RelativeCatalogBaseURL(t *testing.T) {
	t.Setenv("SHOPWINDOW_CATALOG_BASE_URL", "/api/v1")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative catalog base url to return an error")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEVELOPMENT"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "production"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
