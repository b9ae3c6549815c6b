package api

import (
	"net/http"
	"time"

	"github.com/tomasarrieta/shopwindow/pkg/config"
)

// NewServer returns the HTTP server that cmd/api runs. Timeouts are generous
// enough to cover a slow catalog round trip plus response writing.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Catalog.Timeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
