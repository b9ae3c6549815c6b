package controllers

import (
	"context"
	"net/http"

	"github.com/tomasarrieta/shopwindow/api/responses"
	"github.com/tomasarrieta/shopwindow/pkg/config"
	pkgerrors "github.com/tomasarrieta/shopwindow/pkg/errors"
	"github.com/tomasarrieta/shopwindow/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopWindow-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each named dependency and reports per-dependency status.
// Any failing ping turns the whole response into a 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopWindow-Env", cfg.App.Env)

		deps := make(map[string]string, len(pingers))
		ready := true
		for name, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				logg.Warn(logg.WithFields(r.Context(), map[string]any{
					"dependency": name,
					"error":      err.Error(),
				}), "readiness ping failed")
				deps[name] = "unavailable"
				ready = false
				continue
			}
			deps[name] = "ok"
		}

		if !ready {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").
				WithDetails(deps))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": deps})
	}
}
