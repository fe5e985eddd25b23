package controllers

import (
	"context"
	"net/http"

	"github.com/autoaudit/autoaudit-backend/api/responses"
	"github.com/autoaudit/autoaudit-backend/pkg/config"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
)

// Pinger is any dependency with a cheap health probe.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AutoAudit-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the backing services. Nil pingers are skipped so the
// endpoint works with optional dependencies disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AutoAudit-Env", cfg.App.Env)

		for name, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeInternal, err, name+" is unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
