package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/pkg/config"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is any dependency that can answer a readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names one dependency of the readiness probe.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MiniBiz-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency and reports 503 when any of
// them fails.
func HealthReady(cfg *config.Config, checks []ReadinessCheck, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MiniBiz-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := make(map[string]string, len(checks))
		var errs error
		for _, check := range checks {
			if check.Pinger == nil {
				status[check.Name] = "disabled"
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				status[check.Name] = "down"
				errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.Name))
				continue
			}
			status[check.Name] = "up"
		}

		if errs != nil {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "checks", status), "health.ready.degraded")
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "not ready"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": status})
	}
}
