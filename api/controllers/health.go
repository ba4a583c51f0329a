package controllers

import (
	"net/http"

	"github.com/silkmall/silkmall-backend/api/responses"
	"github.com/silkmall/silkmall-backend/pkg/config"
	pkgerrors "github.com/silkmall/silkmall-backend/pkg/errors"
	"github.com/silkmall/silkmall-backend/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(r *http.Request) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(r *http.Request) error

func (f PingerFunc) Ping(r *http.Request) error { return f(r) }

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SilkMall-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every registered dependency responds.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SilkMall-Env", cfg.App.Env)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
