package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          pinger
	startupTime time.Time
}

func newHealthHandler(db pinger, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()
	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		db:          db,
		startupTime: startupTime,
	}
}

type healthResponse struct {
	Status      string    `json:"status"`
	StartupTime time.Time `json:"startup_time"`
	Uptime      string    `json:"uptime"`
}

func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("health check failed")
			apiErr := errs.NewApiErr(http.StatusServiceUnavailable, "database unavailable")
			apiErr.Cause = err
			h.responder.WriteError(w, apiErr)
			return
		}

		h.responder.WriteJSON(w, healthResponse{
			Status:      "ok",
			StartupTime: h.startupTime,
			Uptime:      time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}
