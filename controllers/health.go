package controllers

import (
	"context"
	"net/http"

	"ecofinds/logging"
	"ecofinds/utils"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController answers liveness checks
type HealthController struct {
	DB Pinger
}

// NewHealthController creates a new HealthController
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{DB: db}
}

// Health reports ok, or degraded when the database does not answer
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if hc.DB != nil {
		if err := hc.DB.Ping(r.Context()); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("database ping failed")
			utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "degraded"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
