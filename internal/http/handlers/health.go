package handlers

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/fabula/internal/http/helpers"
)

// Pinger es lo que readiness necesita del repositorio.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Healthz: el proceso está vivo. No toca dependencias.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz: listo para servir tráfico (el store responde).
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		helpers.WriteError(w, r, http.StatusServiceUnavailable, "not_ready", "store unreachable")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
