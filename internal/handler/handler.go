package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/edgegate/dispatch/internal/dispatcher"
)

type AdminHandler struct {
	logger     *slog.Logger
	dispatcher *dispatcher.Dispatcher
}

func NewAdminHandler(logger *slog.Logger, d *dispatcher.Dispatcher) *AdminHandler {
	return &AdminHandler{
		logger:     logger,
		dispatcher: d,
	}
}

// RegisterRoutes mounts every admin route on the given router.
func (h *AdminHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/endpoints", h.ListEndpoints).Methods(http.MethodGet)
	r.HandleFunc("/endpoints/healthy", h.ListHealthyEndpoints).Methods(http.MethodGet)
	r.HandleFunc("/breakers", h.ListBreakers).Methods(http.MethodGet)
	r.HandleFunc("/breakers/reset", h.ResetAllBreakers).Methods(http.MethodPost)
	r.HandleFunc("/breakers/{service}", h.GetBreaker).Methods(http.MethodGet)
	r.HandleFunc("/breakers/{service}/reset", h.ResetBreaker).Methods(http.MethodPost)
	r.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
}

func (h *AdminHandler) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.dispatcher.ListEndpoints())
}

func (h *AdminHandler) ListHealthyEndpoints(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.dispatcher.ListHealthyEndpoints())
}

func (h *AdminHandler) ListBreakers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.dispatcher.AllBreakerStats())
}

func (h *AdminHandler) GetBreaker(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]

	stats, ok := h.dispatcher.BreakerStats(service)
	if !ok {
		http.Error(w, "no circuit breaker for service "+service, http.StatusNotFound)
		return
	}

	h.writeJSON(w, stats)
}

func (h *AdminHandler) ResetBreaker(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]

	if !h.dispatcher.ResetBreaker(service) {
		http.Error(w, "no circuit breaker for service "+service, http.StatusNotFound)
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "reset",
		"service": service,
	})
}

func (h *AdminHandler) ResetAllBreakers(w http.ResponseWriter, r *http.Request) {
	h.dispatcher.ResetAllBreakers()

	h.writeJSON(w, map[string]string{
		"status": "reset",
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.dispatcher.AllStats())
}

func (h *AdminHandler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
