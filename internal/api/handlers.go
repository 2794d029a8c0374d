// Package api serves a read-only status API for the relay.
package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/op/go-logging"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

var log = logging.MustGetLogger("api")

// DeliveryStore exposes tracked deliveries
type DeliveryStore interface {
	GetDelivery(id string) (*models.Delivery, error)
	ListDeliveries(status models.DeliveryStatus) []*models.Delivery
}

// TokenState reports the cached camera token without refreshing it
type TokenState interface {
	Cached() (models.Token, bool)
}

// ArtifactCounter reports how many artifacts are in flight
type ArtifactCounter interface {
	Count() int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	routes     []models.Route
	deliveries DeliveryStore
	tokens     TokenState
	artifacts  ArtifactCounter
	startedAt  time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(routes []models.Route, deliveries DeliveryStore, tokens TokenState, artifacts ArtifactCounter) *Handler {
	return &Handler{
		routes:     routes,
		deliveries: deliveries,
		tokens:     tokens,
		artifacts:  artifacts,
		startedAt:  time.Now(),
	}
}

// HealthResponse is returned by GET /v1/health
type HealthResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	TokenValid  bool      `json:"tokenValid"`
	TokenExpiry time.Time `json:"tokenExpiry,omitempty"`
	Artifacts   int       `json:"artifacts"`
}

// Health handles GET /v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	tok, valid := h.tokens.Cached()

	resp := HealthResponse{
		Status:     "ok",
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		TokenValid: valid,
		Artifacts:  h.artifacts.Count(),
	}
	if valid {
		resp.TokenExpiry = tok.ExpiresAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListRoutes handles GET /v1/routes
func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.routes)
}

// ListDeliveries handles GET /v1/deliveries
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	status := models.DeliveryStatus(r.URL.Query().Get("status"))

	deliveries := h.deliveries.ListDeliveries(status)
	if deliveries == nil {
		deliveries = []*models.Delivery{}
	}

	writeJSON(w, http.StatusOK, deliveries)
}

// GetDelivery handles GET /v1/deliveries/{id}
func (h *Handler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	d, err := h.deliveries.GetDelivery(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		log.Errorf("Failed to encode response: %v", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
