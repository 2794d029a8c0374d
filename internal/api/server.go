package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all HTTP routes. events serves the websocket feed.
func (h *Handler) SetupRoutes(events http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()

	// API v1 routes
	api := r.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/health", h.Health).Methods("GET", "OPTIONS")
	api.HandleFunc("/routes", h.ListRoutes).Methods("GET", "OPTIONS")
	api.HandleFunc("/deliveries", h.ListDeliveries).Methods("GET", "OPTIONS")
	api.HandleFunc("/deliveries/{id}", h.GetDelivery).Methods("GET", "OPTIONS")

	if events != nil {
		api.HandleFunc("/events", events).Methods("GET", "OPTIONS")
	}

	// CORS middleware
	r.Use(corsMiddleware)

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
