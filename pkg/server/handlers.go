// Package server wires the dashboard's HTTP surface: data-input editing,
// dashboard queries, forecasting and health.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/loadboard/loadboard/pkg/forecast"
	"github.com/loadboard/loadboard/pkg/httpx"
	"github.com/loadboard/loadboard/pkg/live"
	"github.com/loadboard/loadboard/pkg/server/monitor"
	"github.com/loadboard/loadboard/pkg/store"
)

var startTime = time.Now()

// Handler bundles the dependencies shared by all HTTP handlers.
type Handler struct {
	store    *store.Store
	registry *forecast.Registry
	orch     *forecast.Orchestrator
	hub      *live.Hub
	monitor  *monitor.StoreMonitor
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	st *store.Store,
	registry *forecast.Registry,
	orch *forecast.Orchestrator,
	hub *live.Hub,
	storeMonitor *monitor.StoreMonitor,
) *Handler {
	return &Handler{
		store:    st,
		registry: registry,
		orch:     orch,
		hub:      hub,
		monitor:  storeMonitor,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version"`
	Uptime  string              `json:"uptime"`
	Store   monitor.StoreStatus `json:"store"`
}

// HandleHealth returns service health status. A leftover backup file marks a
// prior failed write and degrades the service status.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	overallStatus := "healthy"
	statusCode := http.StatusOK

	if !h.monitor.IsHealthy() {
		overallStatus = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:  overallStatus,
		Version: "1.0.0",
		Uptime:  time.Since(startTime).String(),
		Store:   h.monitor.Status(),
	}

	httpx.RespondJSON(w, statusCode, response)
}

// SetupRoutes configures all HTTP routes for the server.
func (h *Handler) SetupRoutes(router *mux.Router, port string) {
	// CORS middleware for API access
	router.Use(corsMiddleware(port))

	// API routes
	api := router.PathPrefix("/v1").Subrouter()

	// Data input: view and edit the hourly series
	api.HandleFunc("/data-input", h.HandleDataInputGet).Methods("GET")
	api.HandleFunc("/data-input", h.HandleDataInputPost).Methods("POST")

	// Dashboard read-only views
	api.HandleFunc("/dashboard/data", h.HandleDashboardData).Methods("GET")
	api.HandleFunc("/dashboard/health", h.HandleDashboardHealth).Methods("GET")
	api.HandleFunc("/export", h.HandleExport).Methods("GET")

	// Forecasting
	api.HandleFunc("/models", h.HandleModels).Methods("GET")
	api.HandleFunc("/forecast", h.HandleForecast).Methods("POST")

	// Service health
	api.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// WebSocket for real-time updates
	api.HandleFunc("/ws", h.hub.HandleWebSocket).Methods("GET")

	// Serve static files from ./web/ directory
	router.PathPrefix("/web/").Handler(http.StripPrefix("/web/", http.FileServer(http.Dir("./web/"))))

	// Root path serves dashboard.html
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./web/dashboard.html")
	}).Methods("GET")
}

// corsMiddleware creates CORS middleware that restricts to localhost origins only.
func corsMiddleware(port string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Allow localhost origins for local development
			allowedOrigins := []string{
				"http://localhost:" + port,
				"http://127.0.0.1:" + port,
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			}

			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if origin == allowedOrigin {
					allowed = true
					break
				}
			}

			// Only set CORS headers for allowed origins
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
