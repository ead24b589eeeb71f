package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devilmonastery/inkwell/web/internal/middleware"
	"github.com/devilmonastery/inkwell/web/internal/render"
)

// NewRouter sets up the HTTP router with all routes and middleware
func NewRouter(h *Handler, authMw *middleware.AuthMiddleware, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LogRequest(logger))

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	// Version info endpoint
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s"}`, render.Version)
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public pages
	router.HandleFunc("/", h.Home).Methods("GET")
	router.HandleFunc("/category/{id:[0-9]+}", h.Category).Methods("GET")
	router.HandleFunc("/category/{id:[0-9]+}/{slug}", h.Category).Methods("GET")
	router.HandleFunc("/article/{id:[0-9]+}", h.Article).Methods("GET")
	router.HandleFunc("/article/{id:[0-9]+}/{slug}", h.Article).Methods("GET")
	router.HandleFunc("/weather", h.Weather).Methods("GET")
	router.HandleFunc("/api/weather", h.WeatherAPI).Methods("GET")
	router.HandleFunc("/api/set-timezone", h.SetTimezone).Methods("POST")

	router.HandleFunc("/login", h.Login).Methods("GET")
	router.HandleFunc("/login", h.LoginSubmit).Methods("POST")
	router.HandleFunc("/logout", h.Logout).Methods("POST")

	// Admin routes (session token required)
	router.Handle("/admin/category/{id:[0-9]+}/delete",
		authMw.RequireAdmin(http.HandlerFunc(h.DeleteCategory))).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(h.NotFound)
	return router
}
