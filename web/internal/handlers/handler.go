package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/inkwell/internal/app"
	"github.com/devilmonastery/inkwell/internal/client"
	"github.com/devilmonastery/inkwell/internal/pkg/timeutil"
	"github.com/devilmonastery/inkwell/internal/weather"
	"github.com/devilmonastery/inkwell/web/internal/config"
	"github.com/devilmonastery/inkwell/web/internal/render"
	"github.com/devilmonastery/inkwell/web/internal/session"
)

// Handler holds dependencies for all web handlers
type Handler struct {
	app            *app.App
	sessionManager *session.Manager
	templates      *render.TemplateSet
	site           config.SiteConfig
	log            *slog.Logger
}

// New creates a new handler with dependencies
func New(a *app.App, sessionManager *session.Manager, templates *render.TemplateSet, site config.SiteConfig, logger *slog.Logger) *Handler {
	return &Handler{
		app:            a,
		sessionManager: sessionManager,
		templates:      templates,
		site:           site,
		log:            logger.With(slog.String("component", "web_handler")),
	}
}

// sessionClient creates a per-request client holding the admin's session
// token. Error toasts from its calls become flashes.
func (h *Handler) sessionClient(w http.ResponseWriter, r *http.Request) *client.Client {
	return h.app.ClientFor(
		h.sessionManager.TokenStore(r, w),
		h.sessionManager.Feedback(r, w, h.log),
	)
}

// timezone prefers the browser-reported zone over the site default
func (h *Handler) timezone(r *http.Request) string {
	if tz := h.sessionManager.Timezone(r); tz != "" {
		return tz
	}
	return h.site.Timezone
}

// newTemplateData creates a new template data map with standard fields populated
// Callers can add page-specific fields to the returned map
func (h *Handler) newTemplateData(w http.ResponseWriter, r *http.Request) map[string]interface{} {
	data := map[string]interface{}{
		"SiteTitle":      h.site.Title,
		"Timezone":       h.timezone(r),
		"Keyword":        "",
		"ActiveCategory": int64(0),
		"Admin":          "",
	}

	// Page chrome is best effort; the category tree is cached by the service.
	categories, err := h.app.Blog.GetAllCategories(r.Context(), client.ShowError(false))
	if err != nil {
		h.log.Warn("failed to load categories", slog.String("error", err.Error()))
	}
	data["Categories"] = categories

	current := h.app.Weather.Current(r.Context(), weather.Query{})
	data["Weather"] = &current

	if h.sessionManager.HasToken(r) {
		data["Admin"] = h.sessionManager.Username(r)
	}

	// Drained last so toasts raised while building the page are included
	data["Flashes"] = h.sessionManager.Flashes(r, w)
	return data
}

// renderTemplate renders a template with data
func (h *Handler) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	h.renderTemplateStatus(w, http.StatusOK, name, data)
}

func (h *Handler) renderTemplateStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	if h.templates == nil {
		http.Error(w, "Templates not loaded", http.StatusInternalServerError)
		return
	}
	h.log.Debug("rendering template", slog.String("template", name))

	// Render into a buffer so a failed template still yields a clean 500
	var buf bytes.Buffer
	if err := h.templates.Execute(&buf, name, data); err != nil {
		h.log.Error("template rendering failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// statusFor maps a request error to the status shown to the browser
func statusFor(err error) int {
	reqErr := client.AsRequestError(err)
	switch {
	case reqErr == nil:
		return http.StatusInternalServerError
	case reqErr.Kind == client.KindBusiness:
		return http.StatusNotFound
	case reqErr.Kind == client.KindAuth:
		return http.StatusUnauthorized
	case reqErr.Kind == client.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// renderError renders the error page for a failed API call
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := client.Message(err, h.app.Settings.Errors.Messages)
	if message == "" {
		message = http.StatusText(status)
	}
	h.log.Warn("page failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()))

	data := h.newTemplateData(w, r)
	data["Status"] = status
	data["Message"] = message
	h.renderTemplateStatus(w, status, "error.html", data)
}

// notFound renders the error page without an API error
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	data := h.newTemplateData(w, r)
	data["Status"] = http.StatusNotFound
	data["Message"] = "Page not found"
	h.renderTemplateStatus(w, http.StatusNotFound, "error.html", data)
}

// NotFound is the router's fallback handler
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r)
}

// isAuthError reports whether the session token was rejected or could not
// be refreshed
func isAuthError(err error) bool {
	return client.IsAuthError(err) || errors.Is(err, client.ErrRefreshFailed)
}

// SetTimezone stores the client's timezone in the session for date rendering
func (h *Handler) SetTimezone(w http.ResponseWriter, r *http.Request) {
	type timezoneRequest struct {
		Timezone string `json:"timezone"`
	}

	var req timezoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !timeutil.IsValidTimezone(req.Timezone) {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return
	}

	if err := h.sessionManager.SetTimezone(r, w, req.Timezone); err != nil {
		h.log.Error("failed to save timezone to session", slog.String("error", err.Error()))
		http.Error(w, "Failed to save timezone", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success": true}`))
}
