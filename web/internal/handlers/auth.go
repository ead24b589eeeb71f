package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/devilmonastery/inkwell/internal/client"
)

// safeNext only allows local redirect targets
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// Login renders the admin login form
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if h.sessionManager.HasToken(r) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	data := h.newTemplateData(w, r)
	data["Next"] = next
	data["Username"] = ""
	data["Error"] = ""
	h.renderTemplate(w, "login.html", data)
}

// LoginSubmit exchanges the submitted credentials for an API token and
// stores it in the session cookie.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := safeNext(r.PostFormValue("next"))

	sc := h.sessionClient(w, r)
	sc.Tokens().SetAuthenticator(client.NewPasswordLogin(sc, h.app.Settings.Auth.LoginPath, username, password))

	result := sc.Tokens().RefreshToken(r.Context())
	if !result.Success {
		h.log.Info("admin login failed",
			slog.String("username", username),
			slog.String("error", result.Error))

		data := h.newTemplateData(w, r)
		data["Next"] = next
		data["Username"] = username
		data["Error"] = "Login failed: " + result.Error
		h.renderTemplateStatus(w, http.StatusUnauthorized, "login.html", data)
		return
	}

	if err := h.sessionManager.SetUsername(r, w, username); err != nil {
		h.log.Error("failed to save session", slog.String("error", err.Error()))
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	h.log.Info("admin logged in", slog.String("username", username))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout clears the session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Clear(r, w); err != nil {
		h.log.Warn("failed to clear session", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
