package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/inkwell/internal/blog"
	"github.com/devilmonastery/inkwell/internal/client"
)

// DeleteCategory deletes a category with the admin's session token. API
// errors are shown as flashes on the page the admin returns to.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	admin := blog.NewService(h.sessionClient(w, r), blog.WithLogger(h.log))
	err := admin.DeleteCategory(r.Context(), id, client.ErrMessage("Failed to delete category"))
	if err != nil {
		if isAuthError(err) {
			h.log.Info("admin token rejected, signing out", slog.String("error", err.Error()))
			if clearErr := h.sessionManager.Clear(r, w); clearErr != nil {
				h.log.Warn("failed to clear session", slog.String("error", clearErr.Error()))
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/category/%d", id), http.StatusSeeOther)
		return
	}

	// The shared service caches the tree for public pages
	h.app.Blog.InvalidateCategories()
	if err := h.sessionManager.AddFlash(r, w, "Category deleted"); err != nil {
		h.log.Warn("failed to save flash", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
