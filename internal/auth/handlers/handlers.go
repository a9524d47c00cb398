package handlers

import (
	"net/http"

	"github.com/brizzai/auto-eda/internal/auth"
	"github.com/brizzai/auto-eda/internal/auth/middleware"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/brizzai/auto-eda/internal/utils"
)

// Handler serves the sign-in and sign-out endpoints
type Handler struct {
	controller *auth.Controller
}

// NewHandler creates a new Handler instance
func NewHandler(controller *auth.Controller) *Handler {
	return &Handler{controller: controller}
}

// HandleLogin sends the browser straight to the provider with a fresh state
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		utils.WriteError(w, "server_error", "No session", http.StatusInternalServerError)
		return
	}
	if sess.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.controller.BuildAuthorizationLink(sess), http.StatusFound)
}

// HandleLogout clears the session and returns to the sign-in page
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		utils.WriteError(w, "server_error", "No session", http.StatusInternalServerError)
		return
	}
	h.controller.Logout(sess)
	logger.Debug("Session cleared")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
