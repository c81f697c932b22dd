package handler

import (
	"net/http"

	"github.com/servicehub/servicehub-api/internal/application/user"
	"github.com/servicehub/servicehub-api/internal/transport/http/middleware"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Profile handles GET /users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserEnvelope(u))
}
