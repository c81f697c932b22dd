package handler

import (
	"encoding/json"
	"net/http"

	"github.com/servicehub/servicehub-api/internal/application/auth"
	"github.com/servicehub/servicehub-api/internal/domain"
	"github.com/servicehub/servicehub-api/internal/pkg/validate"
)

// EmailAuthHandler handles email/password authentication endpoints.
type EmailAuthHandler struct {
	svc auth.Service
}

func NewEmailAuthHandler(svc auth.Service) *EmailAuthHandler {
	return &EmailAuthHandler{svc: svc}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// Register handles POST /auth/email/register.
func (h *EmailAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.EmailRegister(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		AccessToken: res.AccessToken,
		User:        toUserEnvelope(res.User),
	})
}

// Login handles POST /auth/email/login.
func (h *EmailAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.EmailLogin(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken: res.AccessToken,
		User:        toUserEnvelope(res.User),
	})
}

// ForgotPassword handles POST /auth/email/forgot-password. Always responds
// with the same message so account existence cannot be probed.
func (h *EmailAuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Message: "If that email is registered, a password reset link has been sent.",
	})
}

// ResetPassword handles POST /auth/email/reset-password.
func (h *EmailAuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusConflict, "new password and confirm password do not match")
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
}
