package handler

import (
	"encoding/json"
	"net/http"

	"github.com/servicehub/servicehub-api/internal/application/auth"
	"github.com/servicehub/servicehub-api/internal/pkg/validate"
)

// PhoneAuthHandler handles the phone OTP authentication flow.
type PhoneAuthHandler struct {
	svc auth.Service
}

func NewPhoneAuthHandler(svc auth.Service) *PhoneAuthHandler {
	return &PhoneAuthHandler{svc: svc}
}

type sendOtpRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
}

type verifyOtpRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

// SendOtp handles POST /auth/phone/send-otp.
func (h *PhoneAuthHandler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req sendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.SendOtp(r.Context(), req.PhoneNumber)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetOtp handles POST /auth/phone/get-otp. The route is only mounted in
// development mode; the service fails closed as well.
func (h *PhoneAuthHandler) GetOtp(w http.ResponseWriter, r *http.Request) {
	var req sendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.GetOtpForTesting(r.Context(), req.PhoneNumber)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// VerifyOtp handles POST /auth/phone/verify-otp.
func (h *PhoneAuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.VerifyOtpAndAuthenticate(r.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken: res.AccessToken,
		User:        toUserEnvelope(res.User),
	})
}
