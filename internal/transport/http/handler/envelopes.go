package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/servicehub/servicehub-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserEnvelope is the minimal identity projection returned alongside tokens.
// Never includes the password hash or reset token.
type UserEnvelope struct {
	ID              string  `json:"id"`
	PhoneNumber     *string `json:"phoneNumber,omitempty"`
	Email           *string `json:"email,omitempty"`
	FirstName       string  `json:"firstName,omitempty"`
	LastName        string  `json:"lastName,omitempty"`
	Role            string  `json:"role"`
	IsPhoneVerified bool    `json:"isPhoneVerified"`
	IsEmailVerified bool    `json:"isEmailVerified"`
}

// AuthEnvelope wraps authentication responses.
type AuthEnvelope struct {
	AccessToken string        `json:"access_token"`
	User        *UserEnvelope `json:"user"`
}

func toUserEnvelope(u *domain.User) *UserEnvelope {
	if u == nil {
		return nil
	}
	return &UserEnvelope{
		ID:              u.UserID,
		PhoneNumber:     u.PhoneNumber,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		IsPhoneVerified: u.IsPhoneVerified,
		IsEmailVerified: u.IsEmailVerified,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps wrapped domain sentinels to status codes. Anything
// unrecognized is an internal error; storage failures land here untyped.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrDevOnly):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
