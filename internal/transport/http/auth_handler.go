package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"quizdeck-service/internal/auth"
	"quizdeck-service/internal/domain"
)

// AuthHandler exposes login/register over plain JSON POSTs.
type AuthHandler struct {
	service *auth.Service
	log     *zap.Logger
}

func NewAuthHandler(service *auth.Service, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{service: service, log: log}
}

type credentialsPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// ServeLogin handles POST /auth/login.
func (h *AuthHandler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, user, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, domain.ErrInvalidCredentials) && !errors.Is(err, domain.ErrUserNotFound) {
			status = http.StatusInternalServerError
			h.log.Warn("login failed", zap.Error(err))
		}
		http.Error(w, "login failed", status)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// ServeRegister handles POST /auth/register.
func (h *AuthHandler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, user, err := h.service.Register(r.Context(), payload.Email, payload.Password, payload.DisplayName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsPayload, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return credentialsPayload{}, false
	}
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return credentialsPayload{}, false
	}
	if payload.Email == "" || payload.Password == "" {
		http.Error(w, "missing email or password", http.StatusBadRequest)
		return credentialsPayload{}, false
	}
	return payload, true
}
