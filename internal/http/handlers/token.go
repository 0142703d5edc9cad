// Package handlers contiene los handlers HTTP de la API.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/fabula/internal/bridge"
	"github.com/dropDatabas3/fabula/internal/http/helpers"
)

// Exchanger es lo que el handler necesita del servicio de bridge.
type Exchanger interface {
	Exchange(ctx context.Context, req bridge.Request) (*bridge.Result, error)
}

type TokenHandler struct {
	svc Exchanger
}

func NewTokenHandler(svc Exchanger) *TokenHandler {
	return &TokenHandler{svc: svc}
}

type tokenRequest struct {
	UserID      string `json:"userId,omitempty"`
	AccessToken string `json:"accessToken"`
	Email       string `json:"email,omitempty"`
}

// Exchange maneja POST /v1/auth/{provider}/token.
func (h *TokenHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	var in tokenRequest
	if err := helpers.ReadJSON(w, r, &in); err != nil {
		helpers.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.svc.Exchange(r.Context(), bridge.Request{
		Provider:    providerName,
		UserID:      in.UserID,
		AccessToken: in.AccessToken,
		Email:       in.Email,
	})
	switch {
	case err == nil:
		helpers.WriteJSON(w, http.StatusOK, res)
	case errors.Is(err, bridge.ErrInvalidInput):
		helpers.WriteError(w, r, http.StatusBadRequest, "invalid_request", "malformed exchange request")
	case errors.Is(err, bridge.ErrUnauthorized):
		helpers.WriteError(w, r, http.StatusUnauthorized, "invalid_token", "provider rejected the access token")
	case errors.Is(err, bridge.ErrUpstream):
		helpers.WriteError(w, r, http.StatusInternalServerError, "provider_unavailable", "identity provider is unreachable")
	default:
		helpers.WriteError(w, r, http.StatusInternalServerError, "internal_error", "token exchange failed")
	}
}
