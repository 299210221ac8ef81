package handlers

import (
	"net/http"
	"strings"

	"soukBack/internal/models"
	"soukBack/internal/services"
)

type AuthHandler struct {
	Service *services.AuthService
	Sellers *services.SellerService
	Log     services.Logger
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type meResponse struct {
	User    models.User          `json:"user"`
	Profile models.SellerProfile `json:"profile"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tokens, err := h.Service.SignUp(r.Context(), req)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokens)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tokens, err := h.Service.SignIn(r.Context(), req)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tokens, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.SignOut(r.Context(), req.RefreshToken); err != nil {
		respondError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	user, err := h.Service.CurrentUser(r.Context(), token)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	profile, err := h.Sellers.EnsureProfile(r.Context(), user)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user, Profile: profile})
}

func (h *AuthHandler) EmailExists(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": h.Service.EmailExists(r.Context(), req.Email)})
}
