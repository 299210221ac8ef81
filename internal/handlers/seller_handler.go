package handlers

import (
	"net/http"

	"soukBack/internal/models"
	"soukBack/internal/services"
)

type SellerHandler struct {
	Service  *services.SellerService
	Listings *services.ListingService
	Log      services.Logger
}

type deviceTokenRequest struct {
	Token string `json:"token"`
}

func (h *SellerHandler) GetSeller(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Profile(r.Context(), getParam(r, "id"))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *SellerHandler) GetSellerListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Listings.BySeller(r.Context(), getParam(r, "id"))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *SellerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.ProfileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Service.UpdateProfile(r.Context(), id, req)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *SellerHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	uploads, err := readUploads(r.MultipartForm, "avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(uploads) == 0 {
		respondError(w, h.Log, validationError("avatar", "an image is required"))
		return
	}

	p, err := h.Service.UploadAvatar(r.Context(), id, uploads[0])
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *SellerHandler) SetDeviceToken(w http.ResponseWriter, r *http.Request) {
	id, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req deviceTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.SetDeviceToken(r.Context(), id, req.Token); err != nil {
		respondError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
