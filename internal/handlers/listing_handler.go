package handlers

import (
	"net/http"

	"soukBack/internal/search"
	"soukBack/internal/services"
)

const maxFormMemory = 32 << 20

type ListingHandler struct {
	Service *services.ListingService
	Log     services.Logger
}

func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := search.Criteria{
		Query:     q.Get("q"),
		Category:  q.Get("category"),
		MinPrice:  search.ParsePrice(q.Get("min_price")),
		MaxPrice:  search.ParsePrice(q.Get("max_price")),
		Location:  q.Get("location"),
		Condition: q.Get("condition"),
	}
	page := services.Page{Page: intParam(r, "page"), Limit: intParam(r, "limit")}

	list, err := h.Service.Search(r.Context(), criteria, search.ParseSort(q.Get("sort")), page)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ListingHandler) GetListingByID(w http.ResponseWriter, r *http.Request) {
	l, err := h.Service.Get(r.Context(), getParam(r, "id"))
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	var main *services.Upload
	if mains, err := readUploads(r.MultipartForm, "image"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	} else if len(mains) > 0 {
		main = &mains[0]
	}

	res, err := h.Service.Submit(r.Context(), sellerID, form.draft, main, form.extra)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	var main *services.Upload
	if mains, err := readUploads(r.MultipartForm, "image"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	} else if len(mains) > 0 {
		main = &mains[0]
	}
	remove, _, err := gatherStringsFromForm(r.MultipartForm, "remove_images", "remove_images[]")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Service.Update(r.Context(), sellerID, getParam(r, "id"), form.draft, main, form.extra, remove)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), sellerID, getParam(r, "id")); err != nil {
		respondError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	h.setSold(w, r, true)
}

func (h *ListingHandler) MarkUnsold(w http.ResponseWriter, r *http.Request) {
	h.setSold(w, r, false)
}

func (h *ListingHandler) setSold(w http.ResponseWriter, r *http.Request, sold bool) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	l, err := h.Service.MarkSold(r.Context(), sellerID, getParam(r, "id"), sold)
	if err != nil {
		respondError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type listingForm struct {
	draft services.ListingDraft
	extra []services.Upload
}

func (h *ListingHandler) parseForm(w http.ResponseWriter, r *http.Request) (listingForm, bool) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return listingForm{}, false
	}

	features, _, err := gatherStringsFromForm(r.MultipartForm, "features", "features[]")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return listingForm{}, false
	}
	extra, err := readUploads(r.MultipartForm, "images", "images[]")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return listingForm{}, false
	}

	return listingForm{
		draft: services.ListingDraft{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Price:       r.FormValue("price"),
			Category:    r.FormValue("category"),
			Location:    r.FormValue("location"),
			Condition:   r.FormValue("condition"),
			Features:    features,
		},
		extra: extra,
	}, true
}
