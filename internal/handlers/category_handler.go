package handlers

import (
	"net/http"

	"soukBack/internal/catalog"
)

type CategoryHandler struct {
	Tree *catalog.Tree
}

func (h *CategoryHandler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tree.All())
}

func (h *CategoryHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	c, ok := h.Tree.Find(getParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
