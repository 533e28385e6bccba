package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"photo-mapper/model"
	"photo-mapper/storage"
)

type tagRequest struct {
	Name string `json:"name"`
}

func (h *PhotoHandlers) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Db.ListTags(r.Context())
	if err != nil {
		h.internalError(w, "failed to list tags", err)
		return
	}
	respondJSON(w, h.Log, http.StatusOK, tags)
}

func (h *PhotoHandlers) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name, err := model.NormalizeTagName(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tag, err := h.Db.CreateTag(r.Context(), name)
	if errors.Is(err, storage.ErrDuplicateTag) {
		http.Error(w, "Tag already exists", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internalError(w, "failed to create tag", err)
		return
	}
	respondJSON(w, h.Log, http.StatusCreated, tag)
}

func (h *PhotoHandlers) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	err := h.Db.DeleteTag(r.Context(), mux.Vars(r)["name"])
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Tag not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "failed to delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
