package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kalambet/corkboard/internal/model"
	"github.com/kalambet/corkboard/internal/storage"
)

func handleListLabels(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := deps.Store.ListLabels(0)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list labels: %v", err)
			return
		}
		if labels == nil {
			labels = []model.Label{}
		}
		writeJSON(w, http.StatusOK, model.LabelsResponse{Labels: labels})
	}
}

func handleGetLabel(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		l, err := deps.Store.GetLabel(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "label %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get label: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func handleCreateLabel(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.Label
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Target) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text and target are required")
			return
		}
		l, err := deps.Store.CreateLabel(req)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create label: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

// handleUpdateLabel applies the fields present in the body; absent fields are kept.
func handleUpdateLabel(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		var patch model.LabelPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		l, err := deps.Store.UpdateLabel(id, patch)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "label %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update label: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func handleDeleteLabel(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		err := deps.Store.DeleteLabel(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "label %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete label: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
