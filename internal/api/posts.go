package api

import (
	"errors"
	"net/http"

	"github.com/kalambet/corkboard/internal/model"
	"github.com/kalambet/corkboard/internal/storage"
)

func handleListPosts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := deps.Store.ListPosts(0)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list posts: %v", err)
			return
		}
		if posts == nil {
			posts = []model.Post{}
		}
		writeJSON(w, http.StatusOK, model.PostsResponse{Posts: posts})
	}
}

func handleGetPost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		p, err := deps.Store.GetPost(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "post %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get post: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleCreatePost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.Post
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := deps.Store.CreatePost(req)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create post: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func handleUpdatePost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		var patch model.PostPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		p, err := deps.Store.UpdatePost(id, patch)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "post %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update post: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleDeletePost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		err := deps.Store.DeletePost(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "post %d not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete post: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
