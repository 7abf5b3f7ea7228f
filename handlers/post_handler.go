package handlers

import (
	"net/http"

	"github.com/playverse/playverse-backend/middleware"
	"github.com/playverse/playverse-backend/services"
)

type PostHandler struct {
	postService services.PostService
}

func NewPostHandler(postService services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// CreateHandler обрабатывает POST /posts
func (h *PostHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create post")
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.postService.Create(r.Context(), currentUserID, input.Content)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListAllHandler обрабатывает GET /posts
func (h *PostHandler) ListAllHandler(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.ViewerIDFromContext(r.Context())

	posts, err := h.postService.ListAll(r.Context(), viewerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"posts": posts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByOwnerHandler обрабатывает GET /users/{userID}/posts
func (h *PostHandler) ListByOwnerHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	viewerID := middleware.ViewerIDFromContext(r.Context())

	posts, err := h.postService.ListByOwner(r.Context(), ownerID, viewerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"posts": posts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /posts/{postID}
func (h *PostHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "postID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.postService.Update(r.Context(), id, currentUserID, input.Content)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /posts/{postID}
func (h *PostHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "postID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	currentRole, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.postService.Delete(r.Context(), id, currentUserID, currentRole); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
