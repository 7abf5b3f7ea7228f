package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/playverse/playverse-backend/middleware"
	"github.com/playverse/playverse-backend/services"
)

type CommentHandler struct {
	commentService services.CommentService
}

func NewCommentHandler(commentService services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CreateHandler обрабатывает POST /videos/{videoID}/comments
func (h *CommentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	videoID, err := getIDFromURL(r, "videoID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to comment")
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	comment, err := h.commentService.Create(r.Context(), currentUserID, videoID, input.Content)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"comment": comment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByVideoHandler обрабатывает GET /videos/{videoID}/comments
func (h *CommentHandler) ListByVideoHandler(w http.ResponseWriter, r *http.Request) {
	videoID, err := getIDFromURL(r, "videoID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	viewerID := middleware.ViewerIDFromContext(r.Context())

	var limit, offset int
	query := r.URL.Query()
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil || limit <= 0 {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err = strconv.Atoi(offsetStr); err != nil || offset < 0 {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
	}

	comments, err := h.commentService.ListByVideo(r.Context(), videoID, viewerID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"comments": comments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /comments/{commentID}
func (h *CommentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "commentID")
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

	if err := h.commentService.Delete(r.Context(), id, currentUserID, currentRole); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
