package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/playverse/playverse-backend/middleware"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/services"
)

type VideoHandler struct {
	videoService services.VideoService
}

func NewVideoHandler(videoService services.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

// PublishHandler обрабатывает POST /videos (multipart: video, thumbnail,
// title, description, duration).
func (h *VideoHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to publish video")
		return
	}

	// Лимит на размер всего запроса, сами файлы стримятся во временные файлы.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := services.PublishVideoInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if durationStr := r.FormValue("duration"); durationStr != "" {
		duration, durErr := strconv.Atoi(durationStr)
		if durErr != nil || duration < 0 {
			badRequestResponse(w, r, errors.New("invalid duration form value"))
			return
		}
		input.Duration = duration
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		badRequestResponse(w, r, errors.New("video file is required"))
		return
	}
	defer file.Close()
	input.File = file
	input.FileContentType = header.Header.Get("Content-Type")

	if thumb, thumbHeader, thumbErr := r.FormFile("thumbnail"); thumbErr == nil {
		defer thumb.Close()
		input.Thumbnail = thumb
		input.ThumbnailContentType = thumbHeader.Header.Get("Content-Type")
	}

	video, err := h.videoService.Publish(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"video": video}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDetailsHandler обрабатывает GET /videos/{videoID}
func (h *VideoHandler) GetDetailsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "videoID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	viewerID := middleware.ViewerIDFromContext(r.Context())

	details, err := h.videoService.GetDetails(r.Context(), id, viewerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"video": details}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /videos с поиском и пагинацией
func (h *VideoHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListVideosFilter
	query := r.URL.Query()

	filter.TitleSearch = query.Get("search")
	filter.SortAsc = query.Get("sort") == "asc"

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	} else {
		filter.Limit = 20
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		} else {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
	}

	videos, err := h.videoService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"videos": videos}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByOwnerHandler обрабатывает GET /users/{userID}/videos
func (h *VideoHandler) ListByOwnerHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	videos, err := h.videoService.ListByOwner(r.Context(), ownerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"videos": videos}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /videos/{videoID} (multipart: title,
// description, опциональный thumbnail).
func (h *VideoHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "videoID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := services.UpdateVideoInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if thumb, thumbHeader, thumbErr := r.FormFile("thumbnail"); thumbErr == nil {
		defer thumb.Close()
		input.Thumbnail = thumb
		input.ThumbnailContentType = thumbHeader.Header.Get("Content-Type")
	}

	video, err := h.videoService.Update(r.Context(), id, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"video": video}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TogglePublishedHandler обрабатывает POST /videos/{videoID}/publish
func (h *VideoHandler) TogglePublishedHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "videoID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	published, err := h.videoService.TogglePublished(r.Context(), id, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"is_published": published}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /videos/{videoID}
func (h *VideoHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "videoID")
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

	if err := h.videoService.Delete(r.Context(), id, currentUserID, currentRole); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
