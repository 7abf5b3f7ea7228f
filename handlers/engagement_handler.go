package handlers

import (
	"net/http"

	"github.com/playverse/playverse-backend/middleware"
	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/services"
)

// EngagementHandler обслуживает переключатели подписок и лайков. Все четыре
// эндпоинта идут через один сервис, различается только вид связи.
type EngagementHandler struct {
	engagementService services.EngagementService
}

func NewEngagementHandler(engagementService services.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// ToggleFollowHandler обрабатывает POST /channels/{userID}/follow
func (h *EngagementHandler) ToggleFollowHandler(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "userID", models.KindFollow)
}

// ToggleVideoLikeHandler обрабатывает POST /videos/{videoID}/like
func (h *EngagementHandler) ToggleVideoLikeHandler(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoID", models.KindVideoLike)
}

// ToggleCommentLikeHandler обрабатывает POST /comments/{commentID}/like
func (h *EngagementHandler) ToggleCommentLikeHandler(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentID", models.KindCommentLike)
}

// TogglePostLikeHandler обрабатывает POST /posts/{postID}/like
func (h *EngagementHandler) TogglePostLikeHandler(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "postID", models.KindPostLike)
}

func (h *EngagementHandler) toggle(w http.ResponseWriter, r *http.Request, param string, kind models.RelationKind) {
	objectID, err := getIDFromURL(r, param)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	result, err := h.engagementService.Toggle(r.Context(), currentUserID, kind, objectID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListLikedVideosHandler обрабатывает GET /videos/liked
func (h *EngagementHandler) ListLikedVideosHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	videos, err := h.engagementService.ListLikedVideos(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"videos": videos}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
