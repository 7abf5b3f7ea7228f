package handlers

import (
	"net/http"

	"github.com/playverse/playverse-backend/middleware"
	"github.com/playverse/playverse-backend/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfileHandler обрабатывает GET /profiles/{userID}
func (h *ProfileHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	viewerID := middleware.ViewerIDFromContext(r.Context())

	profile, err := h.profileService.GetProfile(r.Context(), id, viewerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStatsHandler обрабатывает GET /profiles/{userID}/stats
func (h *ProfileHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.profileService.GetStats(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListFollowersHandler обрабатывает GET /profiles/{userID}/followers
func (h *ProfileHandler) ListFollowersHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	followers, err := h.profileService.ListFollowers(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"followers": followers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListFollowingHandler обрабатывает GET /profiles/{userID}/following
func (h *ProfileHandler) ListFollowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	following, err := h.profileService.ListFollowing(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"following": following}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
