package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/playverse/playverse-backend/middleware"
	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(tournamentService services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

// CreateHandler обрабатывает POST /tournaments. Принимает JSON либо
// multipart/form-data, если вместе с турниром загружается баннер.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		parsed, parseErr := parseCreateTournamentForm(r)
		if parseErr != nil {
			badRequestResponse(w, r, parseErr)
			return
		}
		input = *parsed
	} else if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /tournaments
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	query := r.URL.Query()

	if gameIDStr := query.Get("game_id"); gameIDStr != "" {
		if id, err := strconv.Atoi(gameIDStr); err == nil && id > 0 {
			filter.GameID = &id
		} else {
			badRequestResponse(w, r, errors.New("invalid game_id query parameter"))
			return
		}
	}
	if ownerIDStr := query.Get("owner_id"); ownerIDStr != "" {
		if id, err := strconv.Atoi(ownerIDStr); err == nil && id > 0 {
			filter.OwnerID = &id
		} else {
			badRequestResponse(w, r, errors.New("invalid owner_id query parameter"))
			return
		}
	}
	if teamBasedStr := query.Get("team_based"); teamBasedStr != "" {
		teamBased, err := strconv.ParseBool(teamBasedStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid team_based query parameter"))
			return
		}
		filter.TeamBased = &teamBased
	}
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

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PUT /tournaments/{tournamentID} (multipart:
// поля title, description и опциональный файл banner).
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
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

	input := services.UpdateTournamentInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	if file, header, fileErr := r.FormFile("banner"); fileErr == nil {
		defer file.Close()
		input.Banner = file
		input.BannerContentType = header.Header.Get("Content-Type")
	}

	tournament, err := h.tournamentService.Update(r.Context(), id, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinHandler обрабатывает POST /tournaments/{tournamentID}/join
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to join tournament")
		return
	}

	if err := h.tournamentService.Join(r.Context(), id, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "joined tournament"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResultHandler обрабатывает PUT /tournaments/{tournamentID}/result
func (h *TournamentHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
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
		Places []int `json:"places"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.RecordResult(r.Context(), id, currentUserID, input.Places)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /tournaments/{tournamentID}
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
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

	if err := h.tournamentService.Delete(r.Context(), id, currentUserID, currentRole); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseCreateTournamentForm разбирает multipart-вариант создания турнира.
// Времена окон передаются в RFC3339.
func parseCreateTournamentForm(r *http.Request) (*services.CreateTournamentInput, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, err
	}

	gameID, err := strconv.Atoi(r.FormValue("game_id"))
	if err != nil {
		return nil, errors.New("invalid game_id form value")
	}
	playerLimit, err := strconv.Atoi(r.FormValue("player_limit"))
	if err != nil {
		return nil, errors.New("invalid player_limit form value")
	}
	teamBased := false
	if v := r.FormValue("team_based"); v != "" {
		if teamBased, err = strconv.ParseBool(v); err != nil {
			return nil, errors.New("invalid team_based form value")
		}
	}

	schedule := models.Schedule{}
	for _, field := range []struct {
		name string
		dst  *time.Time
	}{
		{"registration_start", &schedule.Registration.Start},
		{"registration_end", &schedule.Registration.End},
		{"matches_start", &schedule.Matches.Start},
		{"matches_end", &schedule.Matches.End},
	} {
		parsed, parseErr := time.Parse(time.RFC3339, r.FormValue(field.name))
		if parseErr != nil {
			return nil, fmt.Errorf("invalid %s form value, want RFC3339", field.name)
		}
		*field.dst = parsed
	}

	input := &services.CreateTournamentInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		GameID:      gameID,
		Schedule:    schedule,
		PlayerLimit: playerLimit,
		TeamBased:   teamBased,
	}
	if file, header, fileErr := r.FormFile("banner"); fileErr == nil {
		input.Banner = file
		input.BannerContentType = header.Header.Get("Content-Type")
	}
	return input, nil
}
