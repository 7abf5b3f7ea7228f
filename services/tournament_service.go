package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/playverse/playverse-backend/live"
	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

type CreateTournamentInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	GameID      int             `json:"game_id"`
	Schedule    models.Schedule `json:"schedule"`
	PlayerLimit int             `json:"player_limit"`
	TeamBased   bool            `json:"team_based"`

	// Баннер опционален. Если Banner != nil, BannerContentType обязателен.
	Banner            io.Reader `json:"-"`
	BannerContentType string    `json:"-"`
}

type UpdateTournamentInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// Баннер опционален. Если Banner != nil, ContentType обязателен.
	Banner            io.Reader `json:"-"`
	BannerContentType string    `json:"-"`
}

type TournamentService interface {
	Create(ctx context.Context, ownerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, id, requesterID int, input UpdateTournamentInput) (*models.Tournament, error)
	Join(ctx context.Context, tournamentID, userID int) error
	RecordResult(ctx context.Context, tournamentID, requesterID int, places []int) (*models.Tournament, error)
	Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	uploader       storage.FileUploader
	cleanup        *CleanupRegistry
	hub            *live.Hub
	clock          clockwork.Clock
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	cleanup *CleanupRegistry,
	hub *live.Hub,
	clock clockwork.Clock,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		uploader:       uploader,
		cleanup:        cleanup,
		hub:            hub,
		clock:          clock,
	}
}

func (s *tournamentService) Create(ctx context.Context, ownerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Title == "" {
		return nil, ErrTournamentTitleRequired
	}
	if err := validateSchedule(input.Schedule); err != nil {
		return nil, err
	}
	if input.PlayerLimit <= 0 {
		return nil, ErrTournamentInvalidPlayerLimit
	}

	exists, err := s.gameRepo.Exists(ctx, input.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to check game: %w", err)
	}
	if !exists {
		return nil, ErrGameNotFound
	}

	tournament := &models.Tournament{
		Title:       input.Title,
		Description: input.Description,
		OwnerID:     ownerID,
		GameID:      input.GameID,
		Schedule:    input.Schedule,
		PlayerLimit: input.PlayerLimit,
		TeamBased:   input.TeamBased,
	}

	// Баннер грузится до записи в БД: при сбое загрузки турнир не создаётся.
	if input.Banner != nil {
		ext, extErr := GetExtensionFromContentType(input.BannerContentType)
		if extErr != nil {
			return nil, ErrValidationFailed
		}
		key := fmt.Sprintf("tournaments/banners/%s%s", uuid.NewString(), ext)
		if _, upErr := s.uploader.Upload(ctx, key, input.BannerContentType, input.Banner); upErr != nil {
			return nil, ErrUploadFailed
		}
		tournament.BannerKey = &key
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if tournament.BannerKey != nil {
			_ = s.uploader.Delete(ctx, *tournament.BannerKey)
		}
		switch {
		case errors.Is(err, repositories.ErrTournamentTitleConflict):
			return nil, ErrTournamentTitleConflict
		case errors.Is(err, repositories.ErrTournamentInvalidGame):
			return nil, ErrGameNotFound
		case errors.Is(err, repositories.ErrTournamentInvalidOwner):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	tournament.CurrentPhase = tournament.Phase(s.clock.Now())
	populateTournamentURLs(tournament, s.uploader)
	return tournament, nil
}

// GetByID возвращает турнир вместе с игрой и составом участников.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	game, err := s.gameRepo.GetByID(ctx, tournament.GameID)
	if err != nil && !errors.Is(err, repositories.ErrGameNotFound) {
		return nil, fmt.Errorf("failed to load tournament game: %w", err)
	}
	tournament.Game = game

	if tournament.TeamBased {
		teams, err := s.tournamentRepo.ListTeams(ctx, id)
		if err != nil {
			return nil, err
		}
		tournament.Teams = teams
	} else {
		players, err := s.tournamentRepo.ListPlayers(ctx, id)
		if err != nil {
			return nil, err
		}
		tournament.Players = players
	}

	tournament.CurrentPhase = tournament.Phase(s.clock.Now())
	populateTournamentURLs(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	now := s.clock.Now()
	for i := range tournaments {
		tournaments[i].CurrentPhase = tournaments[i].Phase(now)
		populateTournamentURLs(&tournaments[i], s.uploader)
	}
	return tournaments, nil
}

// Update меняет заголовок и описание вместе, опционально заменяя баннер.
// Старый баннер удаляется по принципу best effort: потерянный объект в
// хранилище лучше, чем откат уже применённого обновления.
func (s *tournamentService) Update(ctx context.Context, id, requesterID int, input UpdateTournamentInput) (*models.Tournament, error) {
	if input.Title == "" || input.Description == "" {
		return nil, ErrTitleAndDescriptionNeeded
	}

	tournament, err := s.tournamentRepo.GetByIDAndOwner(ctx, id, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	if err := s.tournamentRepo.UpdateDetails(ctx, id, input.Title, input.Description); err != nil {
		if errors.Is(err, repositories.ErrTournamentTitleConflict) {
			return nil, ErrTournamentTitleConflict
		}
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}

	if input.Banner != nil {
		ext, extErr := GetExtensionFromContentType(input.BannerContentType)
		if extErr != nil {
			return nil, ErrValidationFailed
		}
		key := fmt.Sprintf("tournaments/banners/%s%s", uuid.NewString(), ext)

		if _, upErr := s.uploader.Upload(ctx, key, input.BannerContentType, input.Banner); upErr != nil {
			return nil, ErrUploadFailed
		}
		if keyErr := s.tournamentRepo.UpdateBannerKey(ctx, id, &key); keyErr != nil {
			// Новый объект уже загружен, убираем, чтобы не висел сиротой.
			_ = s.uploader.Delete(ctx, key)
			return nil, fmt.Errorf("failed to update tournament banner: %w", keyErr)
		}
		if tournament.BannerKey != nil && *tournament.BannerKey != "" {
			_ = s.uploader.Delete(ctx, *tournament.BannerKey)
		}
	}

	return s.GetByID(ctx, id)
}

// Join регистрирует вызывающего в турнире. Для сольного турнира добавляется
// сам пользователь, для командного — снимок команды, которой он владеет.
func (s *tournamentService) Join(ctx context.Context, tournamentID, userID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to get tournament: %w", err)
	}

	now := s.clock.Now()
	if !tournament.RegistrationOpenAt(now) {
		if now.Before(tournament.Schedule.Registration.Start) {
			return ErrRegistrationNotOpen
		}
		return ErrRegistrationClosed
	}

	if tournament.TeamBased {
		return s.joinAsTeam(ctx, tournament, userID)
	}
	return s.joinAsPlayer(ctx, tournament, userID)
}

func (s *tournamentService) joinAsPlayer(ctx context.Context, tournament *models.Tournament, userID int) error {
	err := s.tournamentRepo.AddPlayer(ctx, tournament.ID, userID, tournament.PlayerLimit)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentPlayerConflict):
			return ErrAlreadyJoined
		case errors.Is(err, repositories.ErrTournamentCapacityReached):
			return ErrTournamentFull
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to join tournament: %w", err)
	}

	s.broadcastRoster(ctx, tournament)
	return nil
}

func (s *tournamentService) joinAsTeam(ctx context.Context, tournament *models.Tournament, userID int) error {
	team, err := s.teamRepo.FindByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrNoOwnedTeam
		}
		return fmt.Errorf("failed to find owned team: %w", err)
	}

	teams, err := s.tournamentRepo.ListTeams(ctx, tournament.ID)
	if err != nil {
		return err
	}
	if len(teams) >= tournament.PlayerLimit {
		return ErrTournamentFull
	}

	memberIDs, err := s.teamRepo.ListMemberIDs(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to list team members: %w", err)
	}

	// Снимок состава: изменения исходной команды после регистрации не влияют
	// на состав в турнире.
	snapshot := &models.TournamentTeam{
		TournamentID: tournament.ID,
		Name:         team.Name,
		OwnerID:      userID,
		MemberIDs:    memberIDs,
	}
	if err := s.tournamentRepo.AddTeamSnapshot(ctx, nil, snapshot); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentTeamConflict):
			return ErrAlreadyJoined
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to register team: %w", err)
	}

	s.broadcastRoster(ctx, tournament)
	return nil
}

// RecordResult фиксирует призовые места. Доступно только владельцу турнира;
// постороннему запрос отвечает так же, как на несуществующий турнир.
func (s *tournamentService) RecordResult(ctx context.Context, tournamentID, requesterID int, places []int) (*models.Tournament, error) {
	if len(places) == 0 {
		return nil, ErrValidationFailed
	}
	if len(places) > 3 {
		return nil, ErrTournamentResultTooLong
	}

	if _, err := s.tournamentRepo.GetByIDAndOwner(ctx, tournamentID, requesterID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	var result models.TournamentResult
	result.First = &places[0]
	if len(places) > 1 {
		result.Second = &places[1]
	}
	if len(places) > 2 {
		result.Third = &places[2]
	}

	if err := s.tournamentRepo.UpdateResult(ctx, tournamentID, result); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentResultUserInvalid):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to record tournament result: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), live.Event{
			Type:    live.EventResultRecorded,
			Payload: result,
		})
	}

	return s.GetByID(ctx, tournamentID)
}

// Delete удаляет турнир вместе с регистрациями в одной транзакции. Баннер
// убирается из хранилища уже после коммита, по принципу best effort.
func (s *tournamentService) Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament.OwnerID != requesterID && requesterRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.cleanup != nil {
		if err := s.cleanup.RunAll(ctx, tx, "tournament", id); err != nil {
			return err
		}
	}
	if err := s.tournamentRepo.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tournament delete: %w", err)
	}

	if tournament.BannerKey != nil && *tournament.BannerKey != "" {
		_ = s.uploader.Delete(ctx, *tournament.BannerKey)
	}
	return nil
}

func (s *tournamentService) broadcastRoster(ctx context.Context, tournament *models.Tournament) {
	if s.hub == nil {
		return
	}
	payload := map[string]interface{}{"tournament_id": tournament.ID}
	if tournament.TeamBased {
		if teams, err := s.tournamentRepo.ListTeams(ctx, tournament.ID); err == nil {
			payload["teams"] = teams
		}
	} else {
		if players, err := s.tournamentRepo.ListPlayers(ctx, tournament.ID); err == nil {
			payload["players"] = players
		}
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournament.ID), live.Event{
		Type:    live.EventRosterUpdated,
		Payload: payload,
	})
}
