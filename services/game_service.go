package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

type CreateGameInput struct {
	GameName    string `json:"game_name"`
	Description string `json:"description"`

	Cover            io.Reader `json:"-"`
	CoverContentType string    `json:"-"`
}

// GameService управляет каталогом игр. Создание и удаление доступны только
// администраторам, проверка роли лежит на обработчиках.
type GameService interface {
	Create(ctx context.Context, ownerID int, input CreateGameInput) (*models.Game, error)
	GetByID(ctx context.Context, id int) (*models.Game, error)
	GetAll(ctx context.Context) ([]models.Game, error)
	Delete(ctx context.Context, id int) error
}

type gameService struct {
	gameRepo repositories.GameRepository
	uploader storage.FileUploader
}

func NewGameService(gameRepo repositories.GameRepository, uploader storage.FileUploader) GameService {
	return &gameService{gameRepo: gameRepo, uploader: uploader}
}

func (s *gameService) Create(ctx context.Context, ownerID int, input CreateGameInput) (*models.Game, error) {
	if input.GameName == "" {
		return nil, ErrValidationFailed
	}

	game := &models.Game{
		GameName:    input.GameName,
		Description: input.Description,
		OwnerID:     ownerID,
	}

	if input.Cover != nil {
		ext, err := GetExtensionFromContentType(input.CoverContentType)
		if err != nil {
			return nil, ErrValidationFailed
		}
		key := fmt.Sprintf("games/covers/%s%s", uuid.NewString(), ext)
		if _, err := s.uploader.Upload(ctx, key, input.CoverContentType, input.Cover); err != nil {
			return nil, ErrUploadFailed
		}
		game.CoverKey = &key
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		if game.CoverKey != nil {
			_ = s.uploader.Delete(ctx, *game.CoverKey)
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	populateGameURLs(game, s.uploader)
	return game, nil
}

func (s *gameService) GetByID(ctx context.Context, id int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	populateGameURLs(game, s.uploader)
	return game, nil
}

func (s *gameService) GetAll(ctx context.Context) ([]models.Game, error) {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	for i := range games {
		populateGameURLs(&games[i], s.uploader)
	}
	return games, nil
}

func (s *gameService) Delete(ctx context.Context, id int) error {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to get game: %w", err)
	}

	if err := s.gameRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrGameNotFound):
			return ErrGameNotFound
		case errors.Is(err, repositories.ErrGameInUse):
			// На игру ссылаются турниры, удалять нельзя.
			return ErrValidationFailed
		}
		return fmt.Errorf("failed to delete game: %w", err)
	}

	if game.CoverKey != nil && *game.CoverKey != "" {
		_ = s.uploader.Delete(ctx, *game.CoverKey)
	}
	return nil
}
