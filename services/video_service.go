package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

type PublishVideoInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"` // seconds, сообщает клиент

	File            io.Reader `json:"-"`
	FileContentType string    `json:"-"`

	Thumbnail            io.Reader `json:"-"`
	ThumbnailContentType string    `json:"-"`
}

type UpdateVideoInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	Thumbnail            io.Reader `json:"-"`
	ThumbnailContentType string    `json:"-"`
}

type VideoService interface {
	Publish(ctx context.Context, ownerID int, input PublishVideoInput) (*models.Video, error)
	// GetDetails возвращает видео со статистикой и засчитывает просмотр.
	GetDetails(ctx context.Context, id, viewerID int) (*models.VideoDetails, error)
	List(ctx context.Context, filter repositories.ListVideosFilter) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Video, error)
	Update(ctx context.Context, id, requesterID int, input UpdateVideoInput) (*models.Video, error)
	TogglePublished(ctx context.Context, id, requesterID int) (bool, error)
	Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error
}

type videoService struct {
	db        *sql.DB
	videoRepo repositories.VideoRepository
	uploader  storage.FileUploader
	cleanup   *CleanupRegistry
}

func NewVideoService(db *sql.DB, videoRepo repositories.VideoRepository, uploader storage.FileUploader, cleanup *CleanupRegistry) VideoService {
	return &videoService{
		db:        db,
		videoRepo: videoRepo,
		uploader:  uploader,
		cleanup:   cleanup,
	}
}

// Publish загружает файл видео и превью в хранилище, затем сохраняет запись.
// Видео создаётся неопубликованным, владелец включает публикацию отдельно.
func (s *videoService) Publish(ctx context.Context, ownerID int, input PublishVideoInput) (*models.Video, error) {
	if input.Title == "" || input.File == nil {
		return nil, ErrValidationFailed
	}
	if input.Duration < 0 {
		return nil, ErrValidationFailed
	}

	ext, err := GetExtensionFromContentType(input.FileContentType)
	if err != nil {
		return nil, ErrValidationFailed
	}
	videoKey := fmt.Sprintf("videos/%s%s", uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, videoKey, input.FileContentType, input.File); err != nil {
		return nil, ErrUploadFailed
	}

	var thumbnailKey *string
	if input.Thumbnail != nil {
		thumbExt, thumbErr := GetExtensionFromContentType(input.ThumbnailContentType)
		if thumbErr != nil {
			_ = s.uploader.Delete(ctx, videoKey)
			return nil, ErrValidationFailed
		}
		key := fmt.Sprintf("videos/thumbnails/%s%s", uuid.NewString(), thumbExt)
		if _, thumbErr = s.uploader.Upload(ctx, key, input.ThumbnailContentType, input.Thumbnail); thumbErr != nil {
			_ = s.uploader.Delete(ctx, videoKey)
			return nil, ErrUploadFailed
		}
		thumbnailKey = &key
	}

	video := &models.Video{
		OwnerID:      ownerID,
		Title:        input.Title,
		Description:  input.Description,
		Duration:     input.Duration,
		VideoKey:     videoKey,
		ThumbnailKey: thumbnailKey,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		_ = s.uploader.Delete(ctx, videoKey)
		if thumbnailKey != nil {
			_ = s.uploader.Delete(ctx, *thumbnailKey)
		}
		if errors.Is(err, repositories.ErrVideoOwnerInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	populateVideoURLs(video, s.uploader)
	return video, nil
}

func (s *videoService) GetDetails(ctx context.Context, id, viewerID int) (*models.VideoDetails, error) {
	details, err := s.videoRepo.GetDetails(ctx, id, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	// Счётчик просмотров не критичен, его сбой не должен ломать просмотр.
	if err := s.videoRepo.IncrementViews(ctx, id); err == nil {
		details.Views++
	}

	populateVideoURLs(&details.Video, s.uploader)
	if details.OwnerAvatarKey != nil && *details.OwnerAvatarKey != "" {
		if url := s.uploader.GetPublicURL(*details.OwnerAvatarKey); url != "" {
			details.OwnerAvatarURL = &url
		}
	}
	return details, nil
}

func (s *videoService) List(ctx context.Context, filter repositories.ListVideosFilter) ([]models.Video, error) {
	videos, err := s.videoRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	for i := range videos {
		populateVideoURLs(&videos[i], s.uploader)
	}
	return videos, nil
}

func (s *videoService) ListByOwner(ctx context.Context, ownerID int) ([]models.Video, error) {
	videos, err := s.videoRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos by owner: %w", err)
	}
	for i := range videos {
		populateVideoURLs(&videos[i], s.uploader)
	}
	return videos, nil
}

func (s *videoService) Update(ctx context.Context, id, requesterID int, input UpdateVideoInput) (*models.Video, error) {
	if input.Title == "" || input.Description == "" {
		return nil, ErrTitleAndDescriptionNeeded
	}

	video, err := s.getOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	if err := s.videoRepo.UpdateDetails(ctx, id, input.Title, input.Description); err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to update video: %w", err)
	}

	if input.Thumbnail != nil {
		ext, extErr := GetExtensionFromContentType(input.ThumbnailContentType)
		if extErr != nil {
			return nil, ErrValidationFailed
		}
		key := fmt.Sprintf("videos/thumbnails/%s%s", uuid.NewString(), ext)
		if _, upErr := s.uploader.Upload(ctx, key, input.ThumbnailContentType, input.Thumbnail); upErr != nil {
			return nil, ErrUploadFailed
		}
		if keyErr := s.videoRepo.UpdateThumbnailKey(ctx, id, &key); keyErr != nil {
			_ = s.uploader.Delete(ctx, key)
			return nil, fmt.Errorf("failed to update thumbnail key: %w", keyErr)
		}
		if video.ThumbnailKey != nil && *video.ThumbnailKey != "" {
			_ = s.uploader.Delete(ctx, *video.ThumbnailKey)
		}
	}

	updated, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload video: %w", err)
	}
	populateVideoURLs(updated, s.uploader)
	return updated, nil
}

// TogglePublished атомарно переворачивает флаг публикации и возвращает новое
// значение.
func (s *videoService) TogglePublished(ctx context.Context, id, requesterID int) (bool, error) {
	if _, err := s.getOwned(ctx, id, requesterID); err != nil {
		return false, err
	}

	published, err := s.videoRepo.TogglePublished(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return false, ErrVideoNotFound
		}
		return false, fmt.Errorf("failed to toggle published: %w", err)
	}
	return published, nil
}

func (s *videoService) Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("failed to get video: %w", err)
	}
	if video.OwnerID != requesterID && requesterRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.cleanup != nil {
		if err := s.cleanup.RunAll(ctx, tx, "video", id); err != nil {
			return err
		}
	}
	if err := s.videoRepo.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit video delete: %w", err)
	}

	_ = s.uploader.Delete(ctx, video.VideoKey)
	if video.ThumbnailKey != nil && *video.ThumbnailKey != "" {
		_ = s.uploader.Delete(ctx, *video.ThumbnailKey)
	}
	return nil
}

func (s *videoService) getOwned(ctx context.Context, id, requesterID int) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	if video.OwnerID != requesterID {
		return nil, ErrForbiddenOperation
	}
	return video, nil
}
