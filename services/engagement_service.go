package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

// EngagementService переключает связи "пользователь — объект": подписки и
// лайки всех видов. Семантика toggle: активная связь выключается, отсутствующая
// включается. Конкурентные первые переключения схлопываются в одну строку
// уникальным индексом, обе стороны получают Active=true.
type EngagementService interface {
	Toggle(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (*models.ToggleResult, error)
	IsActive(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error)
	CountForObject(ctx context.Context, kind models.RelationKind, objectID int) (int, error)
	ListLikedVideos(ctx context.Context, subjectID int) ([]models.Video, error)
}

type engagementService struct {
	relationRepo repositories.RelationRepository
	userRepo     repositories.UserRepository
	videoRepo    repositories.VideoRepository
	commentRepo  repositories.CommentRepository
	postRepo     repositories.PostRepository
	uploader     storage.FileUploader
}

func NewEngagementService(
	relationRepo repositories.RelationRepository,
	userRepo repositories.UserRepository,
	videoRepo repositories.VideoRepository,
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	uploader storage.FileUploader,
) EngagementService {
	return &engagementService{
		relationRepo: relationRepo,
		userRepo:     userRepo,
		videoRepo:    videoRepo,
		commentRepo:  commentRepo,
		postRepo:     postRepo,
		uploader:     uploader,
	}
}

func (s *engagementService) Toggle(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (*models.ToggleResult, error) {
	if kind == models.KindFollow && subjectID == objectID {
		return nil, ErrSelfFollowForbidden
	}
	if err := s.checkObjectExists(ctx, kind, objectID); err != nil {
		return nil, err
	}

	// Сначала пробуем снять связь. Если её не было, ставим через
	// ON CONFLICT DO NOTHING: проигравший конкурентную вставку тоже видит
	// связь активной.
	existed, err := s.relationRepo.DeleteByKey(ctx, subjectID, kind, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle %s: %w", kind, err)
	}
	if existed {
		return &models.ToggleResult{Active: false}, nil
	}

	if _, err := s.relationRepo.InsertIfAbsent(ctx, subjectID, kind, objectID); err != nil {
		return nil, fmt.Errorf("failed to toggle %s: %w", kind, err)
	}
	return &models.ToggleResult{Active: true}, nil
}

func (s *engagementService) IsActive(ctx context.Context, subjectID int, kind models.RelationKind, objectID int) (bool, error) {
	return s.relationRepo.Exists(ctx, subjectID, kind, objectID)
}

func (s *engagementService) CountForObject(ctx context.Context, kind models.RelationKind, objectID int) (int, error) {
	return s.relationRepo.CountByObject(ctx, kind, objectID)
}

func (s *engagementService) ListLikedVideos(ctx context.Context, subjectID int) ([]models.Video, error) {
	videos, err := s.videoRepo.ListLikedBy(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked videos: %w", err)
	}
	for i := range videos {
		populateVideoURLs(&videos[i], s.uploader)
	}
	return videos, nil
}

func (s *engagementService) checkObjectExists(ctx context.Context, kind models.RelationKind, objectID int) error {
	switch kind {
	case models.KindFollow:
		if _, err := s.userRepo.GetByID(ctx, objectID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to check user: %w", err)
		}
	case models.KindVideoLike:
		if _, err := s.videoRepo.GetByID(ctx, objectID); err != nil {
			if errors.Is(err, repositories.ErrVideoNotFound) {
				return ErrVideoNotFound
			}
			return fmt.Errorf("failed to check video: %w", err)
		}
	case models.KindCommentLike:
		if _, err := s.commentRepo.GetByID(ctx, objectID); err != nil {
			if errors.Is(err, repositories.ErrCommentNotFound) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("failed to check comment: %w", err)
		}
	case models.KindPostLike:
		if _, err := s.postRepo.GetByID(ctx, objectID); err != nil {
			if errors.Is(err, repositories.ErrPostNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("failed to check post: %w", err)
		}
	default:
		return ErrValidationFailed
	}
	return nil
}
