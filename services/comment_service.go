package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

const (
	defaultCommentPageSize = 20
	maxCommentPageSize     = 100
)

type CommentService interface {
	Create(ctx context.Context, ownerID, videoID int, content string) (*models.Comment, error)
	ListByVideo(ctx context.Context, videoID, viewerID, limit, offset int) ([]models.CommentView, error)
	Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error
}

type commentService struct {
	commentRepo  repositories.CommentRepository
	videoRepo    repositories.VideoRepository
	relationRepo repositories.RelationRepository
	uploader     storage.FileUploader
}

func NewCommentService(
	commentRepo repositories.CommentRepository,
	videoRepo repositories.VideoRepository,
	relationRepo repositories.RelationRepository,
	uploader storage.FileUploader,
) CommentService {
	return &commentService{
		commentRepo:  commentRepo,
		videoRepo:    videoRepo,
		relationRepo: relationRepo,
		uploader:     uploader,
	}
}

func (s *commentService) Create(ctx context.Context, ownerID, videoID int, content string) (*models.Comment, error) {
	if content == "" {
		return nil, ErrValidationFailed
	}

	comment := &models.Comment{VideoID: videoID, OwnerID: ownerID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrCommentVideoInvalid) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) ListByVideo(ctx context.Context, videoID, viewerID, limit, offset int) ([]models.CommentView, error) {
	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to check video: %w", err)
	}

	if limit <= 0 {
		limit = defaultCommentPageSize
	}
	if limit > maxCommentPageSize {
		limit = maxCommentPageSize
	}
	if offset < 0 {
		offset = 0
	}

	comments, err := s.commentRepo.ListByVideo(ctx, videoID, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	for i := range comments {
		if comments[i].Owner != nil {
			populateUserURLs(comments[i].Owner, s.uploader)
		}
	}
	return comments, nil
}

// Delete доступно автору комментария, владельцу видео и администратору.
func (s *commentService) Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to get comment: %w", err)
	}

	allowed := comment.OwnerID == requesterID || requesterRole == models.RoleAdmin
	if !allowed {
		video, videoErr := s.videoRepo.GetByID(ctx, comment.VideoID)
		if videoErr == nil && video.OwnerID == requesterID {
			allowed = true
		}
	}
	if !allowed {
		return ErrForbiddenOperation
	}

	if err := s.relationRepo.DeleteAllByObject(ctx, nil, models.KindCommentLike, id); err != nil {
		return fmt.Errorf("failed to delete comment likes: %w", err)
	}
	if err := s.commentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
