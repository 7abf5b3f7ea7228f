package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

type PostService interface {
	Create(ctx context.Context, ownerID int, content string) (*models.Post, error)
	ListByOwner(ctx context.Context, ownerID, viewerID int) ([]models.PostView, error)
	ListAll(ctx context.Context, viewerID int) ([]models.PostView, error)
	Update(ctx context.Context, id, requesterID int, content string) (*models.Post, error)
	Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error
}

type postService struct {
	postRepo     repositories.PostRepository
	relationRepo repositories.RelationRepository
	uploader     storage.FileUploader
}

func NewPostService(postRepo repositories.PostRepository, relationRepo repositories.RelationRepository, uploader storage.FileUploader) PostService {
	return &postService{postRepo: postRepo, relationRepo: relationRepo, uploader: uploader}
}

func (s *postService) Create(ctx context.Context, ownerID int, content string) (*models.Post, error) {
	if content == "" {
		return nil, ErrValidationFailed
	}

	post := &models.Post{OwnerID: ownerID, Content: content}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrPostOwnerInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

func (s *postService) ListByOwner(ctx context.Context, ownerID, viewerID int) ([]models.PostView, error) {
	posts, err := s.postRepo.ListByOwner(ctx, ownerID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	s.populate(posts)
	return posts, nil
}

func (s *postService) ListAll(ctx context.Context, viewerID int) ([]models.PostView, error) {
	posts, err := s.postRepo.ListAll(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	s.populate(posts)
	return posts, nil
}

func (s *postService) Update(ctx context.Context, id, requesterID int, content string) (*models.Post, error) {
	if content == "" {
		return nil, ErrValidationFailed
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post.OwnerID != requesterID {
		return nil, ErrForbiddenOperation
	}

	if err := s.postRepo.UpdateContent(ctx, id, content); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	post.Content = content
	return post, nil
}

func (s *postService) Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to get post: %w", err)
	}
	if post.OwnerID != requesterID && requesterRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	// Сначала лайки, потом сам пост. Оба вызова идут вне транзакции: висячая
	// строка relations безвредна, она не видна ни одному счётчику.
	if err := s.relationRepo.DeleteAllByObject(ctx, nil, models.KindPostLike, id); err != nil {
		return fmt.Errorf("failed to delete post likes: %w", err)
	}
	if err := s.postRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (s *postService) populate(posts []models.PostView) {
	for i := range posts {
		if posts[i].Owner != nil {
			populateUserURLs(posts[i].Owner, s.uploader)
		}
	}
}
