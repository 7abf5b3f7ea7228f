package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

// Profile — агрегат страницы профиля: сам пользователь, статистика канала и
// флаг подписки для зрителя.
type Profile struct {
	User       models.User         `json:"user"`
	Stats      models.ProfileStats `json:"stats"`
	IsFollowed bool                `json:"is_followed"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID, viewerID int) (*Profile, error)
	GetStats(ctx context.Context, userID int) (*models.ProfileStats, error)
	ListFollowers(ctx context.Context, channelID int) ([]models.FollowerEntry, error)
	ListFollowing(ctx context.Context, followerID int) ([]models.FollowingEntry, error)
}

type profileService struct {
	userRepo     repositories.UserRepository
	profileRepo  repositories.ProfileRepository
	relationRepo repositories.RelationRepository
	uploader     storage.FileUploader
}

func NewProfileService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	relationRepo repositories.RelationRepository,
	uploader storage.FileUploader,
) ProfileService {
	return &profileService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		relationRepo: relationRepo,
		uploader:     uploader,
	}
}

// GetProfile собирает агрегат профиля. Статистика и флаг подписки читаются
// параллельно: они независимы между собой.
func (s *profileService) GetProfile(ctx context.Context, userID, viewerID int) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	profile := &Profile{User: *user}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, statsErr := s.profileRepo.Stats(gctx, userID)
		if statsErr != nil {
			return fmt.Errorf("failed to load profile stats: %w", statsErr)
		}
		profile.Stats = *stats
		return nil
	})
	if viewerID > 0 && viewerID != userID {
		g.Go(func() error {
			followed, folErr := s.relationRepo.Exists(gctx, viewerID, models.KindFollow, userID)
			if folErr != nil {
				return fmt.Errorf("failed to check follow: %w", folErr)
			}
			profile.IsFollowed = followed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	populateUserURLs(&profile.User, s.uploader)
	return profile, nil
}

func (s *profileService) GetStats(ctx context.Context, userID int) (*models.ProfileStats, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	stats, err := s.profileRepo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile stats: %w", err)
	}
	return stats, nil
}

func (s *profileService) ListFollowers(ctx context.Context, channelID int) ([]models.FollowerEntry, error) {
	entries, err := s.profileRepo.ListFollowers(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	for i := range entries {
		populateUserURLs(&entries[i].User, s.uploader)
	}
	return entries, nil
}

func (s *profileService) ListFollowing(ctx context.Context, followerID int) ([]models.FollowingEntry, error) {
	entries, err := s.profileRepo.ListFollowing(ctx, followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	for i := range entries {
		populateUserURLs(&entries[i].User, s.uploader)
		if entries[i].LatestVideo != nil {
			populateVideoURLs(entries[i].LatestVideo, s.uploader)
		}
	}
	return entries, nil
}
