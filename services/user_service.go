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

type UpdateUserInput struct {
	UserName string `json:"user_name"`
	FullName string `json:"full_name"`
}

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	Update(ctx context.Context, id int, input UpdateUserInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error)
	UploadCover(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error)
	Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error
}

type userService struct {
	db       *sql.DB
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	cleanup  *CleanupRegistry
}

func NewUserService(db *sql.DB, userRepo repositories.UserRepository, uploader storage.FileUploader, cleanup *CleanupRegistry) UserService {
	return &userService{
		db:       db,
		userRepo: userRepo,
		uploader: uploader,
		cleanup:  cleanup,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	populateUserURLs(user, s.uploader)
	return user, nil
}

func (s *userService) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	user, err := s.userRepo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	populateUserURLs(user, s.uploader)
	return user, nil
}

func (s *userService) Update(ctx context.Context, id int, input UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if input.UserName != "" {
		user.UserName = input.UserName
	}
	if input.FullName != "" {
		user.FullName = input.FullName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserUserNameConflict):
			return nil, ErrUserNameConflict
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	populateUserURLs(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error) {
	return s.uploadImage(ctx, userID, contentType, file, "users/avatars", s.userRepo.UpdateAvatarKey, func(u *models.User) *string { return u.AvatarKey })
}

func (s *userService) UploadCover(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error) {
	return s.uploadImage(ctx, userID, contentType, file, "users/covers", s.userRepo.UpdateCoverKey, func(u *models.User) *string { return u.CoverKey })
}

// uploadImage заливает новый объект, затем переключает ключ в БД и лишь потом
// best effort удаляет старый объект. Порядок гарантирует, что в БД никогда не
// окажется ключ несуществующего объекта.
func (s *userService) uploadImage(
	ctx context.Context,
	userID int,
	contentType string,
	file io.Reader,
	prefix string,
	updateKey func(ctx context.Context, userID int, key *string) error,
	currentKey func(*models.User) *string,
) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, ErrValidationFailed
	}
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)

	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, ErrUploadFailed
	}
	if err := updateKey(ctx, userID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, fmt.Errorf("failed to update image key: %w", err)
	}
	if old := currentKey(user); old != nil && *old != "" {
		_ = s.uploader.Delete(ctx, *old)
	}

	return s.GetByID(ctx, userID)
}

// Delete удаляет аккаунт и все зависимые сущности в одной транзакции. Сам
// пользователь может удалить только себя, администратор — кого угодно.
func (s *userService) Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error {
	if id != requesterID && requesterRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.cleanup != nil {
		if err := s.cleanup.RunAll(ctx, tx, "user", id); err != nil {
			return err
		}
	}
	if err := s.userRepo.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user delete: %w", err)
	}

	// Объекты в хранилище чистим после коммита.
	if user.AvatarKey != nil && *user.AvatarKey != "" {
		_ = s.uploader.Delete(ctx, *user.AvatarKey)
	}
	if user.CoverKey != nil && *user.CoverKey != "" {
		_ = s.uploader.Delete(ctx, *user.CoverKey)
	}
	return nil
}
