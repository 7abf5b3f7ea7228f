package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
)

const (
	minPasswordLength    = 8
	verificationTokenTTL = 24 * time.Hour
	passwordResetTTL     = 1 * time.Hour
)

type RegisterInput struct {
	UserName string `json:"user_name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.User, string, error)
	ConfirmEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	userRepo  repositories.UserRepository
	email     EmailSender
	jwtSecret []byte
	jwtTTL    time.Duration
	baseURL   string
	clock     clockwork.Clock
	logger    *slog.Logger
}

func NewAuthService(
	userRepo repositories.UserRepository,
	email EmailSender,
	jwtSecret []byte,
	jwtTTL time.Duration,
	baseURL string,
	clock clockwork.Clock,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		email:     email,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		baseURL:   baseURL,
		clock:     clock,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.UserName == "" || input.Email == "" {
		return nil, ErrValidationFailed
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		UserName:     input.UserName,
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserUserNameConflict):
			return nil, ErrUserNameConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	verification := &models.EmailVerification{
		UserID:    user.ID,
		Token:     generateRandomToken(32),
		ExpiresAt: s.clock.Now().Add(verificationTokenTTL),
	}
	if err := s.userRepo.CreateEmailVerification(ctx, verification); err != nil {
		return nil, fmt.Errorf("failed to create email verification: %w", err)
	}

	// Письмо уходит асинхронно: регистрация не должна ждать SMTP.
	go s.sendVerificationEmail(user.Email, verification.Token)

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.User, string, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка создания токена: %w", err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) error {
	verification, err := s.userRepo.GetEmailVerification(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("failed to get email verification: %w", err)
	}
	if s.clock.Now().After(verification.ExpiresAt) {
		_ = s.userRepo.DeleteEmailVerification(ctx, token)
		return ErrTokenInvalid
	}

	if err := s.userRepo.MarkEmailVerified(ctx, verification.UserID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return s.userRepo.DeleteEmailVerification(ctx, token)
}

// RequestPasswordReset не раскрывает, зарегистрирован ли email: ответ
// одинаков в обоих случаях.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user by email: %w", err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     generateRandomToken(32),
		ExpiresAt: s.clock.Now().Add(passwordResetTTL),
	}
	if err := s.userRepo.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	go s.sendPasswordResetEmail(user.Email, reset.Token)
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	reset, err := s.userRepo.GetPasswordReset(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("failed to get password reset: %w", err)
	}
	if s.clock.Now().After(reset.ExpiresAt) {
		_ = s.userRepo.DeletePasswordReset(ctx, token)
		return ErrTokenInvalid
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, reset.UserID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return s.userRepo.DeletePasswordReset(ctx, token)
}

func (s *authService) generateJWT(user *models.User) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(s.jwtTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) sendVerificationEmail(to, token string) {
	if s.email == nil {
		return
	}
	link := fmt.Sprintf("%s/auth/confirm?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`<p>Добро пожаловать в PlayVerse!</p><p>Подтвердите почту: <a href="%s">%s</a></p>`, link, link)
	if err := s.email.SendEmail([]string{to}, "Подтверждение почты", body); err != nil && s.logger != nil {
		s.logger.Error("failed to send verification email", slog.Any("error", err))
	}
}

func (s *authService) sendPasswordResetEmail(to, token string) {
	if s.email == nil {
		return
	}
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(`<p>Запрошен сброс пароля.</p><p>Ссылка действует один час: <a href="%s">%s</a></p>`, link, link)
	if err := s.email.SendEmail([]string{to}, "Сброс пароля", body); err != nil && s.logger != nil {
		s.logger.Error("failed to send password reset email", slog.Any("error", err))
	}
}
