package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/playverse/playverse-backend/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserUserNameConflict = errors.New("user name conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error
	UpdateCoverKey(ctx context.Context, userID int, coverKey *string) error
	UpdatePasswordHash(ctx context.Context, userID int, passwordHash string) error
	MarkEmailVerified(ctx context.Context, userID int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error

	CreateEmailVerification(ctx context.Context, v *models.EmailVerification) error
	GetEmailVerification(ctx context.Context, token string) (*models.EmailVerification, error)
	DeleteEmailVerification(ctx context.Context, token string) error
	CreatePasswordReset(ctx context.Context, pr *models.PasswordReset) error
	GetPasswordReset(ctx context.Context, token string) (*models.PasswordReset, error)
	DeletePasswordReset(ctx context.Context, token string) error
	DeleteTokens(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `id, user_name, full_name, email, email_verified, password_hash, role, avatar_key, cover_key, created_at`

func scanUser(row interface{ Scan(dest ...interface{}) error }, u *models.User) error {
	return row.Scan(
		&u.ID, &u.UserName, &u.FullName, &u.Email, &u.EmailVerified,
		&u.PasswordHash, &u.Role, &u.AvatarKey, &u.CoverKey, &u.CreatedAt,
	)
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_name, full_name, email, email_verified, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName,
		user.FullName,
		user.Email,
		user.EmailVerified,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_user_name_key":
				return ErrUserUserNameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	u := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, args...), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *postgresUserRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_name = $1`, userName)
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			user_name = $1,
			full_name = $2,
			email = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, user.UserName, user.FullName, user.Email, user.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_user_name_key":
				return ErrUserUserNameConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_key = $1 WHERE id = $2`, avatarKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update user avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateCoverKey(ctx context.Context, userID int, coverKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET cover_key = $1 WHERE id = $2`, coverKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update user cover key: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePasswordHash(ctx context.Context, userID int, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) MarkEmailVerified(ctx context.Context, userID int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET email_verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) CreateEmailVerification(ctx context.Context, v *models.EmailVerification) error {
	query := `
		INSERT INTO email_verifications (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET token = $2, expires_at = $3`
	_, err := r.db.ExecContext(ctx, query, v.UserID, v.Token, v.ExpiresAt)
	return err
}

func (r *postgresUserRepository) GetEmailVerification(ctx context.Context, token string) (*models.EmailVerification, error) {
	v := &models.EmailVerification{}
	query := `SELECT user_id, token, expires_at FROM email_verifications WHERE token = $1`
	err := r.db.QueryRowContext(ctx, query, token).Scan(&v.UserID, &v.Token, &v.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *postgresUserRepository) DeleteEmailVerification(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM email_verifications WHERE token = $1`, token)
	return err
}

func (r *postgresUserRepository) CreatePasswordReset(ctx context.Context, pr *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET token = $2, expires_at = $3`
	_, err := r.db.ExecContext(ctx, query, pr.UserID, pr.Token, pr.ExpiresAt)
	return err
}

func (r *postgresUserRepository) GetPasswordReset(ctx context.Context, token string) (*models.PasswordReset, error) {
	pr := &models.PasswordReset{}
	query := `SELECT user_id, token, expires_at FROM password_resets WHERE token = $1`
	err := r.db.QueryRowContext(ctx, query, token).Scan(&pr.UserID, &pr.Token, &pr.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return pr, nil
}

func (r *postgresUserRepository) DeletePasswordReset(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE token = $1`, token)
	return err
}

// DeleteTokens снимает неиспользованные токены подтверждения почты и сброса
// пароля. Выполняется в транзакции удаления аккаунта.
func (r *postgresUserRepository) DeleteTokens(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}

	statements := []string{
		`DELETE FROM email_verifications WHERE user_id = $1`,
		`DELETE FROM password_resets WHERE user_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := executor.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("failed to delete user tokens: %w", err)
		}
	}
	return nil
}
