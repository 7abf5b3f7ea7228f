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
	ErrPostNotFound     = errors.New("post not found")
	ErrPostOwnerInvalid = errors.New("post owner invalid")
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	// ListByOwner и ListAll возвращают посты с производным счётчиком лайков и
	// флагом isLiked для viewerID. Флаг не хранится в строке поста: он всегда
	// выводится из relations, поэтому не может разойтись с фактом.
	ListByOwner(ctx context.Context, ownerID, viewerID int) ([]models.PostView, error)
	ListAll(ctx context.Context, viewerID int) ([]models.PostView, error)
	UpdateContent(ctx context.Context, id int, content string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteAllByOwner(ctx context.Context, exec SQLExecutor, ownerID int) error
}

type postgresPostRepository struct {
	db *sql.DB
}

func NewPostgresPostRepository(db *sql.DB) PostRepository {
	return &postgresPostRepository{db: db}
}

func (r *postgresPostRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPostRepository) Create(ctx context.Context, p *models.Post) error {
	query := `
		INSERT INTO posts (owner_id, content)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, p.OwnerID, p.Content).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPostOwnerInvalid
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *postgresPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	p := &models.Post{}
	query := `SELECT id, owner_id, content, created_at FROM posts WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.OwnerID, &p.Content, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

const postViewQuery = `
	SELECT
		p.id, p.owner_id, p.content, p.created_at,
		u.id, u.user_name, u.full_name, u.avatar_key,
		(SELECT COUNT(*) FROM relations WHERE kind = 'post_like' AND object_id = p.id) AS like_count,
		EXISTS (SELECT 1 FROM relations WHERE kind = 'post_like' AND object_id = p.id
			AND subject_id = $1) AS is_liked
	FROM posts p
	JOIN users u ON u.id = p.owner_id`

func (r *postgresPostRepository) ListByOwner(ctx context.Context, ownerID, viewerID int) ([]models.PostView, error) {
	query := postViewQuery + ` WHERE p.owner_id = $2 ORDER BY p.created_at DESC`
	return r.queryPostViews(ctx, query, viewerID, ownerID)
}

func (r *postgresPostRepository) ListAll(ctx context.Context, viewerID int) ([]models.PostView, error) {
	query := postViewQuery + ` ORDER BY p.created_at DESC`
	return r.queryPostViews(ctx, query, viewerID)
}

func (r *postgresPostRepository) queryPostViews(ctx context.Context, query string, args ...interface{}) ([]models.PostView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.PostView, 0)
	for rows.Next() {
		var pv models.PostView
		var owner models.User
		if scanErr := rows.Scan(
			&pv.ID, &pv.OwnerID, &pv.Content, &pv.CreatedAt,
			&owner.ID, &owner.UserName, &owner.FullName, &owner.AvatarKey,
			&pv.LikeCount, &pv.IsLiked,
		); scanErr != nil {
			return nil, scanErr
		}
		pv.Owner = &owner
		posts = append(posts, pv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postgresPostRepository) UpdateContent(ctx context.Context, id int, content string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE posts SET content = $1 WHERE id = $2`, content, id)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return checkAffectedRows(result, ErrPostNotFound)
}

func (r *postgresPostRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return checkAffectedRows(result, ErrPostNotFound)
}

func (r *postgresPostRepository) DeleteAllByOwner(ctx context.Context, exec SQLExecutor, ownerID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM posts WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete posts by owner: %w", err)
	}
	return nil
}
