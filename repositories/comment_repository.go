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
	ErrCommentNotFound     = errors.New("comment not found")
	ErrCommentVideoInvalid = errors.New("comment video invalid")
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	ListByVideo(ctx context.Context, videoID, viewerID, limit, offset int) ([]models.CommentView, error)
	Delete(ctx context.Context, id int) error
	DeleteAllByVideo(ctx context.Context, exec SQLExecutor, videoID int) error
	DeleteAllByOwner(ctx context.Context, exec SQLExecutor, ownerID int) error
}

type postgresCommentRepository struct {
	db *sql.DB
}

func NewPostgresCommentRepository(db *sql.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

func (r *postgresCommentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCommentRepository) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (video_id, owner_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, c.VideoID, c.OwnerID, c.Content).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "comments_video_id_fkey" {
				return ErrCommentVideoInvalid
			}
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *postgresCommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	c := &models.Comment{}
	query := `SELECT id, video_id, owner_id, content, created_at FROM comments WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCommentRepository) ListByVideo(ctx context.Context, videoID, viewerID, limit, offset int) ([]models.CommentView, error) {
	query := `
		SELECT
			c.id, c.video_id, c.owner_id, c.content, c.created_at,
			u.id, u.user_name, u.full_name, u.avatar_key,
			(SELECT COUNT(*) FROM relations WHERE kind = 'comment_like' AND object_id = c.id) AS like_count,
			EXISTS (SELECT 1 FROM relations WHERE kind = 'comment_like' AND object_id = c.id
				AND subject_id = $2) AS is_liked
		FROM comments c
		JOIN users u ON u.id = c.owner_id
		WHERE c.video_id = $1
		ORDER BY c.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, videoID, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.CommentView, 0)
	for rows.Next() {
		var cv models.CommentView
		var owner models.User
		if scanErr := rows.Scan(
			&cv.ID, &cv.VideoID, &cv.OwnerID, &cv.Content, &cv.CreatedAt,
			&owner.ID, &owner.UserName, &owner.FullName, &owner.AvatarKey,
			&cv.LikeCount, &cv.IsLiked,
		); scanErr != nil {
			return nil, scanErr
		}
		cv.Owner = &owner
		comments = append(comments, cv)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *postgresCommentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return checkAffectedRows(result, ErrCommentNotFound)
}

// DeleteAllByVideo удаляет комментарии видео вместе с их лайками.
func (r *postgresCommentRepository) DeleteAllByVideo(ctx context.Context, exec SQLExecutor, videoID int) error {
	executor := r.getExecutor(exec)

	_, err := executor.ExecContext(ctx, `
		DELETE FROM relations WHERE kind = 'comment_like'
			AND object_id IN (SELECT id FROM comments WHERE video_id = $1)`, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete comment likes by video: %w", err)
	}

	_, err = executor.ExecContext(ctx, `DELETE FROM comments WHERE video_id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete comments by video: %w", err)
	}
	return nil
}

func (r *postgresCommentRepository) DeleteAllByOwner(ctx context.Context, exec SQLExecutor, ownerID int) error {
	executor := r.getExecutor(exec)

	_, err := executor.ExecContext(ctx, `
		DELETE FROM relations WHERE kind = 'comment_like'
			AND object_id IN (SELECT id FROM comments WHERE owner_id = $1)`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete comment likes by owner: %w", err)
	}

	_, err = executor.ExecContext(ctx, `DELETE FROM comments WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete comments by owner: %w", err)
	}
	return nil
}
