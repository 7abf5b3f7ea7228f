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
	ErrVideoNotFound     = errors.New("video not found")
	ErrVideoOwnerInvalid = errors.New("video owner invalid")
)

type ListVideosFilter struct {
	TitleSearch string
	SortAsc     bool
	Limit       int
	Offset      int
}

type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id int) (*models.Video, error)
	// GetDetails возвращает видео с производной статистикой для viewerID:
	// счётчик лайков, лайкнул ли зритель, подписчики владельца и подписан ли
	// зритель. Всё считается одним запросом по relations.
	GetDetails(ctx context.Context, id, viewerID int) (*models.VideoDetails, error)
	List(ctx context.Context, filter ListVideosFilter) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Video, error)
	ListLikedBy(ctx context.Context, subjectID int) ([]models.Video, error)
	IncrementViews(ctx context.Context, id int) error
	UpdateDetails(ctx context.Context, id int, title, description string) error
	UpdateThumbnailKey(ctx context.Context, id int, thumbnailKey *string) error
	TogglePublished(ctx context.Context, id int) (bool, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteAllByOwner(ctx context.Context, exec SQLExecutor, ownerID int) error
}

type postgresVideoRepository struct {
	db *sql.DB
}

func NewPostgresVideoRepository(db *sql.DB) VideoRepository {
	return &postgresVideoRepository{db: db}
}

func (r *postgresVideoRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const videoColumns = `id, owner_id, title, description, duration, views, is_published, video_key, thumbnail_key, created_at`

func scanVideo(row interface{ Scan(dest ...interface{}) error }, v *models.Video) error {
	return row.Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.Duration,
		&v.Views, &v.IsPublished, &v.VideoKey, &v.ThumbnailKey, &v.CreatedAt,
	)
}

func (r *postgresVideoRepository) Create(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (owner_id, title, description, duration, video_key, thumbnail_key, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, views, created_at`

	err := r.db.QueryRowContext(ctx, query,
		v.OwnerID, v.Title, v.Description, v.Duration, v.VideoKey, v.ThumbnailKey, v.IsPublished,
	).Scan(&v.ID, &v.Views, &v.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrVideoOwnerInvalid
		}
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

func (r *postgresVideoRepository) GetByID(ctx context.Context, id int) (*models.Video, error) {
	v := &models.Video{}
	err := scanVideo(r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id), v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *postgresVideoRepository) GetDetails(ctx context.Context, id, viewerID int) (*models.VideoDetails, error) {
	query := `
		SELECT
			v.id, v.owner_id, v.title, v.description, v.duration,
			v.views, v.is_published, v.video_key, v.thumbnail_key, v.created_at,
			u.user_name, u.avatar_key,
			(SELECT COUNT(*) FROM relations WHERE kind = 'video_like' AND object_id = v.id)    AS like_count,
			EXISTS (SELECT 1 FROM relations WHERE kind = 'video_like' AND object_id = v.id
				AND subject_id = $2)                                                           AS is_liked,
			(SELECT COUNT(*) FROM relations WHERE kind = 'follow' AND object_id = v.owner_id)  AS follower_count,
			EXISTS (SELECT 1 FROM relations WHERE kind = 'follow' AND object_id = v.owner_id
				AND subject_id = $2)                                                           AS is_followed
		FROM videos v
		JOIN users u ON u.id = v.owner_id
		WHERE v.id = $1`

	d := &models.VideoDetails{}
	err := r.db.QueryRowContext(ctx, query, id, viewerID).Scan(
		&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.Duration,
		&d.Views, &d.IsPublished, &d.VideoKey, &d.ThumbnailKey, &d.CreatedAt,
		&d.OwnerUserName, &d.OwnerAvatarKey,
		&d.LikeCount, &d.IsLiked, &d.FollowerCount, &d.IsFollowed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}
	return d, nil
}

func (r *postgresVideoRepository) List(ctx context.Context, filter ListVideosFilter) ([]models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE is_published = TRUE`
	args := []interface{}{}
	argID := 1

	if filter.TitleSearch != "" {
		query += fmt.Sprintf(" AND title ILIKE $%d", argID)
		args = append(args, "%"+filter.TitleSearch+"%")
		argID++
	}

	if filter.SortAsc {
		query += " ORDER BY id ASC"
	} else {
		query += " ORDER BY id DESC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	return r.queryVideos(ctx, query, args...)
}

func (r *postgresVideoRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.queryVideos(ctx, query, ownerID)
}

func (r *postgresVideoRepository) ListLikedBy(ctx context.Context, subjectID int) ([]models.Video, error) {
	query := `
		SELECT v.id, v.owner_id, v.title, v.description, v.duration,
			v.views, v.is_published, v.video_key, v.thumbnail_key, v.created_at
		FROM relations rel
		JOIN videos v ON v.id = rel.object_id
		WHERE rel.kind = 'video_like' AND rel.subject_id = $1
		ORDER BY rel.created_at DESC`
	return r.queryVideos(ctx, query, subjectID)
}

func (r *postgresVideoRepository) queryVideos(ctx context.Context, query string, args ...interface{}) ([]models.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		var v models.Video
		if scanErr := scanVideo(rows, &v); scanErr != nil {
			return nil, scanErr
		}
		videos = append(videos, v)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *postgresVideoRepository) IncrementViews(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment video views: %w", err)
	}
	return checkAffectedRows(result, ErrVideoNotFound)
}

func (r *postgresVideoRepository) UpdateDetails(ctx context.Context, id int, title, description string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE videos SET title = $1, description = $2 WHERE id = $3`, title, description, id)
	if err != nil {
		return fmt.Errorf("failed to update video details: %w", err)
	}
	return checkAffectedRows(result, ErrVideoNotFound)
}

func (r *postgresVideoRepository) UpdateThumbnailKey(ctx context.Context, id int, thumbnailKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE videos SET thumbnail_key = $1 WHERE id = $2`, thumbnailKey, id)
	if err != nil {
		return fmt.Errorf("failed to update video thumbnail key: %w", err)
	}
	return checkAffectedRows(result, ErrVideoNotFound)
}

// TogglePublished атомарно инвертирует флаг публикации и возвращает новое
// значение. Чтение-модификация-запись в приложении здесь была бы гонкой.
func (r *postgresVideoRepository) TogglePublished(ctx context.Context, id int) (bool, error) {
	var published bool
	err := r.db.QueryRowContext(ctx,
		`UPDATE videos SET is_published = NOT is_published WHERE id = $1 RETURNING is_published`, id,
	).Scan(&published)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrVideoNotFound
		}
		return false, fmt.Errorf("failed to toggle video publish state: %w", err)
	}
	return published, nil
}

func (r *postgresVideoRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return checkAffectedRows(result, ErrVideoNotFound)
}

func (r *postgresVideoRepository) DeleteAllByOwner(ctx context.Context, exec SQLExecutor, ownerID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM videos WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete videos by owner: %w", err)
	}
	return nil
}
