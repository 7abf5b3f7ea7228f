package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/playverse/playverse-backend/models"
)

// ProfileRepository — read-only агрегации по каналу: ни одного мутирующего
// запроса, только свёртки по relations и videos.
type ProfileRepository interface {
	Stats(ctx context.Context, userID int) (*models.ProfileStats, error)
	ListFollowers(ctx context.Context, channelID int) ([]models.FollowerEntry, error)
	ListFollowing(ctx context.Context, followerID int) ([]models.FollowingEntry, error)
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

// Stats возвращает нули для пустого профиля, а не ошибку.
func (r *postgresProfileRepository) Stats(ctx context.Context, userID int) (*models.ProfileStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM relations WHERE kind = 'follow' AND object_id = $1),
			(SELECT COUNT(*) FROM videos WHERE owner_id = $1),
			(SELECT COUNT(*) FROM relations rel
				JOIN videos v ON v.id = rel.object_id
				WHERE rel.kind = 'video_like' AND v.owner_id = $1),
			(SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1)`

	stats := &models.ProfileStats{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalFollowers, &stats.TotalVideos, &stats.TotalLikes, &stats.TotalViews,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate profile stats: %w", err)
	}
	return stats, nil
}

// ListFollowers — подписчики канала с обратной связью: подписан ли канал на
// подписчика и сколько подписчиков у того самого.
func (r *postgresProfileRepository) ListFollowers(ctx context.Context, channelID int) ([]models.FollowerEntry, error) {
	query := `
		SELECT
			u.id, u.user_name, u.full_name, u.avatar_key,
			(SELECT COUNT(*) FROM relations WHERE kind = 'follow' AND object_id = u.id) AS followers_count,
			EXISTS (SELECT 1 FROM relations WHERE kind = 'follow'
				AND subject_id = $1 AND object_id = u.id) AS followed_back
		FROM relations rel
		JOIN users u ON u.id = rel.subject_id
		WHERE rel.kind = 'follow' AND rel.object_id = $1
		ORDER BY rel.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	defer rows.Close()

	entries := make([]models.FollowerEntry, 0)
	for rows.Next() {
		var e models.FollowerEntry
		if scanErr := rows.Scan(
			&e.User.ID, &e.User.UserName, &e.User.FullName, &e.User.AvatarKey,
			&e.FollowersCount, &e.FollowedBack,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFollowing — каналы, на которые подписан пользователь, с последним видео
// каждого канала.
func (r *postgresProfileRepository) ListFollowing(ctx context.Context, followerID int) ([]models.FollowingEntry, error) {
	query := `
		SELECT
			u.id, u.user_name, u.full_name, u.avatar_key,
			v.id, v.owner_id, v.title, v.description, v.duration,
			v.views, v.is_published, v.video_key, v.thumbnail_key, v.created_at
		FROM relations rel
		JOIN users u ON u.id = rel.object_id
		LEFT JOIN LATERAL (
			SELECT * FROM videos
			WHERE owner_id = u.id AND is_published = TRUE
			ORDER BY created_at DESC
			LIMIT 1
		) v ON TRUE
		WHERE rel.kind = 'follow' AND rel.subject_id = $1
		ORDER BY rel.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	defer rows.Close()

	entries := make([]models.FollowingEntry, 0)
	for rows.Next() {
		var e models.FollowingEntry
		var videoID sql.NullInt64
		var ownerID, duration, views sql.NullInt64
		var title, description, videoKey sql.NullString
		var thumbnailKey sql.NullString
		var isPublished sql.NullBool
		var createdAt sql.NullTime

		if scanErr := rows.Scan(
			&e.User.ID, &e.User.UserName, &e.User.FullName, &e.User.AvatarKey,
			&videoID, &ownerID, &title, &description, &duration,
			&views, &isPublished, &videoKey, &thumbnailKey, &createdAt,
		); scanErr != nil {
			return nil, scanErr
		}

		if videoID.Valid {
			video := models.Video{
				ID:          int(videoID.Int64),
				OwnerID:     int(ownerID.Int64),
				Title:       title.String,
				Description: description.String,
				Duration:    int(duration.Int64),
				Views:       int(views.Int64),
				IsPublished: isPublished.Bool,
				VideoKey:    videoKey.String,
				CreatedAt:   createdAt.Time,
			}
			if thumbnailKey.Valid {
				video.ThumbnailKey = &thumbnailKey.String
			}
			e.LatestVideo = &video
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
