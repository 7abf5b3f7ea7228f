package models

import "time"

type Video struct {
	ID          int       `json:"id" db:"id"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Duration    int       `json:"duration" db:"duration"` // seconds
	Views       int       `json:"views" db:"views"`
	IsPublished bool      `json:"is_published" db:"is_published"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	VideoKey     string  `json:"-" db:"video_key"`
	VideoURL     string  `json:"video_url,omitempty" db:"-"`
	ThumbnailKey *string `json:"-" db:"thumbnail_key"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty" db:"-"`

	Owner *User `json:"owner,omitempty" db:"-"`
}

// VideoDetails — видео с производной статистикой для страницы просмотра.
// Всё вычисляется на чтении из таблицы relations, ничего не денормализуется.
type VideoDetails struct {
	Video
	LikeCount     int    `json:"like_count"`
	IsLiked       bool   `json:"is_liked"`
	FollowerCount int    `json:"follower_count"`
	IsFollowed    bool   `json:"is_followed"`
	OwnerUserName string `json:"owner_user_name"`

	OwnerAvatarKey *string `json:"-"`
	OwnerAvatarURL *string `json:"owner_avatar_url,omitempty"`
}
