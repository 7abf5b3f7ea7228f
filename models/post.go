package models

import "time"

type Post struct {
	ID        int       `json:"id" db:"id"`
	OwnerID   int       `json:"owner_id" db:"owner_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Owner *User `json:"owner,omitempty" db:"-"`
}

// PostView — пост со счётчиком лайков и флагом для текущего пользователя.
// Оба поля вычисляются агрегацией по relations на чтении.
type PostView struct {
	Post
	LikeCount int  `json:"like_count"`
	IsLiked   bool `json:"is_liked"`
}
