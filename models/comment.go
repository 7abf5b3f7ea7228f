package models

import "time"

type Comment struct {
	ID        int       `json:"id" db:"id"`
	VideoID   int       `json:"video_id" db:"video_id"`
	OwnerID   int       `json:"owner_id" db:"owner_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Owner *User `json:"owner,omitempty" db:"-"`
}

type CommentView struct {
	Comment
	LikeCount int  `json:"like_count"`
	IsLiked   bool `json:"is_liked"`
}
