package models

import "time"

// RelationKind задаёт вид связи "один-к-одному" между пользователем и
// объектом. Подписки и все разновидности лайков хранятся в одной таблице:
// наличие строки означает "активно", отсутствие — "неактивно".
type RelationKind string

const (
	KindFollow      RelationKind = "follow"       // object = channel (user) id
	KindVideoLike   RelationKind = "video_like"   // object = video id
	KindCommentLike RelationKind = "comment_like" // object = comment id
	KindPostLike    RelationKind = "post_like"    // object = post id
)

// Relation — одна активная связь (subject, kind, object). Инвариант: не более
// одной строки на тройку, закреплён уникальным индексом в БД.
type Relation struct {
	ID        int          `json:"id" db:"id"`
	SubjectID int          `json:"subject_id" db:"subject_id"`
	Kind      RelationKind `json:"kind" db:"kind"`
	ObjectID  int          `json:"object_id" db:"object_id"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// ToggleResult сообщает, активна ли связь после переключения.
type ToggleResult struct {
	Active bool `json:"active"`
}
