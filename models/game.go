package models

import "time"

// Game представляет игру из каталога, на которую ссылаются турниры.
type Game struct {
	ID          int       `json:"id" db:"id"`
	GameName    string    `json:"game_name" db:"game_name"`
	Description string    `json:"description" db:"description"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	CoverKey *string `json:"-" db:"cover_key"`
	CoverURL *string `json:"cover_url,omitempty" db:"-"`
}
