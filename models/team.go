package models

import "time"

type Team struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	MemberLimit int       `json:"member_limit" db:"member_limit"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Owner   *User  `json:"owner,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`
}
