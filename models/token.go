package models

import "time"

// EmailVerification — одноразовый токен подтверждения почты.
type EmailVerification struct {
	UserID    int       `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// PasswordReset — одноразовый токен сброса пароля.
type PasswordReset struct {
	UserID    int       `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}
