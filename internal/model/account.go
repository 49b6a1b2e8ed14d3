package model

import (
	"time"
)

type Account struct {
	ID              string     `db:"id" json:"id"`
	ProviderSubject string     `db:"provider_subject" json:"-"`
	Email           string     `db:"email" json:"email"`
	DisplayName     string     `db:"display_name" json:"name"`
	AvatarURL       string     `db:"avatar_url" json:"avatar_url"`
	TotalSaved      Money      `db:"total_saved_cents" json:"total_saved"`
	CurrentStreak   int        `db:"current_streak" json:"current_streak"`
	LastSaveAt      *time.Time `db:"last_save_at" json:"last_save_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Identity is the verified output of the identity provider. Subject is the
// only matching key; the profile fields are copied on first sign-in.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}
