// Package model defines the data structures used throughout the application.
//
// The `db:"..."` tags are read by sqlx when scanning rows into structs, and
// the `json:"..."` tags by encoding/json when a model is written directly
// into a response. Fields that must never leave the server use `json:"-"`.
package model

import "time"

// Member is a registered account and the owner of ingredients and recipes.
//
// LoginID is unique and never changes after join. PasswordHash holds the
// bcrypt output, never the plaintext.
type Member struct {
	ID           int64     `json:"id"        db:"id"`
	LoginID      string    `json:"loginId"   db:"login_id"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Nickname     string    `json:"nickname"  db:"nickname"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
