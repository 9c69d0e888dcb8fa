package model

import "time"

// Ingredient is a named unit-of-measure item in one member's catalog.
// Name is unique per member.
type Ingredient struct {
	ID        int64     `json:"id"        db:"id"`
	MemberID  int64     `json:"-"         db:"member_id"`
	Name      string    `json:"name"      db:"name"`
	Unit      string    `json:"unit"      db:"unit"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
