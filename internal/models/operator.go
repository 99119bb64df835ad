package models

import "time"

// Operator is an account allowed to drive the panel. Sessions and journal
// entries carry the operator's ID.
type Operator struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialized
	CreatedAt    time.Time `json:"created_at"`
}
