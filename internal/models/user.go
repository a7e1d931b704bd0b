package models

import "time"

// User represents a registered account, keyed by email.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nick         string    `json:"nick"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}
