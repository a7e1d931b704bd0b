package models

import "time"

// SessionRecord is a server-side session row.
type SessionRecord struct {
	ID        string
	Data      []byte
	ExpiresAt time.Time
}
