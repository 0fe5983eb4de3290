package models

import "time"

// SessionToken is one entry of a user's token ledger.
type SessionToken struct {
	UserID    string
	Token     string
	CreatedAt time.Time
}
