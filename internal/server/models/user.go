// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash always holds a bcrypt hash and AvatarKey
// the object-storage key of the avatar; neither is serialized.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Age          int
	AvatarKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public view of a User.
type Profile struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	HasAvatar bool      `json:"hasAvatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		HasAvatar: u.AvatarKey != "",
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
