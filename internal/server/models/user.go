package models

import "time"

// User is a stored chat credential.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
	LastLogin    time.Time
}
