package models

import "time"

// User represents a user in the system
type User struct {
	ID           string
	Email        string
	Name         string
	ImageURL     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
