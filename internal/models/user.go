// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	IsAdmin      bool

	// ResetToken and ResetTokenExpires implement single-use password reset.
	// Both are cleared in the same transaction that updates the password.
	ResetToken        string
	ResetTokenExpires time.Time

	CreatedAt time.Time
}
