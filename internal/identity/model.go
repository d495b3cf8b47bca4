package identity

import "time"

// User represents a registered panel customer.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash []byte
	IsAdmin      bool
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
	FullName string
}
