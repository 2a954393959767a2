package model

import "time"

// HostID uniquely identifies a host account
type HostID string

// Host is an authenticated account that creates and runs games
type Host struct {
	ID        HostID    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HostCredentials holds login data for a host.
// Stored separately so the hash never travels with a session.
type HostCredentials struct {
	HostID       HostID    `json:"host_id" db:"host_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"password_hash" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
