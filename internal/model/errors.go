package model

import "errors"

// Common errors used across the application
var (
	// Host errors
	ErrHostNotFound    = errors.New("host not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotOwner        = errors.New("host does not own this game")

	// Game errors
	ErrGameNotFound      = errors.New("game not found")
	ErrInvalidGameName   = errors.New("game name is required")
	ErrInvalidGameStatus = errors.New("invalid game status")
	ErrMissingGameID     = errors.New("game id is required")

	// Player errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInvalidPlayerName   = errors.New("player name is required")
	ErrInvalidPlayerNumber = errors.New("number must be between 1 and 456")
	ErrInvalidPlayerStatus = errors.New("invalid player status")
	ErrInvalidLosses       = errors.New("losses cannot be negative")

	// Join errors
	ErrIncorrectPassword = errors.New("incorrect password")

	// Photo errors
	ErrPhotoEmpty    = errors.New("photo is empty")
	ErrPhotoNotImage = errors.New("photo is not an image")
	ErrPhotoTooLarge = errors.New("photo is too large")
)
