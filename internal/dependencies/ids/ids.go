// Package ids generates the opaque identifiers for hosts, games and players.
package ids

import "github.com/google/uuid"

// Generator produces unique identifiers
type Generator interface {
	NewID() string
}

// UUIDGenerator issues random (version 4) UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a new UUIDv4 string
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}
