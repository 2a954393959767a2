package random

import (
	"crypto/rand"
	"math/big"

	"github.com/mcoot/squidgame/internal/model"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

// PlayerNumber draws a badge number uniformly from 1..456
func PlayerNumber(r Random) int {
	return r.Intn(model.MaxPlayerNumber-model.MinPlayerNumber+1) + model.MinPlayerNumber
}
