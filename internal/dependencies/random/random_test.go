package random

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/squidgame/internal/model"
)

type fixed int

func (f fixed) Intn(n int) int { return int(f) % n }

func TestPlayerNumberBounds(t *testing.T) {
	assert.Equal(t, model.MinPlayerNumber, PlayerNumber(fixed(0)))
	assert.Equal(t, model.MaxPlayerNumber, PlayerNumber(fixed(455)))
}

func TestCryptoRandomPlayerNumberInRange(t *testing.T) {
	r := New()
	for i := 0; i < 1000; i++ {
		n := PlayerNumber(r)
		assert.GreaterOrEqual(t, n, model.MinPlayerNumber)
		assert.LessOrEqual(t, n, model.MaxPlayerNumber)
	}
}

func TestIntnNonPositive(t *testing.T) {
	assert.Equal(t, 0, New().Intn(0))
}
