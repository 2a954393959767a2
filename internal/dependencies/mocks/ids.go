package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/squidgame/internal/dependencies/ids"
)

// MockIDs hands out predictable ids: queued values first, then prefix-1, prefix-2, ...
type MockIDs struct {
	mu     sync.Mutex
	prefix string
	queued []string
	next   int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a MockIDs using prefix for generated values
func NewMockIDs(prefix string) *MockIDs {
	return &MockIDs{prefix: prefix}
}

// NewID returns the next id
func (g *MockIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queued) > 0 {
		id := g.queued[0]
		g.queued = g.queued[1:]
		return id
	}
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

// Queue makes the next NewID calls return values in order
func (g *MockIDs) Queue(values ...string) {
	g.mu.Lock()
	g.queued = append(g.queued, values...)
	g.mu.Unlock()
}
