package players

import (
	"sync"

	"github.com/mcoot/squidgame/internal/model"
)

// gameLocks serializes roster writes per game. A write holds its game's
// lock from the storage commit until its change event is published, so
// events for a game leave this process in commit order.
type gameLocks struct {
	mu    sync.Mutex
	locks map[model.GameID]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the game's lock is held and returns its release func.
// Entries are dropped once no writer holds or waits on them.
func (g *gameLocks) lock(id model.GameID) func() {
	g.mu.Lock()
	if g.locks == nil {
		g.locks = make(map[model.GameID]*gameLock)
	}
	l, ok := g.locks[id]
	if !ok {
		l = &gameLock{}
		g.locks[id] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, id)
		}
		g.mu.Unlock()
	}
}

// held reports how many games have a writer holding or waiting on a lock
func (g *gameLocks) held() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
