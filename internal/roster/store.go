// Package roster holds a view's local copy of a game's players and keeps it
// in step with direct mutations and the change feed.
package roster

import (
	"sort"
	"sync"

	"github.com/mcoot/squidgame/internal/model"
)

// Store is the ordered list of players for one open game view.
// It is owned by exactly one view and never shared between views.
//
// Entries are kept in insertion order; Players sorts by number on read.
// Every operation is keyed by id and last-write-wins.
type Store struct {
	mu      sync.RWMutex
	entries []model.Player
}

// NewStore creates an empty roster
func NewStore() *Store {
	return &Store{}
}

// Reset replaces the roster with players, dropping duplicate ids
func (s *Store) Reset(players []model.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	for _, p := range players {
		if i := s.indexLocked(p.ID); i >= 0 {
			s.entries[i] = p
			continue
		}
		s.entries = append(s.entries, p)
	}
}

// Insert appends p, or replaces the existing entry with the same id
func (s *Store) Insert(p model.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(p.ID); i >= 0 {
		s.entries[i] = p
		return
	}
	s.entries = append(s.entries, p)
}

// Update replaces the entry with p's id. An absent id is left absent so a
// late echo cannot bring back a player this view already removed.
// It reports whether an entry was replaced.
func (s *Store) Update(p model.Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(p.ID)
	if i < 0 {
		return false
	}
	s.entries[i] = p
	return true
}

// Remove deletes the entry with id, reporting whether one existed
func (s *Store) Remove(id model.PlayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// ApplyTransientRemoval marks the entry for p as removed and then filters
// every removed entry out. Both steps happen under one lock, so readers see
// either the full entry or nothing.
func (s *Store) ApplyTransientRemoval(p model.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(p.ID); i >= 0 {
		s.entries[i].Removed = true
	}

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.Removed {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Get returns the entry with id
func (s *Store) Get(id model.PlayerID) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Player{}, false
	}
	return s.entries[i], true
}

// Len returns the number of visible players
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if !e.Removed {
			n++
		}
	}
	return n
}

// Players returns a snapshot in display order: ascending number, ties in
// insertion order. Removed entries are never included.
func (s *Store) Players() []model.Player {
	s.mu.RLock()
	out := make([]model.Player, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Removed {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

func (s *Store) indexLocked(id model.PlayerID) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
