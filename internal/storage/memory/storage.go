package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	hosts       map[model.HostID]*model.Host
	credentials map[model.HostID]*model.HostCredentials
	emailIndex  map[string]model.HostID
	games       map[model.GameID]*model.GameRecord
	players     map[model.PlayerID]*playerEntry
	seq         int64
}

// playerEntry keeps insertion order so equal numbers list stably
type playerEntry struct {
	rec model.PlayerRecord
	seq int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		hosts:       make(map[model.HostID]*model.Host),
		credentials: make(map[model.HostID]*model.HostCredentials),
		emailIndex:  make(map[string]model.HostID),
		games:       make(map[model.GameID]*model.GameRecord),
		players:     make(map[model.PlayerID]*playerEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Host operations

func (s *Storage) SaveHost(ctx context.Context, host *model.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := *host
	s.hosts[host.ID] = &h
	return nil
}

func (s *Storage) GetHost(ctx context.Context, id model.HostID) (*model.Host, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	host, ok := s.hosts[id]
	if !ok {
		return nil, model.ErrHostNotFound
	}
	h := *host
	return &h, nil
}

func (s *Storage) SaveHostCredentials(ctx context.Context, creds *model.HostCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *creds
	s.credentials[creds.HostID] = &c
	s.emailIndex[creds.Email] = creds.HostID
	return nil
}

func (s *Storage) GetHostCredentialsByEmail(ctx context.Context, email string) (*model.HostCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hostID, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrHostNotFound
	}
	creds, ok := s.credentials[hostID]
	if !ok {
		return nil, model.ErrHostNotFound
	}
	c := *creds
	return &c, nil
}

// Game operations

func (s *Storage) InsertGame(ctx context.Context, game *model.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = copyGame(game)
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return copyGame(game), nil
}

func (s *Storage) ListGamesByOwner(ctx context.Context, owner model.HostID) ([]*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := []*model.GameRecord{}
	for _, g := range s.games {
		if g.OwnerID == owner {
			games = append(games, copyGame(g))
		}
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[game.ID]; !ok {
		return model.ErrGameNotFound
	}
	s.games[game.ID] = copyGame(game)
	return nil
}

// Player operations

func (s *Storage) InsertPlayer(ctx context.Context, player *model.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[player.GameID]; !ok {
		return model.ErrGameNotFound
	}
	s.seq++
	s.players[player.ID] = &playerEntry{rec: *copyPlayer(player), seq: s.seq}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return copyPlayer(&entry.rec), nil
}

func (s *Storage) ListPlayers(ctx context.Context, gameID model.GameID) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*playerEntry
	for _, e := range s.players {
		if e.rec.GameID == gameID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].rec.Number != entries[j].rec.Number {
			return entries[i].rec.Number < entries[j].rec.Number
		}
		return entries[i].seq < entries[j].seq
	})
	players := make([]*model.PlayerRecord, len(entries))
	for i, e := range entries {
		players[i] = copyPlayer(&e.rec)
	}
	return players, nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	patch.Apply(&entry.rec)
	return copyPlayer(&entry.rec), nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	delete(s.players, id)
	return copyPlayer(&entry.rec), nil
}

func copyGame(g *model.GameRecord) *model.GameRecord {
	c := *g
	if g.JoinPassword != nil {
		pw := *g.JoinPassword
		c.JoinPassword = &pw
	}
	return &c
}

func copyPlayer(p *model.PlayerRecord) *model.PlayerRecord {
	c := *p
	if p.Losses != nil {
		losses := *p.Losses
		c.Losses = &losses
	}
	if p.PhotoURL != nil {
		url := *p.PhotoURL
		c.PhotoURL = &url
	}
	return &c
}
