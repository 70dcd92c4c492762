// Package memory provides in-process implementations of the match record
// store and the saved lineup repository. Data is lost on restart; it backs
// tests and the DATABASE_DRIVER=memory mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RECORD STORE
// ══════════════════════════════════════════════════════════════════════════════

type matchKey struct {
	player shared.PlayerID
	match  string
}

// MatchStore implements lineup.MatchRecordStore in memory.
type MatchStore struct {
	mu      sync.RWMutex
	players map[shared.PlayerID]*lineup.Player
	seen    map[matchKey]struct{}
}

// NewMatchStore creates an empty MatchStore.
func NewMatchStore() *MatchStore {
	return &MatchStore{
		players: make(map[shared.PlayerID]*lineup.Player),
		seen:    make(map[matchKey]struct{}),
	}
}

var _ lineup.MatchRecordStore = (*MatchStore)(nil)

// CreatePlayer stores a player without matches.
func (s *MatchStore) CreatePlayer(ctx context.Context, p lineup.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[p.ID]; ok {
		return shared.ErrPlayerAlreadyExists
	}
	s.players[p.ID] = &lineup.Player{ID: p.ID, DisplayName: p.DisplayName, Matches: []lineup.MatchParticipation{}}
	return nil
}

// GetPlayer returns a copy of the player and its history.
func (s *MatchStore) GetPlayer(ctx context.Context, id shared.PlayerID) (lineup.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return lineup.Player{}, shared.ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

// GetPlayers returns copies of the players in the order of ids.
func (s *MatchStore) GetPlayers(ctx context.Context, ids []shared.PlayerID) ([]lineup.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]lineup.Player, 0, len(ids))
	for _, id := range ids {
		p, ok := s.players[id]
		if !ok {
			return nil, shared.WrapError("player", "GetPlayers", shared.ErrNotFound, "player "+id.String()+" not found", shared.ErrPlayerNotFound)
		}
		out = append(out, clonePlayer(p))
	}
	return out, nil
}

// AppendMatch inserts the record keeping the history ordered by played_at,
// then insertion.
func (s *MatchStore) AppendMatch(ctx context.Context, m lineup.MatchParticipation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[m.PlayerID]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	key := matchKey{m.PlayerID, m.MatchID}
	if _, dup := s.seen[key]; dup {
		return shared.ErrDuplicateMatch
	}

	i := sort.Search(len(p.Matches), func(i int) bool {
		return p.Matches[i].PlayedAt.After(m.PlayedAt)
	})
	p.Matches = append(p.Matches, lineup.MatchParticipation{})
	copy(p.Matches[i+1:], p.Matches[i:])
	p.Matches[i] = m
	s.seen[key] = struct{}{}
	return nil
}

// HasMatch reports whether (player, match) is recorded.
func (s *MatchStore) HasMatch(ctx context.Context, playerID shared.PlayerID, matchID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.seen[matchKey{playerID, matchID}]
	return ok, nil
}

// Ping always succeeds.
func (s *MatchStore) Ping(ctx context.Context) error {
	return nil
}

func clonePlayer(p *lineup.Player) lineup.Player {
	out := lineup.Player{ID: p.ID, DisplayName: p.DisplayName}
	out.Matches = make([]lineup.MatchParticipation, len(p.Matches))
	copy(out.Matches, p.Matches)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVED LINEUPS
// ══════════════════════════════════════════════════════════════════════════════

// LineupRepository implements lineup.LineupRepository in memory.
type LineupRepository struct {
	mu      sync.RWMutex
	lineups map[shared.LineupName]lineup.SavedLineup
	now     func() time.Time
}

// NewLineupRepository creates an empty LineupRepository.
func NewLineupRepository() *LineupRepository {
	return &LineupRepository{
		lineups: make(map[shared.LineupName]lineup.SavedLineup),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ lineup.LineupRepository = (*LineupRepository)(nil)

// Save upserts by name, keeping the id and created_at of an existing entry.
func (r *LineupRepository) Save(ctx context.Context, l lineup.SavedLineup) (lineup.SavedLineup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if existing, ok := r.lineups[l.Name]; ok {
		l.ID = existing.ID
		l.CreatedAt = existing.CreatedAt
	} else {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	r.lineups[l.Name] = l
	return l, nil
}

// Get returns the lineup saved under name.
func (r *LineupRepository) Get(ctx context.Context, name shared.LineupName) (lineup.SavedLineup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lineups[name]
	if !ok {
		return lineup.SavedLineup{}, shared.ErrLineupNotFound
	}
	return l, nil
}

// List returns every saved lineup ordered by name.
func (r *LineupRepository) List(ctx context.Context) ([]lineup.SavedLineup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lineup.SavedLineup, 0, len(r.lineups))
	for _, l := range r.lineups {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the lineup saved under name.
func (r *LineupRepository) Delete(ctx context.Context, name shared.LineupName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lineups[name]; !ok {
		return shared.ErrLineupNotFound
	}
	delete(r.lineups, name)
	return nil
}
