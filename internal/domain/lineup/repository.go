package lineup

import (
	"context"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RECORD STORE
// ══════════════════════════════════════════════════════════════════════════════

// MatchRecordStore supplies players and their match history. The engine
// itself never touches it; the application layer loads snapshots from it
// and hands them to the engine.
type MatchRecordStore interface {
	// CreatePlayer stores a player without matches.
	// Returns shared.ErrPlayerAlreadyExists if the ID is taken.
	CreatePlayer(ctx context.Context, player Player) error

	// GetPlayer returns the player with matches ordered by played_at, then insertion.
	// Returns shared.ErrPlayerNotFound if absent.
	GetPlayer(ctx context.Context, id shared.PlayerID) (Player, error)

	// GetPlayers returns players in the order of ids.
	// Returns shared.ErrPlayerNotFound if any is absent.
	GetPlayers(ctx context.Context, ids []shared.PlayerID) ([]Player, error)

	// AppendMatch appends an immutable record to its player's history.
	// Returns shared.ErrDuplicateMatch if (player, match) is already recorded
	// and shared.ErrPlayerNotFound if the player does not exist.
	AppendMatch(ctx context.Context, match MatchParticipation) error

	// HasMatch reports whether (player, match) is recorded.
	HasMatch(ctx context.Context, playerID shared.PlayerID, matchID string) (bool, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVED LINEUPS
// ══════════════════════════════════════════════════════════════════════════════

// SavedLineup is an assignment persisted under a unique name.
type SavedLineup struct {
	ID         string            `json:"id"`
	Name       shared.LineupName `json:"name"`
	Assignment LineupAssignment  `json:"assignment"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// LineupRepository persists saved lineups.
type LineupRepository interface {
	// Save inserts the lineup or replaces the one with the same name,
	// keeping its ID and CreatedAt. Returns the stored value.
	Save(ctx context.Context, lineup SavedLineup) (SavedLineup, error)

	// Get returns shared.ErrLineupNotFound if absent.
	Get(ctx context.Context, name shared.LineupName) (SavedLineup, error)

	// List returns all saved lineups ordered by name.
	List(ctx context.Context) ([]SavedLineup, error)

	// Delete returns shared.ErrLineupNotFound if absent.
	Delete(ctx context.Context, name shared.LineupName) error
}

// LineupCache is a read-through cache in front of LineupRepository.
type LineupCache interface {
	// Get returns (lineup, true, nil) on hit and (zero, false, nil) on miss.
	Get(ctx context.Context, name shared.LineupName) (SavedLineup, bool, error)
	Set(ctx context.Context, lineup SavedLineup, ttl time.Duration) error
	Delete(ctx context.Context, name shared.LineupName) error
}
