// Package query contains read operations (CQRS - Queries).
// Queries never modify state: they load a snapshot from the store and hand
// it to the lineup engine.
package query

import (
	"context"
	"fmt"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// DefaultMaxRosterSize bounds how many players one query may consider.
const DefaultMaxRosterSize = 10

// FilterInput is a raw filter; empty fields mean ALL.
type FilterInput struct {
	Side             string `json:"side,omitempty"`
	LaneAllocation   string `json:"lane_allocation,omitempty"`
	CompositionStyle string `json:"composition_style,omitempty"`
}

// Parse validates the filter.
func (f FilterInput) Parse() (lineup.FilterCombination, error) {
	return lineup.ParseFilterCombination(f.Side, f.LaneAllocation, f.CompositionStyle)
}

// rosterLoader resolves raw player IDs into a snapshot of players.
type rosterLoader struct {
	store   lineup.MatchRecordStore
	maxSize int
}

func newRosterLoader(store lineup.MatchRecordStore, maxSize int) rosterLoader {
	if maxSize <= 0 {
		maxSize = DefaultMaxRosterSize
	}
	return rosterLoader{store: store, maxSize: maxSize}
}

// load parses and de-duplicates ids, keeping first occurrences in order.
func (l rosterLoader) load(ctx context.Context, op string, rawIDs []string) ([]lineup.Player, error) {
	if len(rawIDs) == 0 {
		return nil, shared.NewDomainError("roster", op, shared.ErrEmptyValue, "player_ids is required")
	}

	ids := make([]shared.PlayerID, 0, len(rawIDs))
	seen := make(map[shared.PlayerID]struct{}, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := shared.NewPlayerID(raw)
		if err != nil {
			return nil, shared.WrapError("roster", op, shared.ErrInvalidID, fmt.Sprintf("invalid player id %q", raw), err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > l.maxSize {
		return nil, shared.NewDomainError("roster", op, shared.ErrValueOutOfRange,
			fmt.Sprintf("at most %d players per request, got %d", l.maxSize, len(ids)))
	}

	players, err := l.store.GetPlayers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return players, nil
}
