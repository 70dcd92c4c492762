package query

import (
	"context"
	"fmt"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER SCORES QUERY
// Score card of one player: per role, the score under the requested filter
// and the peak over the whole filter space.
// ══════════════════════════════════════════════════════════════════════════════

// GetPlayerScoresQuery asks for a player's score card.
type GetPlayerScoresQuery struct {
	PlayerID string

	// Filter applies to the per-role score; nil means ALL/ALL/ALL.
	Filter *FilterInput
}

// RoleScore is one row of the score card.
type RoleScore struct {
	Role       lineup.Role              `json:"role"`
	MatchCount int                      `json:"match_count"`
	Filter     lineup.FilterCombination `json:"filter"`
	Result     lineup.ScoreResult       `json:"result"`
	Peak       lineup.Peak              `json:"peak"`
}

// PlayerScoreCard lists the five roles in canonical order.
type PlayerScoreCard struct {
	PlayerID    shared.PlayerID `json:"player_id"`
	DisplayName string          `json:"display_name"`
	MatchCount  int             `json:"match_count"`
	Roles       []RoleScore     `json:"roles"`
}

// PlayerScoresHandler handles GetPlayerScoresQuery.
type PlayerScoresHandler struct {
	store lineup.MatchRecordStore
}

// NewPlayerScoresHandler creates a new PlayerScoresHandler.
func NewPlayerScoresHandler(store lineup.MatchRecordStore) *PlayerScoresHandler {
	return &PlayerScoresHandler{store: store}
}

// Handle builds the score card.
func (h *PlayerScoresHandler) Handle(ctx context.Context, q GetPlayerScoresQuery) (PlayerScoreCard, error) {
	id, err := shared.NewPlayerID(q.PlayerID)
	if err != nil {
		return PlayerScoreCard{}, err
	}

	filter := lineup.AllFilter()
	if q.Filter != nil {
		if filter, err = q.Filter.Parse(); err != nil {
			return PlayerScoreCard{}, err
		}
	}

	p, err := h.store.GetPlayer(ctx, id)
	if err != nil {
		return PlayerScoreCard{}, fmt.Errorf("get_player_scores: %w", err)
	}

	counts := p.MatchCountByRole()
	card := PlayerScoreCard{
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		MatchCount:  len(p.Matches),
		Roles:       make([]RoleScore, 0, lineup.RoleCount),
	}
	for _, role := range lineup.CanonicalRoles() {
		card.Roles = append(card.Roles, RoleScore{
			Role:       role,
			MatchCount: counts[role],
			Filter:     filter,
			Result:     lineup.ComputeScore(p, role, filter),
			Peak:       lineup.FindPeak(p, role),
		})
	}
	return card, nil
}
