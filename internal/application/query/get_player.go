package query

import (
	"context"
	"fmt"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// GetPlayerQuery asks for a player and its full match history.
type GetPlayerQuery struct {
	PlayerID string
}

// GetPlayerHandler handles GetPlayerQuery.
type GetPlayerHandler struct {
	store lineup.MatchRecordStore
}

// NewGetPlayerHandler creates a new GetPlayerHandler.
func NewGetPlayerHandler(store lineup.MatchRecordStore) *GetPlayerHandler {
	return &GetPlayerHandler{store: store}
}

// Handle returns the player with matches ordered by played_at.
func (h *GetPlayerHandler) Handle(ctx context.Context, q GetPlayerQuery) (lineup.Player, error) {
	id, err := shared.NewPlayerID(q.PlayerID)
	if err != nil {
		return lineup.Player{}, err
	}
	p, err := h.store.GetPlayer(ctx, id)
	if err != nil {
		return lineup.Player{}, fmt.Errorf("get_player: %w", err)
	}
	return p, nil
}
