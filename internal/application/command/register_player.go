// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER PLAYER COMMAND
// Adds a player with an empty history. Matches are appended with RecordMatch.
// ══════════════════════════════════════════════════════════════════════════════

// MaxDisplayNameLength bounds player display names.
const MaxDisplayNameLength = 100

// RegisterPlayerCommand contains the data to register a player.
type RegisterPlayerCommand struct {
	// ID is optional; a new UUID is generated when empty.
	ID string

	// DisplayName is the player's in-game or roster name.
	DisplayName string
}

// Validate validates the command.
func (c RegisterPlayerCommand) Validate() error {
	name := strings.TrimSpace(c.DisplayName)
	if name == "" {
		return shared.NewDomainError("player", "Register", shared.ErrEmptyValue, "display_name is required")
	}
	if len(name) > MaxDisplayNameLength {
		return shared.NewDomainError("player", "Register", shared.ErrValueOutOfRange,
			fmt.Sprintf("display_name longer than %d characters", MaxDisplayNameLength))
	}
	if c.ID != "" {
		if _, err := shared.NewPlayerID(c.ID); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPlayerHandler handles the RegisterPlayerCommand.
type RegisterPlayerHandler struct {
	store lineup.MatchRecordStore
	log   *logger.Logger
}

// NewRegisterPlayerHandler creates a new RegisterPlayerHandler.
func NewRegisterPlayerHandler(store lineup.MatchRecordStore, log *logger.Logger) *RegisterPlayerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterPlayerHandler{store: store, log: log}
}

// Handle registers the player and returns it.
func (h *RegisterPlayerHandler) Handle(ctx context.Context, cmd RegisterPlayerCommand) (lineup.Player, error) {
	if err := cmd.Validate(); err != nil {
		return lineup.Player{}, err
	}

	id := shared.PlayerID(uuid.NewString())
	if cmd.ID != "" {
		id, _ = shared.NewPlayerID(cmd.ID)
	}

	p := lineup.Player{
		ID:          id,
		DisplayName: strings.TrimSpace(cmd.DisplayName),
		Matches:     []lineup.MatchParticipation{},
	}
	if err := h.store.CreatePlayer(ctx, p); err != nil {
		if !shared.IsAlreadyExists(err) {
			h.log.Error("failed to create player", logger.PlayerID(id.String()), logger.Err(err))
		}
		return lineup.Player{}, fmt.Errorf("register_player: %w", err)
	}

	h.log.Info("player registered", logger.PlayerID(id.String()))
	return p, nil
}
