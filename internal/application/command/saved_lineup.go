package command

import (
	"context"
	"fmt"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE / DELETE LINEUP COMMANDS
// Persist an assignment under a name. The cache is refreshed on save and
// evicted on delete; cache failures are logged, never returned.
// ══════════════════════════════════════════════════════════════════════════════

// SaveLineupCommand stores Assignment under Name, replacing any lineup with
// the same name.
type SaveLineupCommand struct {
	Name       string
	Assignment lineup.LineupAssignment
}

// DeleteLineupCommand removes the lineup saved under Name.
type DeleteLineupCommand struct {
	Name string
}

// SavedLineupHandler handles SaveLineupCommand and DeleteLineupCommand.
type SavedLineupHandler struct {
	repo     lineup.LineupRepository
	cache    lineup.LineupCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewSavedLineupHandler creates a handler. cache may be nil.
func NewSavedLineupHandler(repo lineup.LineupRepository, cache lineup.LineupCache, cacheTTL time.Duration, log *logger.Logger) *SavedLineupHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SavedLineupHandler{repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

// Save validates and upserts the lineup.
func (h *SavedLineupHandler) Save(ctx context.Context, cmd SaveLineupCommand) (lineup.SavedLineup, error) {
	name, err := shared.NewLineupName(cmd.Name)
	if err != nil {
		return lineup.SavedLineup{}, err
	}
	if err := cmd.Assignment.Validate(); err != nil {
		return lineup.SavedLineup{}, err
	}

	saved, err := h.repo.Save(ctx, lineup.SavedLineup{Name: name, Assignment: cmd.Assignment})
	if err != nil {
		h.log.Error("failed to save lineup", logger.LineupName(name.String()), logger.Err(err))
		return lineup.SavedLineup{}, fmt.Errorf("save_lineup: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, saved, h.cacheTTL); err != nil {
			h.log.Warn("failed to cache lineup", logger.LineupName(name.String()), logger.Err(err))
		}
	}

	h.log.Info("lineup saved",
		logger.LineupName(name.String()),
		logger.Strategy(string(saved.Assignment.Strategy)),
		logger.Score(saved.Assignment.TotalScore))
	return saved, nil
}

// Delete removes the lineup and evicts it from the cache.
func (h *SavedLineupHandler) Delete(ctx context.Context, cmd DeleteLineupCommand) error {
	name, err := shared.NewLineupName(cmd.Name)
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, name); err != nil {
		if !shared.IsNotFound(err) {
			h.log.Error("failed to delete lineup", logger.LineupName(name.String()), logger.Err(err))
		}
		return fmt.Errorf("delete_lineup: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, name); err != nil {
			h.log.Warn("failed to evict lineup", logger.LineupName(name.String()), logger.Err(err))
		}
	}
	h.log.Info("lineup deleted", logger.LineupName(name.String()))
	return nil
}
