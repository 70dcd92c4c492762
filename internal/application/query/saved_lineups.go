package query

import (
	"context"
	"fmt"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// SavedLineupsHandler serves saved lineups. Get reads through the cache when
// one is configured; a failing cache degrades to the repository.
type SavedLineupsHandler struct {
	repo     lineup.LineupRepository
	cache    lineup.LineupCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewSavedLineupsHandler creates a handler. cache may be nil.
func NewSavedLineupsHandler(repo lineup.LineupRepository, cache lineup.LineupCache, cacheTTL time.Duration, log *logger.Logger) *SavedLineupsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SavedLineupsHandler{repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

// Get returns the lineup saved under rawName.
func (h *SavedLineupsHandler) Get(ctx context.Context, rawName string) (lineup.SavedLineup, error) {
	name, err := shared.NewLineupName(rawName)
	if err != nil {
		return lineup.SavedLineup{}, err
	}

	if h.cache != nil {
		cached, hit, err := h.cache.Get(ctx, name)
		switch {
		case err != nil:
			h.log.Warn("lineup cache read failed", logger.LineupName(name.String()), logger.Err(err))
		case hit:
			return cached, nil
		}
	}

	saved, err := h.repo.Get(ctx, name)
	if err != nil {
		return lineup.SavedLineup{}, fmt.Errorf("get_lineup: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, saved, h.cacheTTL); err != nil {
			h.log.Warn("failed to cache lineup", logger.LineupName(name.String()), logger.Err(err))
		}
	}
	return saved, nil
}

// List returns every saved lineup ordered by name.
func (h *SavedLineupsHandler) List(ctx context.Context) ([]lineup.SavedLineup, error) {
	out, err := h.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_lineups: %w", err)
	}
	return out, nil
}
