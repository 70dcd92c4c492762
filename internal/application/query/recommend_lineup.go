package query

import (
	"context"
	"strings"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMEND LINEUP QUERY
// Quick mode scores every (player, role) pair under the role's current filter;
// peak mode scores each pair at its best filter.
// ══════════════════════════════════════════════════════════════════════════════

// RecommendMode selects the recommender.
type RecommendMode string

const (
	ModeQuick RecommendMode = "quick"
	ModePeak  RecommendMode = "peak"
)

// ParseRecommendMode parses quick|peak; empty means quick.
func ParseRecommendMode(s string) (RecommendMode, error) {
	switch m := RecommendMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeQuick:
		return ModeQuick, nil
	case ModePeak:
		return ModePeak, nil
	default:
		return "", shared.NewDomainError("lineup", "Recommend", shared.ErrInvalidInput, "mode must be quick or peak, got "+s)
	}
}

// RecommendLineupQuery holds the recommendation request.
type RecommendLineupQuery struct {
	PlayerIDs []string
	Mode      RecommendMode

	// CurrentFilters keys are role names; roles absent use ALL/ALL/ALL.
	// Ignored in peak mode.
	CurrentFilters map[string]FilterInput
}

// RecommendLineupHandler handles RecommendLineupQuery.
type RecommendLineupHandler struct {
	roster rosterLoader
	log    *logger.Logger
}

// NewRecommendLineupHandler creates a new RecommendLineupHandler.
func NewRecommendLineupHandler(store lineup.MatchRecordStore, maxRoster int, log *logger.Logger) *RecommendLineupHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RecommendLineupHandler{roster: newRosterLoader(store, maxRoster), log: log}
}

// Handle loads the roster and runs the selected recommender.
func (h *RecommendLineupHandler) Handle(ctx context.Context, q RecommendLineupQuery) (lineup.LineupAssignment, error) {
	mode, err := ParseRecommendMode(string(q.Mode))
	if err != nil {
		return lineup.LineupAssignment{}, err
	}

	filters := make(map[lineup.Role]lineup.FilterCombination, len(q.CurrentFilters))
	if mode == ModeQuick {
		for rawRole, in := range q.CurrentFilters {
			role, err := lineup.ParseRole(rawRole)
			if err != nil {
				return lineup.LineupAssignment{}, err
			}
			f, err := in.Parse()
			if err != nil {
				return lineup.LineupAssignment{}, err
			}
			filters[role] = f
		}
	}

	players, err := h.roster.load(ctx, "RecommendLineup", q.PlayerIDs)
	if err != nil {
		return lineup.LineupAssignment{}, err
	}

	var a lineup.LineupAssignment
	if mode == ModePeak {
		a = lineup.RecommendPeak(players)
	} else {
		a = lineup.Recommend(players, filters)
	}

	h.log.Debug("lineup recommended",
		logger.Strategy(string(a.Strategy)),
		logger.Int("filled", a.FilledCount()),
		logger.Score(a.TotalScore))
	return a, nil
}
