package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSITION QUERIES
// Build one family's composition, rank every family, or list the catalog.
// Each search runs under its own deadline.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultCompositionTimeout bounds one family search.
const DefaultCompositionTimeout = 2 * time.Second

// BuildCompositionQuery asks for the best lineup of one family.
type BuildCompositionQuery struct {
	Family    string
	PlayerIDs []string
}

// RankCompositionsQuery asks for every family's best lineup.
type RankCompositionsQuery struct {
	PlayerIDs []string
}

// RankedComposition is one family's outcome. Exactly one of Assignment and
// Reason is set.
type RankedComposition struct {
	Family     string                   `json:"family"`
	Assignment *lineup.LineupAssignment `json:"assignment,omitempty"`
	Reason     string                   `json:"reason,omitempty"`
}

// CompositionFamily describes one catalog family.
type CompositionFamily struct {
	Name      string                         `json:"name"`
	Templates []lineup.RoleArchetypeTemplate `json:"templates"`
}

// CatalogView is the catalog as served to clients.
type CatalogView struct {
	Families []CompositionFamily                `json:"families"`
	Labels   map[lineup.ArchetypeLabel][]string `json:"labels"`
}

// CompositionHandler handles the composition queries.
type CompositionHandler struct {
	catalog *lineup.Catalog
	roster  rosterLoader
	timeout time.Duration
	log     *logger.Logger
}

// NewCompositionHandler creates a new CompositionHandler.
func NewCompositionHandler(catalog *lineup.Catalog, store lineup.MatchRecordStore, maxRoster int, timeout time.Duration, log *logger.Logger) *CompositionHandler {
	if timeout <= 0 {
		timeout = DefaultCompositionTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CompositionHandler{
		catalog: catalog,
		roster:  newRosterLoader(store, maxRoster),
		timeout: timeout,
		log:     log,
	}
}

// Catalog returns the template catalog.
func (h *CompositionHandler) Catalog() *lineup.Catalog {
	return h.catalog
}

func (h *CompositionHandler) search(ctx context.Context, family string, players []lineup.Player) (lineup.LineupAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	a, err := lineup.BuildComposition(ctx, h.catalog, family, players)
	if err != nil {
		h.log.Debug("composition search failed", logger.Family(family), logger.Err(err), logger.Latency(time.Since(start)))
		return lineup.LineupAssignment{}, err
	}
	h.log.Debug("composition found",
		logger.Family(a.Family),
		logger.Int("variant", a.Variant),
		logger.Score(a.TotalScore),
		logger.Latency(time.Since(start)))
	return a, nil
}

// Build returns the best complete lineup for the family.
func (h *CompositionHandler) Build(ctx context.Context, q BuildCompositionQuery) (lineup.LineupAssignment, error) {
	// Unknown families fail before touching the store.
	if _, err := h.catalog.Templates(q.Family); err != nil {
		return lineup.LineupAssignment{}, err
	}
	players, err := h.roster.load(ctx, "BuildComposition", q.PlayerIDs)
	if err != nil {
		return lineup.LineupAssignment{}, err
	}
	return h.search(ctx, q.Family, players)
}

// Rank searches every family and orders the results by total score,
// best first. Families without a valid composition follow, in catalog order.
func (h *CompositionHandler) Rank(ctx context.Context, q RankCompositionsQuery) ([]RankedComposition, error) {
	players, err := h.roster.load(ctx, "RankCompositions", q.PlayerIDs)
	if err != nil {
		return nil, err
	}

	var found, failed []RankedComposition
	for _, family := range h.catalog.Families() {
		a, err := h.search(ctx, family, players)
		switch {
		case err == nil:
			found = append(found, RankedComposition{Family: family, Assignment: &a})
		case errors.Is(err, lineup.ErrSearchCanceled) && ctx.Err() != nil:
			return nil, err
		case shared.IsNoValidAssignment(err) || errors.Is(err, lineup.ErrSearchCanceled):
			failed = append(failed, RankedComposition{Family: family, Reason: err.Error()})
		default:
			return nil, err
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Assignment.TotalScore > found[j].Assignment.TotalScore
	})
	return append(found, failed...), nil
}

// List returns the catalog's families and label table.
func (h *CompositionHandler) List() CatalogView {
	view := CatalogView{Labels: make(map[lineup.ArchetypeLabel][]string)}
	for _, family := range h.catalog.Families() {
		templates, _ := h.catalog.Templates(family)
		view.Families = append(view.Families, CompositionFamily{Name: family, Templates: templates})
	}
	for _, label := range h.catalog.Labels() {
		styles, _ := h.catalog.StylesFor(label)
		names := make([]string, len(styles))
		for i, s := range styles {
			names[i] = string(s)
		}
		view.Labels[label] = names
	}
	return view
}
