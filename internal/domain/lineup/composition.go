package lineup

import (
	"context"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

type peakKey struct {
	player int
	role   Role
	label  ArchetypeLabel
}

// compositionSearch holds the per-call state of BuildComposition. Peaks are
// memoized for the duration of one call only.
type compositionSearch struct {
	players []Player
	space   FilterSpace
	styles  map[ArchetypeLabel]FilterSpace
	peaks   map[peakKey]Peak
}

func (s *compositionSearch) peak(player int, role Role, label ArchetypeLabel) Peak {
	key := peakKey{player: player, role: role, label: label}
	if p, ok := s.peaks[key]; ok {
		return p
	}
	p := FindPeakIn(s.styles[label], s.players[player], role)
	s.peaks[key] = p
	return p
}

// fill binds one player per role in fill priority for the given label sequence.
// ok is false when some role has no scored candidate.
func (s *compositionSearch) fill(labels [RoleCount]ArchetypeLabel) (slots [RoleCount]Slot, total int, ok bool) {
	slots = emptySlots()
	used := make([]bool, len(s.players))

	for _, role := range fillPriority {
		idx := role.Index()
		label := labels[idx]

		best := -1
		var bestPeak Peak
		for i := range s.players {
			if used[i] {
				continue
			}
			p := s.peak(i, role, label)
			if !p.Found {
				continue
			}
			if best < 0 || p.Score.Value > bestPeak.Score.Value {
				best, bestPeak = i, p
			}
		}
		if best < 0 {
			return slots, 0, false
		}

		used[best] = true
		slots[idx] = Slot{
			Role:     role,
			PlayerID: s.players[best].ID,
			Filter:   filterPtr(bestPeak.Filter),
			Score:    bestPeak.Score,
			Label:    label,
		}
		total += bestPeak.Score.Value
	}

	return slots, total, true
}

// BuildComposition searches every template variant of family for the best
// archetype-constrained lineup. For each distinct label permutation, roles are
// filled greedily in fill priority with the unused player whose peak score,
// restricted to the label's styles, is strictly highest. The highest-total
// complete lineup wins; the first one found wins ties. Players with an empty
// ID are ignored.
//
// Errors: ErrUnknownFamily or ErrUnknownLabel before any search,
// ErrSearchCanceled when ctx ends between permutations, ErrNoValidComposition
// when no permutation fills all five roles.
func BuildComposition(ctx context.Context, catalog *Catalog, family string, players []Player) (LineupAssignment, error) {
	templates, err := catalog.Templates(family)
	if err != nil {
		return LineupAssignment{}, err
	}

	search := &compositionSearch{
		players: uniquePlayers(players),
		space:   DefaultFilterSpace(),
		styles:  make(map[ArchetypeLabel]FilterSpace),
		peaks:   make(map[peakKey]Peak),
	}
	for _, t := range templates {
		for _, label := range t.Labels {
			if _, done := search.styles[label]; done {
				continue
			}
			styles, err := catalog.StylesFor(label)
			if err != nil {
				return LineupAssignment{}, err
			}
			search.styles[label] = search.space.Restrict(styles)
		}
	}

	var (
		best  LineupAssignment
		found bool
	)
	for _, t := range templates {
		for _, perm := range labelPermutations(t) {
			if err := ctx.Err(); err != nil {
				return LineupAssignment{}, shared.WrapError("lineup", "BuildComposition", ErrSearchCanceled, "composition search canceled", err)
			}
			slots, total, ok := search.fill(perm)
			if !ok {
				continue
			}
			if !found || total > best.TotalScore {
				best = newAssignment(StrategyComposition, slots)
				best.Family = t.Family
				best.Variant = t.Variant
				found = true
			}
		}
	}

	if !found {
		return LineupAssignment{}, invalidValue("BuildComposition", ErrNoValidComposition, templates[0].Family)
	}
	return best, nil
}
