package lineup

import "strings"

// FilterCombination is a predicate over a player's match records. A zero or
// ALL field matches any value of that tag, including unknown.
type FilterCombination struct {
	Side             Side             `json:"side"`
	LaneAllocation   LaneAllocation   `json:"lane_allocation"`
	CompositionStyle CompositionStyle `json:"composition_style"`
}

// AllFilter returns the ALL/ALL/ALL combination.
func AllFilter() FilterCombination {
	return FilterCombination{Side: SideAll, LaneAllocation: LaneAll, CompositionStyle: StyleAll}
}

// Normalize replaces empty fields with the ALL wildcard.
func (f FilterCombination) Normalize() FilterCombination {
	if f.Side == "" {
		f.Side = SideAll
	}
	if f.LaneAllocation == "" {
		f.LaneAllocation = LaneAll
	}
	if f.CompositionStyle == "" {
		f.CompositionStyle = StyleAll
	}
	return f
}

// Matches reports whether m satisfies every non-wildcard field.
func (f FilterCombination) Matches(m MatchParticipation) bool {
	f = f.Normalize()
	if f.Side != SideAll && m.Side != f.Side {
		return false
	}
	if f.LaneAllocation != LaneAll && m.LaneAllocation != f.LaneAllocation {
		return false
	}
	if f.CompositionStyle != StyleAll && m.CompositionStyle != f.CompositionStyle {
		return false
	}
	return true
}

// String renders the filter as "SIDE/LANE/STYLE".
func (f FilterCombination) String() string {
	f = f.Normalize()
	return strings.Join([]string{string(f.Side), string(f.LaneAllocation), string(f.CompositionStyle)}, "/")
}

// ParseFilterCombination builds a filter from raw tag strings; empty means ALL.
func ParseFilterCombination(side, lane, style string) (FilterCombination, error) {
	s, err := ParseSide(side)
	if err != nil {
		return FilterCombination{}, err
	}
	l, err := ParseLaneAllocation(lane)
	if err != nil {
		return FilterCombination{}, err
	}
	c, err := ParseCompositionStyle(style)
	if err != nil {
		return FilterCombination{}, err
	}
	return FilterCombination{Side: s, LaneAllocation: l, CompositionStyle: c}.Normalize(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FILTER SPACE
// ══════════════════════════════════════════════════════════════════════════════

// FilterSpace is the set of legal values per filter dimension. Its Cartesian
// product is the search space of the peak finder.
type FilterSpace struct {
	Sides  []Side
	Lanes  []LaneAllocation
	Styles []CompositionStyle
}

// DefaultFilterSpace covers every side, lane allocation and style plus the
// wildcard on each dimension.
func DefaultFilterSpace() FilterSpace {
	return FilterSpace{
		Sides:  []Side{SideAll, SideBlue, SideRed},
		Lanes:  []LaneAllocation{LaneAll, LaneStrongSide, LaneWeakSide, LaneNeutral, LaneRoaming},
		Styles: append([]CompositionStyle{StyleAll}, knownStyles...),
	}
}

// Restrict returns the same side and lane dimensions with the style dimension
// replaced by styles. An empty list restricts to the wildcard only.
func (s FilterSpace) Restrict(styles []CompositionStyle) FilterSpace {
	restricted := FilterSpace{
		Sides: append([]Side(nil), s.Sides...),
		Lanes: append([]LaneAllocation(nil), s.Lanes...),
	}
	if len(styles) == 0 {
		restricted.Styles = []CompositionStyle{StyleAll}
	} else {
		restricted.Styles = append([]CompositionStyle(nil), styles...)
	}
	return restricted
}

// Size returns the number of combinations.
func (s FilterSpace) Size() int {
	return len(s.Sides) * len(s.Lanes) * len(s.Styles)
}

// Combinations enumerates the product side-major, style-minor. The order is
// stable and is the tie-break order of the peak finder.
func (s FilterSpace) Combinations() []FilterCombination {
	out := make([]FilterCombination, 0, s.Size())
	for _, side := range s.Sides {
		for _, lane := range s.Lanes {
			for _, style := range s.Styles {
				out = append(out, FilterCombination{Side: side, LaneAllocation: lane, CompositionStyle: style}.Normalize())
			}
		}
	}
	return out
}
