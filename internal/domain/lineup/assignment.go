package lineup

import (
	"fmt"
	"math"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// Strategy names the operation that produced an assignment.
type Strategy string

const (
	StrategyQuick       Strategy = "QUICK"
	StrategyPeak        Strategy = "PEAK"
	StrategyComposition Strategy = "COMPOSITION"
)

// Slot is one role of an assignment. An empty slot has no player, no filter
// and no score.
type Slot struct {
	Role     Role               `json:"role"`
	PlayerID shared.PlayerID    `json:"player_id,omitempty"`
	Filter   *FilterCombination `json:"filter,omitempty"`
	Score    ScoreValue         `json:"score"`
	Label    ArchetypeLabel     `json:"label,omitempty"`
}

// IsFilled reports whether a player is bound to the slot.
func (s Slot) IsFilled() bool {
	return s.PlayerID != ""
}

// LineupAssignment maps the five roles to players. Each top-level operation
// builds a fresh one; it is never updated in place.
type LineupAssignment struct {
	Strategy     Strategy        `json:"strategy"`
	Family       string          `json:"family,omitempty"`
	Variant      int             `json:"variant,omitempty"`
	Slots        [RoleCount]Slot `json:"slots"`
	TotalScore   int             `json:"total_score"`
	AverageScore float64         `json:"average_score"`
}

// emptySlots returns one empty slot per role in canonical order.
func emptySlots() [RoleCount]Slot {
	var slots [RoleCount]Slot
	for i, r := range canonicalRoles {
		slots[i] = Slot{Role: r, Score: NoScore}
	}
	return slots
}

func newAssignment(strategy Strategy, slots [RoleCount]Slot) LineupAssignment {
	a := LineupAssignment{Strategy: strategy, Slots: slots}
	filled := 0
	for _, s := range slots {
		if s.IsFilled() && s.Score.Present {
			a.TotalScore += s.Score.Value
			filled++
		}
	}
	if filled > 0 {
		a.AverageScore = math.Round(float64(a.TotalScore)/float64(filled)*100) / 100
	}
	return a
}

// Slot returns the slot of role.
func (a LineupAssignment) Slot(role Role) (Slot, bool) {
	i := role.Index()
	if i < 0 {
		return Slot{}, false
	}
	return a.Slots[i], true
}

// PlayerFor returns the player bound to role, if any.
func (a LineupAssignment) PlayerFor(role Role) (shared.PlayerID, bool) {
	s, ok := a.Slot(role)
	if !ok || !s.IsFilled() {
		return "", false
	}
	return s.PlayerID, true
}

// FilledCount returns the number of bound roles.
func (a LineupAssignment) FilledCount() int {
	n := 0
	for _, s := range a.Slots {
		if s.IsFilled() {
			n++
		}
	}
	return n
}

// IsComplete reports whether all five roles are bound.
func (a LineupAssignment) IsComplete() bool {
	return a.FilledCount() == RoleCount
}

// Validate checks slot order, score range and that no player holds two roles.
func (a LineupAssignment) Validate() error {
	seen := make(map[shared.PlayerID]Role, RoleCount)
	for i, s := range a.Slots {
		if s.Role != canonicalRoles[i] {
			return shared.NewDomainError("lineup", "ValidateAssignment", shared.ErrInvalidEntity,
				fmt.Sprintf("slot %d holds role %q, want %q", i, s.Role, canonicalRoles[i]))
		}
		if s.Score.Present && (s.Score.Value < 0 || s.Score.Value > 100) {
			return shared.NewDomainError("lineup", "ValidateAssignment", shared.ErrValueOutOfRange,
				fmt.Sprintf("score %d for %s out of range", s.Score.Value, s.Role))
		}
		if !s.IsFilled() {
			continue
		}
		if prev, dup := seen[s.PlayerID]; dup {
			return shared.NewDomainError("lineup", "ValidateAssignment", ErrDoubleBooked,
				fmt.Sprintf("player %s holds %s and %s", s.PlayerID, prev, s.Role))
		}
		seen[s.PlayerID] = s.Role
	}
	return nil
}

// uniquePlayers drops players without an ID and players whose ID already
// appeared earlier in the list. An empty ID cannot be bound to a slot.
func uniquePlayers(players []Player) []Player {
	seen := make(map[shared.PlayerID]struct{}, len(players))
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func filterPtr(f FilterCombination) *FilterCombination {
	return &f
}
