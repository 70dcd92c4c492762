package lineup

import (
	"strings"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH TAGS
// ══════════════════════════════════════════════════════════════════════════════

// Wildcard is the filter value that matches any tag, including unknown.
const Wildcard = "ALL"

// Side is the map side a team played on.
type Side string

const (
	SideAll     Side = Wildcard
	SideBlue    Side = "BLUE"
	SideRed     Side = "RED"
	SideUnknown Side = ""
)

// LaneAllocation describes how game resources were allocated to the player's lane.
type LaneAllocation string

const (
	LaneAll        LaneAllocation = Wildcard
	LaneStrongSide LaneAllocation = "STRONG_SIDE"
	LaneWeakSide   LaneAllocation = "WEAK_SIDE"
	LaneNeutral    LaneAllocation = "NEUTRAL"
	LaneRoaming    LaneAllocation = "ROAMING"
	LaneUnknown    LaneAllocation = ""
)

// CompositionStyle is the tactical function the player performed in a match.
type CompositionStyle string

const (
	StyleAll       CompositionStyle = Wildcard
	StyleEngage    CompositionStyle = "ENGAGE"
	StylePickup    CompositionStyle = "PICKUP"
	StyleProtect   CompositionStyle = "PROTECT"
	StyleSiege     CompositionStyle = "SIEGE"
	StyleSplitpush CompositionStyle = "SPLITPUSH"
	StyleUnknown   CompositionStyle = ""
)

// MatchResult is the outcome of a match for the player's team.
type MatchResult string

const (
	ResultWin   MatchResult = "WIN"
	ResultLoss  MatchResult = "LOSS"
	ResultOther MatchResult = ""
)

var (
	knownSides  = []Side{SideBlue, SideRed}
	knownLanes  = []LaneAllocation{LaneStrongSide, LaneWeakSide, LaneNeutral, LaneRoaming}
	knownStyles = []CompositionStyle{StyleEngage, StylePickup, StyleProtect, StyleSiege, StyleSplitpush}
)

// Styles returns the composition styles a match can be tagged with.
func Styles() []CompositionStyle {
	out := make([]CompositionStyle, len(knownStyles))
	copy(out, knownStyles)
	return out
}

// ParseSide parses a side tag. Empty input means unknown.
func ParseSide(s string) (Side, error) {
	v := Side(strings.ToUpper(strings.TrimSpace(s)))
	if v == SideUnknown || v == SideAll {
		return v, nil
	}
	for _, k := range knownSides {
		if v == k {
			return v, nil
		}
	}
	return "", invalidValue("ParseSide", ErrInvalidSide, s)
}

// ParseLaneAllocation parses a lane allocation tag. Empty input means unknown.
func ParseLaneAllocation(s string) (LaneAllocation, error) {
	v := LaneAllocation(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	if v == LaneUnknown || v == LaneAll {
		return v, nil
	}
	for _, k := range knownLanes {
		if v == k {
			return v, nil
		}
	}
	return "", invalidValue("ParseLaneAllocation", ErrInvalidLaneAllocation, s)
}

// ParseCompositionStyle parses a composition style tag. Empty input means unknown.
func ParseCompositionStyle(s string) (CompositionStyle, error) {
	v := CompositionStyle(strings.ToUpper(strings.TrimSpace(s)))
	if v == StyleUnknown || v == StyleAll {
		return v, nil
	}
	for _, k := range knownStyles {
		if v == k {
			return v, nil
		}
	}
	return "", invalidValue("ParseCompositionStyle", ErrInvalidStyle, s)
}

// ParseMatchResult parses WIN/LOSS; anything empty is "other" (remake, unknown).
func ParseMatchResult(s string) (MatchResult, error) {
	switch v := MatchResult(strings.ToUpper(strings.TrimSpace(s))); v {
	case ResultWin, ResultLoss, ResultOther:
		return v, nil
	case "REMAKE", "UNKNOWN":
		return ResultOther, nil
	default:
		return "", invalidValue("ParseMatchResult", ErrInvalidResult, s)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH PARTICIPATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultDurationSeconds is assumed for matches without a recorded duration.
const DefaultDurationSeconds = 1800

// MatchParticipation is one player's record of one match. It is never mutated
// after creation; new matches append new records.
//
// Nil counters mean "not recorded" and count as 0. A nil or zero duration
// counts as DefaultDurationSeconds.
type MatchParticipation struct {
	MatchID          string           `json:"match_id"`
	PlayerID         shared.PlayerID  `json:"player_id"`
	Role             Role             `json:"role"`
	Champion         string           `json:"champion,omitempty"`
	Kills            *int             `json:"kills,omitempty"`
	Deaths           *int             `json:"deaths,omitempty"`
	Assists          *int             `json:"assists,omitempty"`
	CreepScore       *int             `json:"creep_score,omitempty"`
	VisionScore      *int             `json:"vision_score,omitempty"`
	DurationSeconds  *int             `json:"duration_seconds,omitempty"`
	Result           MatchResult      `json:"result"`
	Side             Side             `json:"side"`
	LaneAllocation   LaneAllocation   `json:"lane_allocation"`
	CompositionStyle CompositionStyle `json:"composition_style"`
	PlayedAt         time.Time        `json:"played_at"`
}

// NewMatchParticipationParams holds the raw values of a participation record.
type NewMatchParticipationParams struct {
	MatchID          string
	PlayerID         shared.PlayerID
	Role             Role
	Champion         string
	Kills            *int
	Deaths           *int
	Assists          *int
	CreepScore       *int
	VisionScore      *int
	DurationSeconds  *int
	Result           MatchResult
	Side             Side
	LaneAllocation   LaneAllocation
	CompositionStyle CompositionStyle
	PlayedAt         time.Time
}

// NewMatchParticipation validates params and builds an immutable record.
// Wildcard tags are rejected: a match is always tagged with a concrete value or unknown.
func NewMatchParticipation(p NewMatchParticipationParams) (MatchParticipation, error) {
	if strings.TrimSpace(p.MatchID) == "" {
		return MatchParticipation{}, shared.NewDomainError("lineup", "NewMatchParticipation", ErrInvalidMatch, "match id is required")
	}
	if !p.Role.IsValid() {
		return MatchParticipation{}, invalidValue("NewMatchParticipation", ErrInvalidRole, p.Role)
	}
	if p.Side == SideAll {
		return MatchParticipation{}, invalidValue("NewMatchParticipation", ErrInvalidSide, p.Side)
	}
	if p.LaneAllocation == LaneAll {
		return MatchParticipation{}, invalidValue("NewMatchParticipation", ErrInvalidLaneAllocation, p.LaneAllocation)
	}
	if p.CompositionStyle == StyleAll {
		return MatchParticipation{}, invalidValue("NewMatchParticipation", ErrInvalidStyle, p.CompositionStyle)
	}
	counters := []struct {
		name  string
		value *int
	}{
		{"kills", p.Kills},
		{"deaths", p.Deaths},
		{"assists", p.Assists},
		{"creep_score", p.CreepScore},
		{"vision_score", p.VisionScore},
		{"duration_seconds", p.DurationSeconds},
	}
	for _, c := range counters {
		if c.value != nil && *c.value < 0 {
			return MatchParticipation{}, shared.NewDomainError("lineup", "NewMatchParticipation", ErrInvalidMatch, c.name+" cannot be negative")
		}
	}

	return MatchParticipation{
		MatchID:          strings.TrimSpace(p.MatchID),
		PlayerID:         p.PlayerID,
		Role:             p.Role,
		Champion:         p.Champion,
		Kills:            copyInt(p.Kills),
		Deaths:           copyInt(p.Deaths),
		Assists:          copyInt(p.Assists),
		CreepScore:       copyInt(p.CreepScore),
		VisionScore:      copyInt(p.VisionScore),
		DurationSeconds:  copyInt(p.DurationSeconds),
		Result:           p.Result,
		Side:             p.Side,
		LaneAllocation:   p.LaneAllocation,
		CompositionStyle: p.CompositionStyle,
		PlayedAt:         p.PlayedAt.UTC(),
	}, nil
}

// EffectiveMinutes returns the match length in minutes, defaulting to 30.
func (m MatchParticipation) EffectiveMinutes() float64 {
	if m.DurationSeconds == nil || *m.DurationSeconds == 0 {
		return DefaultDurationSeconds / 60.0
	}
	return float64(*m.DurationSeconds) / 60.0
}

// IsWin reports whether the player's team won.
func (m MatchParticipation) IsWin() bool {
	return m.Result == ResultWin
}

// VisionFromWards sums ward counters into a vision score.
func VisionFromWards(placed, killed, controlBought int) int {
	return placed + killed + controlBought
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

func valueOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER
// ══════════════════════════════════════════════════════════════════════════════

// Player is an identity plus its ordered match history.
type Player struct {
	ID          shared.PlayerID      `json:"id"`
	DisplayName string               `json:"display_name"`
	Matches     []MatchParticipation `json:"matches"`
}

// MatchCountByRole returns how many records the player has per role.
func (p Player) MatchCountByRole() map[Role]int {
	counts := make(map[Role]int, RoleCount)
	for _, m := range p.Matches {
		counts[m.Role]++
	}
	return counts
}
