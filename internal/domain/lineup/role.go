package lineup

import "strings"

// Role is one of the five fixed positional slots of a team.
type Role string

const (
	RoleTop     Role = "TOP"
	RoleJungle  Role = "JUNGLE"
	RoleMid     Role = "MID"
	RoleADC     Role = "ADC"
	RoleSupport Role = "SUPPORT"
)

// RoleCount is the number of roles in a lineup.
const RoleCount = 5

// canonicalRoles is the positional order used for slots and template alignment.
var canonicalRoles = [RoleCount]Role{RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport}

// fillPriority is the order in which the composition search fills roles.
// Changing it changes which player wins contested roles.
var fillPriority = [RoleCount]Role{RoleADC, RoleMid, RoleTop, RoleJungle, RoleSupport}

// CanonicalRoles returns the roles in canonical order [TOP, JUNGLE, MID, ADC, SUPPORT].
func CanonicalRoles() [RoleCount]Role {
	return canonicalRoles
}

// FillPriority returns the greedy fill order [ADC, MID, TOP, JUNGLE, SUPPORT].
func FillPriority() [RoleCount]Role {
	return fillPriority
}

// IsValid reports whether r is one of the five roles.
func (r Role) IsValid() bool {
	return r.Index() >= 0
}

// Index returns the canonical position of the role, or -1.
func (r Role) Index() int {
	for i, c := range canonicalRoles {
		if c == r {
			return i
		}
	}
	return -1
}

// String returns the role identifier.
func (r Role) String() string {
	return string(r)
}

// TargetCSPerMinute is the expected creep score per minute for the role.
func (r Role) TargetCSPerMinute() float64 {
	switch r {
	case RoleJungle:
		return 8.0
	case RoleSupport:
		return 2.0
	default:
		return 10.0
	}
}

// ParseRole accepts the role identifiers plus the position names used by the
// game client (MIDDLE, BOTTOM, UTILITY, ...).
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP":
		return RoleTop, nil
	case "JUNGLE", "JG", "JGL":
		return RoleJungle, nil
	case "MID", "MIDDLE":
		return RoleMid, nil
	case "ADC", "BOTTOM", "BOT", "CARRY":
		return RoleADC, nil
	case "SUPPORT", "UTILITY", "SUP", "SUPP":
		return RoleSupport, nil
	default:
		return "", invalidValue("ParseRole", ErrInvalidRole, s)
	}
}
