package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// PlayerID represents a unique internal player identifier (UUID format).
type PlayerID string

// Regular expression for UUID validation.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the player ID is a valid UUID.
func (p PlayerID) IsValid() bool {
	return uuidRegex.MatchString(string(p))
}

// String returns the string representation.
func (p PlayerID) String() string {
	return string(p)
}

// IsEmpty returns true if the ID is empty.
func (p PlayerID) IsEmpty() bool {
	return p == ""
}

// NewPlayerID creates a new PlayerID with validation.
func NewPlayerID(id string) (PlayerID, error) {
	pid := PlayerID(strings.ToLower(strings.TrimSpace(id)))
	if !pid.IsValid() {
		return "", ErrInvalidPlayerID
	}
	return pid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Lineup Name Value Object
// ═══════════════════════════════════════════════════════════════════════════

// LineupName is the user-chosen key under which a lineup is saved.
type LineupName string

// Lowercase letters, digits, dash and underscore; 1-64 chars.
var lineupNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// IsValid checks the name format.
func (n LineupName) IsValid() bool {
	return lineupNameRegex.MatchString(string(n))
}

// String returns the string representation.
func (n LineupName) String() string {
	return string(n)
}

// NewLineupName normalizes (trim + lowercase) and validates a lineup name.
func NewLineupName(raw string) (LineupName, error) {
	name := LineupName(strings.ToLower(strings.TrimSpace(raw)))
	if !name.IsValid() {
		return "", ErrInvalidLineupName
	}
	return name, nil
}
