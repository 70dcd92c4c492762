package lineup

import (
	"fmt"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// Lineup engine errors. All of them are recoverable by the caller.
var (
	// Boundary validation.
	ErrInvalidRole           = shared.NewDomainError("lineup", "Validate", shared.ErrValidation, "unknown role")
	ErrInvalidSide           = shared.NewDomainError("lineup", "Validate", shared.ErrValidation, "unknown side")
	ErrInvalidLaneAllocation = shared.NewDomainError("lineup", "Validate", shared.ErrValidation, "unknown lane allocation")
	ErrInvalidStyle          = shared.NewDomainError("lineup", "Validate", shared.ErrValidation, "unknown composition style")
	ErrInvalidResult         = shared.NewDomainError("lineup", "Validate", shared.ErrValidation, "unknown match result")
	ErrInvalidMatch          = shared.NewDomainError("lineup", "NewMatchParticipation", shared.ErrValidation, "invalid match participation")

	// Configuration.
	ErrUnknownFamily   = shared.NewDomainError("lineup", "BuildComposition", shared.ErrConfiguration, "unknown archetype family")
	ErrUnknownLabel    = shared.NewDomainError("lineup", "MapLabel", shared.ErrConfiguration, "unknown archetype label")
	ErrInvalidTemplate = shared.NewDomainError("lineup", "ValidateCatalog", shared.ErrConfiguration, "invalid role archetype template")

	// Search outcome.
	ErrNoValidComposition = shared.NewDomainError("lineup", "BuildComposition", shared.ErrNoValidAssignment, "no valid composition")
	ErrSearchCanceled     = shared.NewDomainError("lineup", "BuildComposition", shared.ErrComputationCanceled, "composition search canceled")

	// Assignment integrity.
	ErrDoubleBooked = shared.NewDomainError("lineup", "ValidateAssignment", shared.ErrInvalidEntity, "player assigned to more than one role")
)

// invalidValue wraps a sentinel with the offending value so callers still match it with errors.Is.
func invalidValue(op string, sentinel *shared.DomainError, value any) error {
	return shared.NewDomainError("lineup", op, sentinel, fmt.Sprintf("%s %q", sentinel.Message, fmt.Sprint(value)))
}
