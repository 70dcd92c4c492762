// Package shared holds the identifiers and error kinds every domain package
// uses. It imports nothing outside the standard library.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is or the Is* predicates below; the
// HTTP and MCP layers map each kind to a status.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// Lineup engine outcomes.
	ErrConfiguration       = errors.New("configuration error")
	ErrNoValidAssignment   = errors.New("no valid assignment")
	ErrComputationCanceled = errors.New("computation canceled")

	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError names where an error happened (Domain.Op) and what kind it is.
// errors.Is matches both the Kind and the wrapped cause, so a DomainError can
// itself serve as the Kind of another.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap prefers the cause; errors.Is reaches the kind through Is.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *DomainError) Is(target error) bool {
	return (e.Kind != nil && errors.Is(e.Kind, target)) ||
		(e.Err != nil && errors.Is(e.Err, target))
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// ─── Players and matches ───

var (
	ErrPlayerNotFound      = NewDomainError("player", "Find", ErrNotFound, "player not found")
	ErrPlayerAlreadyExists = NewDomainError("player", "Create", ErrAlreadyExists, "player already exists")
	ErrInvalidPlayerID     = NewDomainError("player", "Validate", ErrInvalidID, "invalid player ID")
	ErrDuplicateMatch      = NewDomainError("match", "Append", ErrAlreadyExists, "match already recorded for player")
)

// ─── Saved lineups ───

var (
	ErrLineupNotFound      = NewDomainError("lineup", "Find", ErrNotFound, "saved lineup not found")
	ErrLineupAlreadyExists = NewDomainError("lineup", "Save", ErrAlreadyExists, "saved lineup name already taken")
	ErrInvalidLineupName   = NewDomainError("lineup", "Validate", ErrInvalidInput, "invalid lineup name")
)

// ─── Match record store ───

var (
	ErrStoreUnavailable = NewDomainError("store", "Request", ErrServiceUnavailable, "match record store is unavailable")
	ErrStoreTimeout     = NewDomainError("store", "Request", ErrTimeout, "match record store request timeout")
)

// ─── Predicates ───

var (
	validationKinds = []error{ErrValidation, ErrInvalidID, ErrInvalidInput, ErrEmptyValue, ErrValueOutOfRange, ErrInvalidEntity}
	externalKinds   = []error{ErrExternalService, ErrServiceUnavailable, ErrTimeout, ErrRateLimited}
	retryableKinds  = []error{ErrServiceUnavailable, ErrTimeout}
)

func isAny(err error, kinds []error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
func IsValidation(err error) bool    { return isAny(err, validationKinds) }

// IsConfiguration reports a request the catalog cannot satisfy, such as an
// unknown composition family or an archetype with no candidates.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsNoValidAssignment reports a search that finished without a lineup.
func IsNoValidAssignment(err error) bool { return errors.Is(err, ErrNoValidAssignment) }

func IsExternalService(err error) bool { return isAny(err, externalKinds) }

// IsRetryable reports transient store failures: unavailability and timeouts.
func IsRetryable(err error) bool { return isAny(err, retryableKinds) }
