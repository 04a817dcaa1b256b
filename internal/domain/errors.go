package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the routing pipeline. All of them are locally
// recoverable: the caller either rejects the single request or falls back to
// manual review. Only storage failures are fatal to a request.
var (
	// ErrEmptyText rejects a submission whose subject and description
	// normalize to nothing; the pipeline never featurizes empty input.
	ErrEmptyText = errors.New("ticket text is empty")

	// ErrModelUnavailable means no active model version is registered.
	// The pipeline fails closed and routes the ticket to manual review.
	ErrModelUnavailable = errors.New("no active model version")

	// ErrInvalidTransition signals an illegal lifecycle transition.
	// The ticket is left untouched.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrNoEligibleTechnician is the matcher's empty-candidate outcome.
	// Not a failure: the caller routes the ticket to manual review.
	ErrNoEligibleTechnician = errors.New("no eligible technician")

	// ErrModelValidationFailure means a trained candidate scored below the
	// accuracy floor; the registry refuses activation and the prior active
	// version remains in force.
	ErrModelValidationFailure = errors.New("model below accuracy floor")
)

// TransitionError wraps ErrInvalidTransition with the attempted edge.
func TransitionError(from, to TicketStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
