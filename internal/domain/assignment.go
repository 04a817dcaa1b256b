package domain

import "time"

// AssignmentActor records who created an assignment.
type AssignmentActor string

const (
	AssignedBySystem AssignmentActor = "SYSTEM"
	AssignedByAdmin  AssignmentActor = "ADMIN"
)

// Assignment links one ticket to one technician. A ticket has at most one
// active assignment; reassignment deactivates the prior row instead of
// deleting it, so the full assignment history survives as an audit trail.
type Assignment struct {
	ID              string
	TicketID        string
	TechnicianID    string
	AssignedBy      AssignmentActor
	AssignedAt      time.Time
	AcceptedAt      *time.Time
	CompletedAt     *time.Time
	Notes           *string
	ResolutionNotes *string
	Active          bool
}
