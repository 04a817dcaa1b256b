package dto

import (
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	ResolutionNotes *string `json:"resolution_notes"`
}

// ForceCloseRequest payload.
type ForceCloseRequest struct {
	Comment string `json:"comment"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                     string                `json:"id"`
	Number                 string                `json:"ticket_number"`
	Subject                string                `json:"subject"`
	Category               *domain.Category      `json:"category"`
	ConfidenceScore        *float64              `json:"confidence_score"`
	Priority               domain.TicketPriority `json:"priority"`
	Status                 domain.TicketStatus   `json:"status"`
	FlaggedForManualReview bool                  `json:"flagged_for_manual_review"`
	SubmittedAt            time.Time             `json:"submitted_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

// TicketDetail response with full lifecycle telemetry.
type TicketDetail struct {
	TicketSummary
	RequesterID            string     `json:"requester_id"`
	Description            string     `json:"description"`
	ManualAssignmentReason *string    `json:"manual_assignment_reason,omitempty"`
	ClassifiedAt           *time.Time `json:"classified_at,omitempty"`
	AssignedAt             *time.Time `json:"assigned_at,omitempty"`
	InProgressAt           *time.Time `json:"in_progress_at,omitempty"`
	ResolvedAt             *time.Time `json:"resolved_at,omitempty"`
	ClosedAt               *time.Time `json:"closed_at,omitempty"`
	TimeToClassifySeconds  *float64   `json:"time_to_classify_seconds,omitempty"`
	TimeToAssignSeconds    *float64   `json:"time_to_assign_seconds,omitempty"`
	TimeToResolveSeconds   *float64   `json:"time_to_resolve_seconds,omitempty"`
	TimeToCloseSeconds     *float64   `json:"time_to_close_seconds,omitempty"`
}

// AssignmentResponse audit entry.
type AssignmentResponse struct {
	ID              string                 `json:"id"`
	TicketID        string                 `json:"ticket_id"`
	TechnicianID    string                 `json:"technician_id"`
	AssignedBy      domain.AssignmentActor `json:"assigned_by"`
	AssignedAt      time.Time              `json:"assigned_at"`
	AcceptedAt      *time.Time             `json:"accepted_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
	ResolutionNotes *string                `json:"resolution_notes,omitempty"`
	Active          bool                   `json:"is_active"`
}

// ManualAssignRequest payload for review-queue assignment.
type ManualAssignRequest struct {
	TechnicianID string           `json:"technician_id"`
	Category     *domain.Category `json:"category,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	TechnicianID string  `json:"technician_id"`
	Notes        *string `json:"notes,omitempty"`
}
