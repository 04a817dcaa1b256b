package events

import (
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted        EventType = "ticket_submitted"
	EventTicketClassified       EventType = "ticket_classified"
	EventTicketFlaggedForReview EventType = "ticket_flagged_for_review"
	EventTicketAssigned         EventType = "ticket_assigned"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketResolved         EventType = "ticket_resolved"
	EventModelActivated         EventType = "model_activated"
)

// ActorType identifies who triggered an event.
type ActorType string

const (
	ActorSystem     ActorType = "SYSTEM"
	ActorRequester  ActorType = "REQUESTER"
	ActorTechnician ActorType = "TECHNICIAN"
	ActorAdmin      ActorType = "ADMIN"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type ActorType `json:"type"`
	ID   *string   `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	Number   string                `json:"number"`
	Subject  string                `json:"subject"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketClassifiedPayload payload.
type TicketClassifiedPayload struct {
	Category   domain.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	ModelKind  string          `json:"model_kind"`
	Version    string          `json:"model_version"`
}

// TicketFlaggedPayload payload.
type TicketFlaggedPayload struct {
	Reason     string   `json:"reason"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID string                 `json:"technician_id"`
	AssignedBy   domain.AssignmentActor `json:"assigned_by"`
	Reassigned   bool                   `json:"reassigned,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Override  bool                `json:"admin_override,omitempty"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	TechnicianID    string        `json:"technician_id"`
	ResolutionNotes string        `json:"resolution_notes,omitempty"`
	ResolutionTime  time.Duration `json:"resolution_time_ns"`
}

// ModelActivatedPayload payload.
type ModelActivatedPayload struct {
	Version   string  `json:"version"`
	ModelKind string  `json:"model_kind"`
	Accuracy  float64 `json:"accuracy"`
}
