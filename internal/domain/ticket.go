package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. States form a strict
// forward order; transitions are enforced by the lifecycle controller in the
// service layer.
type TicketStatus string

const (
	TicketStatusSubmitted  TicketStatus = "SUBMITTED"
	TicketStatusClassified TicketStatus = "CLASSIFIED"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// LifecycleOrder lists the ticket states in their mandatory forward order.
var LifecycleOrder = []TicketStatus{
	TicketStatusSubmitted,
	TicketStatusClassified,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// StageIndex returns the position of a status in the lifecycle order, or -1
// for an unknown status.
func StageIndex(status TicketStatus) int {
	for i, s := range LifecycleOrder {
		if s == status {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether the status admits no further transitions.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Rank returns the ordinal of the priority, higher meaning more urgent.
// Unknown priorities rank below Low.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityCritical:
		return 4
	default:
		return 0
	}
}

// Category labels a ticket with the kind of problem it describes. The label
// set is defined by the training data; the constants below are the well-known
// categories used by seeds and fixtures.
type Category string

const (
	CategoryHardware Category = "Hardware"
	CategorySoftware Category = "Software"
	CategoryNetwork  Category = "Network"
	CategoryDatabase Category = "Database"
)

// KnownCategories lists the categories the current training data covers.
var KnownCategories = []Category{CategoryHardware, CategorySoftware, CategoryNetwork, CategoryDatabase}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	for _, known := range KnownCategories {
		if known == c {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests. Description is immutable
// after submission. Category and ConfidenceScore stay nil until the
// classification stage; each per-stage timestamp is stamped at most once and
// the stamped sequence is non-decreasing in lifecycle order.
type Ticket struct {
	ID                     string
	Number                 string
	RequesterID            string
	Subject                string
	Description            string
	Category               *Category
	ConfidenceScore        *float64 // 0..100, max class probability at classification time
	Priority               TicketPriority
	Status                 TicketStatus
	FlaggedForManualReview bool
	ManualAssignmentReason *string

	SubmittedAt  time.Time
	ClassifiedAt *time.Time
	AssignedAt   *time.Time
	InProgressAt *time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time

	// Durations measured from SubmittedAt, computed when the matching stage
	// timestamp is stamped.
	TimeToClassify *time.Duration
	TimeToAssign   *time.Duration
	TimeToResolve  *time.Duration
	TimeToClose    *time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}
