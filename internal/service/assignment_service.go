package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/events"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/observability"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
	apperrors "github.com/IanOtollo/skanem-helpdesk-system/pkg/util"
)

// AssignmentService matches tickets to technicians and records assignments.
type AssignmentService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	assignments repository.AssignmentRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	AssignmentRepo repository.AssignmentRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		assignments: deps.AssignmentRepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// MatchTechnician selects the best technician for a category: skilled in it,
// available, under capacity and active. Candidates are ranked by current
// workload ascending; ties fall to the higher expertise level, then to the
// earliest last login, then to name for determinism.
func (s *AssignmentService) MatchTechnician(ctx context.Context, category domain.Category) (*domain.Technician, error) {
	availability := domain.AvailabilityAvailable
	active := true
	candidates, err := s.technicians.ListWithFilter(ctx, repository.TechnicianFilter{
		Skill:         &category,
		Availability:  &availability,
		UnderCapacity: true,
		Active:        &active,
	})
	if err != nil {
		return nil, err
	}
	eligible := candidates[:0]
	for _, c := range candidates {
		if c.HasSkill(category) && !c.AtCapacity() {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, domain.ErrNoEligibleTechnician
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.CurrentWorkload != b.CurrentWorkload {
			return a.CurrentWorkload < b.CurrentWorkload
		}
		if a.Expertise.Rank() != b.Expertise.Rank() {
			return a.Expertise.Rank() > b.Expertise.Rank()
		}
		al, bl := lastLoginTime(&a), lastLoginTime(&b)
		if !al.Equal(bl) {
			return al.Before(bl)
		}
		return a.Name < b.Name
	})
	return &eligible[0], nil
}

// lastLoginTime treats a technician who never logged in as the earliest.
func lastLoginTime(t *domain.Technician) time.Time {
	if t.LastLogin == nil {
		return time.Time{}
	}
	return *t.LastLogin
}

// AutoAssign matches a classified ticket to a technician and records the
// assignment atomically. Callers treat domain.ErrNoEligibleTechnician,
// whether from matching or from losing the capacity race inside the
// transaction, as a signal to fall back to manual review.
func (s *AssignmentService) AutoAssign(ctx context.Context, ticket *domain.Ticket) (*domain.Assignment, *domain.Technician, error) {
	if ticket.Category == nil {
		return nil, nil, domain.ErrNoEligibleTechnician
	}
	technician, err := s.MatchTechnician(ctx, *ticket.Category)
	if err != nil {
		return nil, nil, err
	}

	// The transition is staged in memory so AssignTicket persists the
	// ASSIGNED row and the assignment in one transaction. If the insert
	// fails, including losing the capacity re-check inside the
	// transaction, the ticket must not keep the half-applied transition.
	prevStatus, prevAssignedAt, prevTimeToAssign := ticket.Status, ticket.AssignedAt, ticket.TimeToAssign
	if err := Advance(ticket, domain.TicketStatusAssigned, time.Now().UTC()); err != nil {
		return nil, nil, err
	}
	assignment, err := s.assignments.AssignTicket(ctx, ticket, technician.ID, domain.AssignedBySystem, nil)
	if err != nil {
		ticket.Status, ticket.AssignedAt, ticket.TimeToAssign = prevStatus, prevAssignedAt, prevTimeToAssign
		return nil, nil, err
	}

	s.metrics.RecordAssignment(string(domain.AssignedBySystem))
	s.publishAssigned(ctx, ticket, events.Actor{Type: events.ActorSystem}, events.TicketAssignedPayload{
		TechnicianID: technician.ID,
		AssignedBy:   domain.AssignedBySystem,
	})
	s.logger.Info("ticket auto assigned",
		zap.String("ticket", ticket.Number),
		zap.String("technician_id", technician.ID),
		zap.String("category", string(*ticket.Category)))
	return assignment, technician, nil
}

// ManualAssignInput describes an admin assignment of a flagged ticket.
type ManualAssignInput struct {
	TicketID     string
	TechnicianID string
	AdminID      string
	// Category must be provided when the ticket was never classified, e.g.
	// flagged because no model was active.
	Category *domain.Category
	Notes    *string
}

// ManualAssign is the admin path for tickets sitting in the manual review
// queue. It fills in a missing classification when the admin supplies one,
// walks the ticket forward to ASSIGNED and clears the review flag. Admin
// assignments may exceed technician capacity.
func (s *AssignmentService) ManualAssign(ctx context.Context, input ManualAssignInput) (*domain.Ticket, *domain.Assignment, error) {
	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": input.TicketID})
		}
		return nil, nil, err
	}
	technician, err := s.technicians.GetByID(ctx, input.TechnicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": input.TechnicianID})
		}
		return nil, nil, err
	}
	if !technician.Active {
		return nil, nil, apperrors.NewConflict("technician inactive", map[string]any{"technician_id": technician.ID})
	}

	now := time.Now().UTC()
	if ticket.Status == domain.TicketStatusSubmitted {
		if input.Category == nil && ticket.Category == nil {
			return nil, nil, apperrors.NewValidationError("category required for unclassified ticket", nil)
		}
		if input.Category != nil {
			ticket.Category = input.Category
		}
		if err := Advance(ticket, domain.TicketStatusClassified, now); err != nil {
			return nil, nil, err
		}
	} else if input.Category != nil {
		ticket.Category = input.Category
	}
	if err := Advance(ticket, domain.TicketStatusAssigned, now); err != nil {
		return nil, nil, err
	}
	ticket.FlaggedForManualReview = false

	assignment, err := s.assignments.AssignTicket(ctx, ticket, technician.ID, domain.AssignedByAdmin, input.Notes)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.RecordAssignment(string(domain.AssignedByAdmin))
	s.publishAssigned(ctx, ticket, events.Actor{Type: events.ActorAdmin, ID: &input.AdminID}, events.TicketAssignedPayload{
		TechnicianID: technician.ID,
		AssignedBy:   domain.AssignedByAdmin,
	})
	s.logger.Info("ticket manually assigned",
		zap.String("ticket", ticket.Number),
		zap.String("technician_id", technician.ID),
		zap.String("admin_id", input.AdminID))
	return ticket, assignment, nil
}

// Reassign moves an already assigned ticket to a different technician. The
// ticket keeps its lifecycle stage; only the assignment audit trail and
// workloads change.
func (s *AssignmentService) Reassign(ctx context.Context, ticketID, technicianID, adminID string, notes *string) (*domain.Ticket, *domain.Assignment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, err
	}
	if ticket.Status != domain.TicketStatusAssigned && ticket.Status != domain.TicketStatusInProgress {
		return nil, nil, domain.TransitionError(ticket.Status, domain.TicketStatusAssigned)
	}
	technician, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, nil, err
	}
	if !technician.Active {
		return nil, nil, apperrors.NewConflict("technician inactive", map[string]any{"technician_id": technician.ID})
	}

	assignment, err := s.assignments.AssignTicket(ctx, ticket, technician.ID, domain.AssignedByAdmin, notes)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.RecordAssignment(string(domain.AssignedByAdmin))
	s.publishAssigned(ctx, ticket, events.Actor{Type: events.ActorAdmin, ID: &adminID}, events.TicketAssignedPayload{
		TechnicianID: technician.ID,
		AssignedBy:   domain.AssignedByAdmin,
		Reassigned:   true,
	})
	return ticket, assignment, nil
}

// AssignmentHistory returns the full audit trail for a ticket.
func (s *AssignmentService) AssignmentHistory(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	return s.assignments.ListByTicket(ctx, ticketID)
}

// TechnicianQueue lists a technician's open assignments.
func (s *AssignmentService) TechnicianQueue(ctx context.Context, technicianID string) ([]domain.Assignment, error) {
	return s.assignments.ListActiveByTechnician(ctx, technicianID)
}

func (s *AssignmentService) publishAssigned(ctx context.Context, ticket *domain.Ticket, actor events.Actor, payload events.TicketAssignedPayload) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
