package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/events"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/ml"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/observability"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
	apperrors "github.com/IanOtollo/skanem-helpdesk-system/pkg/util"
)

const (
	reviewReasonModelUnavailable = "no active classification model"
	reviewReasonNoTechnician     = "no eligible technician for category"
)

// TicketService runs the submission pipeline and the lifecycle operations
// that follow it.
type TicketService struct {
	tickets     repository.TicketRepository
	assignments repository.AssignmentRepository
	registry    *ml.Registry
	assigner    *AssignmentService
	gate        ConfidenceGate
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	AssignmentRepo repository.AssignmentRepository
	Registry       *ml.Registry
	Assigner       *AssignmentService
	Gate           ConfidenceGate
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewTicketService creates the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		assignments: deps.AssignmentRepo,
		registry:    deps.Registry,
		assigner:    deps.Assigner,
		gate:        deps.Gate,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// TicketCreateInput describes a submission payload.
type TicketCreateInput struct {
	RequesterID string
	Subject     string
	Description string
	Priority    domain.TicketPriority
}

// SubmitTicket creates a ticket and pushes it through classification and
// routing. The ticket is always persisted in SUBMITTED first; everything
// after that point degrades to the manual review queue rather than failing
// the submission.
func (s *TicketService) SubmitTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" && description == "" {
		return nil, domain.ErrEmptyText
	}
	if strings.TrimSpace(input.RequesterID) == "" {
		return nil, apperrors.NewValidationError("requester id required", nil)
	}
	priority := input.Priority
	if priority.Rank() == 0 {
		priority = domain.TicketPriorityMedium
	}

	ticket := &domain.Ticket{
		Number:      "TCK-" + strings.ToUpper(uuid.NewString()[:8]),
		RequesterID: input.RequesterID,
		Subject:     subject,
		Description: description,
		Priority:    priority,
		Status:      domain.TicketStatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketSubmitted, ticket.ID,
		events.Actor{Type: events.ActorRequester, ID: &ticket.RequesterID},
		events.TicketSubmittedPayload{Number: ticket.Number, Subject: ticket.Subject, Priority: ticket.Priority})

	if err := s.classifyAndRoute(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// classifyAndRoute runs the classification model over a submitted ticket and
// either auto-assigns it or parks it in the manual review queue. Only
// persistence failures propagate.
func (s *TicketService) classifyAndRoute(ctx context.Context, ticket *domain.Ticket) error {
	model, err := s.registry.Active()
	if err != nil {
		s.logger.Warn("classification skipped", zap.String("ticket", ticket.Number), zap.Error(err))
		return s.flagForReview(ctx, ticket, reviewReasonModelUnavailable, nil)
	}

	text := ml.NormalizeText(ticket.Subject, ticket.Description)
	prediction := model.Classifier.Predict(model.Vectorizer.Transform(text))

	now := time.Now().UTC()
	if err := Advance(ticket, domain.TicketStatusClassified, now); err != nil {
		return err
	}
	category := prediction.Category
	confidence := prediction.Confidence
	ticket.Category = &category
	ticket.ConfidenceScore = &confidence

	decision := s.gate.Decide(confidence)
	outcome := "manual_review"
	if decision.AutoRoute {
		outcome = "auto_routed"
	}
	s.metrics.RecordClassification(string(category), outcome, confidence)
	s.publish(ctx, events.EventTicketClassified, ticket.ID, events.Actor{Type: events.ActorSystem},
		events.TicketClassifiedPayload{
			Category:   category,
			Confidence: confidence,
			ModelKind:  model.Version.ModelKind,
			Version:    model.Version.Version,
		})

	if !decision.AutoRoute {
		return s.flagForReview(ctx, ticket, decision.Reason, &confidence)
	}

	if _, _, err := s.assigner.AutoAssign(ctx, ticket); err != nil {
		if errors.Is(err, domain.ErrNoEligibleTechnician) {
			// No match, or the capacity re-check inside the assignment
			// transaction failed. AutoAssign has rolled the ticket back
			// to CLASSIFIED, so it lands in the review queue.
			return s.flagForReview(ctx, ticket, reviewReasonNoTechnician, &confidence)
		}
		return err
	}
	return nil
}

func (s *TicketService) flagForReview(ctx context.Context, ticket *domain.Ticket, reason string, confidence *float64) error {
	ticket.FlaggedForManualReview = true
	ticket.ManualAssignmentReason = &reason
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return err
	}
	s.metrics.RecordManualReview(reason)
	s.publish(ctx, events.EventTicketFlaggedForReview, ticket.ID, events.Actor{Type: events.ActorSystem},
		events.TicketFlaggedPayload{Reason: reason, Confidence: confidence})
	s.logger.Info("ticket flagged for manual review",
		zap.String("ticket", ticket.Number), zap.String("reason", reason))
	return nil
}

// StartProgress moves an assigned ticket to IN_PROGRESS. Only the assigned
// technician may start work; the first start also stamps assignment
// acceptance.
func (s *TicketService) StartProgress(ctx context.Context, ticketID, technicianID string) (*domain.Ticket, error) {
	ticket, assignment, err := s.ticketWithAssignment(ctx, ticketID, technicianID)
	if err != nil {
		return nil, err
	}
	old := ticket.Status
	if err := Advance(ticket, domain.TicketStatusInProgress, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.assignments.MarkAccepted(ctx, assignment.ID); err != nil {
		s.logger.Warn("mark accepted failed", zap.String("assignment_id", assignment.ID), zap.Error(err))
	}
	s.publishStatusChanged(ctx, ticket, events.Actor{Type: events.ActorTechnician, ID: &technicianID}, old, false, "")
	return ticket, nil
}

// ResolveTicket moves an in-progress ticket to RESOLVED and folds the
// resolution into the technician's statistics. Resolution time is measured
// from assignment, not submission.
func (s *TicketService) ResolveTicket(ctx context.Context, ticketID, technicianID string, resolutionNotes *string) (*domain.Ticket, error) {
	ticket, assignment, err := s.ticketWithAssignment(ctx, ticketID, technicianID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	old := ticket.Status
	if err := Advance(ticket, domain.TicketStatusResolved, now); err != nil {
		return nil, err
	}
	resolutionTime := now.Sub(assignment.AssignedAt)
	if _, err := s.assignments.CompleteActive(ctx, ticket, resolutionNotes, resolutionTime); err != nil {
		return nil, err
	}

	notes := ""
	if resolutionNotes != nil {
		notes = *resolutionNotes
	}
	s.publishStatusChanged(ctx, ticket, events.Actor{Type: events.ActorTechnician, ID: &technicianID}, old, false, "")
	s.publish(ctx, events.EventTicketResolved, ticket.ID,
		events.Actor{Type: events.ActorTechnician, ID: &technicianID},
		events.TicketResolvedPayload{
			TechnicianID:    technicianID,
			ResolutionNotes: notes,
			ResolutionTime:  resolutionTime,
		})
	return ticket, nil
}

// CloseTicket moves a resolved ticket to CLOSED, normally on requester
// confirmation.
func (s *TicketService) CloseTicket(ctx context.Context, ticketID string, actor events.Actor) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	old := ticket.Status
	if err := Advance(ticket, domain.TicketStatusClosed, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChanged(ctx, ticket, actor, old, false, "")
	return ticket, nil
}

// ForceCloseTicket is the admin override that closes a ticket regardless of
// its current stage. The skip is recorded on the status change event.
func (s *TicketService) ForceCloseTicket(ctx context.Context, ticketID, adminID, comment string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	old := ticket.Status
	if err := ForceClose(ticket, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChanged(ctx, ticket, events.Actor{Type: events.ActorAdmin, ID: &adminID}, old, true, comment)
	s.logger.Info("ticket force closed",
		zap.String("ticket", ticket.Number),
		zap.String("admin_id", adminID),
		zap.String("from_status", string(old)))
	return ticket, nil
}

// GetTicket fetches a ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// GetTicketByNumber fetches a ticket by its human-facing number.
func (s *TicketService) GetTicketByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets applies the caller's filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// ReviewQueue lists tickets waiting on a human decision, oldest pending
// first by submission order within the repository's sort.
func (s *TicketService) ReviewQueue(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	flagged := true
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		FlaggedForManualReview: &flagged,
		Statuses:               []domain.TicketStatus{domain.TicketStatusSubmitted, domain.TicketStatusClassified},
		Limit:                  limit,
		Offset:                 offset,
	})
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// ticketWithAssignment loads a ticket and verifies the caller holds its
// active assignment.
func (s *TicketService) ticketWithAssignment(ctx context.Context, ticketID, technicianID string) (*domain.Ticket, *domain.Assignment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := s.assignments.GetActiveByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewConflict("ticket has no active assignment", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, err
	}
	if assignment.TechnicianID != technicianID {
		return nil, nil, apperrors.NewForbidden("ticket is assigned to another technician")
	}
	return ticket, assignment, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticketID string, actor events.Actor, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func (s *TicketService) publishStatusChanged(ctx context.Context, ticket *domain.Ticket, actor events.Actor, old domain.TicketStatus, override bool, comment string) {
	s.publish(ctx, events.EventTicketStatusChanged, ticket.ID, actor, events.TicketStatusChangedPayload{
		OldStatus: old,
		NewStatus: ticket.Status,
		Override:  override,
		Comment:   comment,
	})
}
