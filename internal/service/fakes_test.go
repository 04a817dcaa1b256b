package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
)

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	nextID  int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.Number == number {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.FlaggedForManualReview != nil && ticket.FlaggedForManualReview != *filter.FlaggedForManualReview {
			continue
		}
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

type fakeTechnicianRepo struct {
	technicians map[string]*domain.Technician
	nextID      int
}

func newFakeTechnicianRepo() *fakeTechnicianRepo {
	return &fakeTechnicianRepo{technicians: map[string]*domain.Technician{}}
}

func (r *fakeTechnicianRepo) Create(_ context.Context, technician *domain.Technician) error {
	r.nextID++
	technician.ID = fmt.Sprintf("tech-%d", r.nextID)
	stored := *technician
	r.technicians[technician.ID] = &stored
	return nil
}

func (r *fakeTechnicianRepo) Update(_ context.Context, technician *domain.Technician) error {
	if _, ok := r.technicians[technician.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *technician
	r.technicians[technician.ID] = &stored
	return nil
}

func (r *fakeTechnicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	technician, ok := r.technicians[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *technician
	return &clone, nil
}

func (r *fakeTechnicianRepo) ListWithFilter(_ context.Context, filter repository.TechnicianFilter) ([]domain.Technician, error) {
	var out []domain.Technician
	for _, technician := range r.technicians {
		if filter.Active != nil && technician.Active != *filter.Active {
			continue
		}
		if filter.Skill != nil && !technician.HasSkill(*filter.Skill) {
			continue
		}
		if filter.Availability != nil && technician.Availability != *filter.Availability {
			continue
		}
		if filter.UnderCapacity && technician.AtCapacity() {
			continue
		}
		out = append(out, *technician)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentWorkload != out[j].CurrentWorkload {
			return out[i].CurrentWorkload < out[j].CurrentWorkload
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// fakeAssignmentRepo mimics the transactional repository: the capacity
// recheck, the single-active invariant and the workload recompute all happen
// inside AssignTicket, as they would in the database transaction.
type fakeAssignmentRepo struct {
	tickets     *fakeTicketRepo
	technicians *fakeTechnicianRepo
	assignments []*domain.Assignment
	nextID      int
}

func newFakeAssignmentRepo(tickets *fakeTicketRepo, technicians *fakeTechnicianRepo) *fakeAssignmentRepo {
	return &fakeAssignmentRepo{tickets: tickets, technicians: technicians}
}

func (r *fakeAssignmentRepo) GetActiveByTicket(_ context.Context, ticketID string) (*domain.Assignment, error) {
	for _, assignment := range r.assignments {
		if assignment.TicketID == ticketID && assignment.Active {
			clone := *assignment
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAssignmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Assignment, error) {
	var out []domain.Assignment
	for _, assignment := range r.assignments {
		if assignment.TicketID == ticketID {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListActiveByTechnician(_ context.Context, technicianID string) ([]domain.Assignment, error) {
	var out []domain.Assignment
	for _, assignment := range r.assignments {
		if assignment.TechnicianID == technicianID && assignment.Active && assignment.CompletedAt == nil {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) MarkAccepted(_ context.Context, assignmentID string) error {
	for _, assignment := range r.assignments {
		if assignment.ID == assignmentID && assignment.AcceptedAt == nil {
			now := time.Now()
			assignment.AcceptedAt = &now
		}
	}
	return nil
}

func (r *fakeAssignmentRepo) AssignTicket(ctx context.Context, ticket *domain.Ticket, technicianID string, assignedBy domain.AssignmentActor, notes *string) (*domain.Assignment, error) {
	technician, ok := r.technicians.technicians[technicianID]
	if !ok || !technician.Active {
		return nil, pgx.ErrNoRows
	}
	if assignedBy == domain.AssignedBySystem &&
		(technician.CurrentWorkload >= technician.MaxWorkload || technician.Availability != domain.AvailabilityAvailable) {
		return nil, domain.ErrNoEligibleTechnician
	}

	var prior string
	for _, assignment := range r.assignments {
		if assignment.TicketID == ticket.ID && assignment.Active {
			assignment.Active = false
			prior = assignment.TechnicianID
		}
	}

	r.nextID++
	assignment := &domain.Assignment{
		ID:           fmt.Sprintf("assign-%d", r.nextID),
		TicketID:     ticket.ID,
		TechnicianID: technicianID,
		AssignedBy:   assignedBy,
		AssignedAt:   time.Now(),
		Notes:        notes,
		Active:       true,
	}
	r.assignments = append(r.assignments, assignment)

	if err := r.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	r.recomputeWorkload(technicianID)
	if prior != "" && prior != technicianID {
		r.recomputeWorkload(prior)
	}
	clone := *assignment
	return &clone, nil
}

func (r *fakeAssignmentRepo) CompleteActive(ctx context.Context, ticket *domain.Ticket, resolutionNotes *string, resolutionTime time.Duration) (*domain.Assignment, error) {
	for _, assignment := range r.assignments {
		if assignment.TicketID != ticket.ID || !assignment.Active || assignment.CompletedAt != nil {
			continue
		}
		now := time.Now()
		assignment.CompletedAt = &now
		assignment.ResolutionNotes = resolutionNotes
		if err := r.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		if technician, ok := r.technicians.technicians[assignment.TechnicianID]; ok {
			total := technician.TotalResolved
			technician.AvgResolutionTime = time.Duration(
				(float64(technician.AvgResolutionTime)*float64(total) + float64(resolutionTime)) / float64(total+1))
			technician.TotalResolved = total + 1
		}
		r.recomputeWorkload(assignment.TechnicianID)
		clone := *assignment
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAssignmentRepo) recomputeWorkload(technicianID string) {
	count := 0
	for _, assignment := range r.assignments {
		if assignment.TechnicianID == technicianID && assignment.Active && assignment.CompletedAt == nil {
			count++
		}
	}
	if technician, ok := r.technicians.technicians[technicianID]; ok {
		technician.CurrentWorkload = count
	}
}
