package service

import (
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// Advance moves a ticket forward exactly one lifecycle stage. Advancing to
// the status the ticket already holds is an idempotent no-op; any skip,
// backward move or transition out of a terminal state returns
// domain.ErrInvalidTransition. Stage timestamps are stamped only on the first
// entry into a stage.
func Advance(ticket *domain.Ticket, to domain.TicketStatus, now time.Time) error {
	if ticket.Status == to {
		return nil
	}
	if ticket.Status.IsTerminal() {
		return domain.TransitionError(ticket.Status, to)
	}
	from := domain.StageIndex(ticket.Status)
	next := domain.StageIndex(to)
	if from < 0 || next < 0 || next != from+1 {
		return domain.TransitionError(ticket.Status, to)
	}
	ticket.Status = to
	stampStage(ticket, to, now)
	return nil
}

// ForceClose closes a ticket from any non-terminal state. This is an admin
// override, recorded distinctly from the ordinary resolve-then-close path.
// Force closing an already closed ticket is a no-op.
func ForceClose(ticket *domain.Ticket, now time.Time) error {
	if ticket.Status == domain.TicketStatusClosed {
		return nil
	}
	ticket.Status = domain.TicketStatusClosed
	stampStage(ticket, domain.TicketStatusClosed, now)
	return nil
}

// stampStage records first entry into a stage along with the elapsed time
// since submission. Re-entering a stage (idempotent retries) never
// overwrites an existing stamp.
func stampStage(ticket *domain.Ticket, status domain.TicketStatus, now time.Time) {
	elapsed := now.Sub(ticket.SubmittedAt)

	switch status {
	case domain.TicketStatusClassified:
		if ticket.ClassifiedAt == nil {
			ticket.ClassifiedAt = &now
			ticket.TimeToClassify = &elapsed
		}
	case domain.TicketStatusAssigned:
		if ticket.AssignedAt == nil {
			ticket.AssignedAt = &now
			ticket.TimeToAssign = &elapsed
		}
	case domain.TicketStatusInProgress:
		if ticket.InProgressAt == nil {
			ticket.InProgressAt = &now
		}
	case domain.TicketStatusResolved:
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
			ticket.TimeToResolve = &elapsed
		}
	case domain.TicketStatusClosed:
		if ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
			ticket.TimeToClose = &elapsed
		}
	}
}
