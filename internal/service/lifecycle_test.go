package service

import (
	"errors"
	"testing"
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

func submittedTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:          "t-1",
		Number:      "TCK-TEST",
		Status:      domain.TicketStatusSubmitted,
		SubmittedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestAdvanceWalksFullLifecycle(t *testing.T) {
	ticket := submittedTicket()
	now := ticket.SubmittedAt
	for _, next := range domain.LifecycleOrder[1:] {
		now = now.Add(10 * time.Minute)
		if err := Advance(ticket, next, now); err != nil {
			t.Fatalf("Advance to %s: %v", next, err)
		}
		if ticket.Status != next {
			t.Fatalf("status = %s, want %s", ticket.Status, next)
		}
	}
	if ticket.ClassifiedAt == nil || ticket.AssignedAt == nil || ticket.InProgressAt == nil ||
		ticket.ResolvedAt == nil || ticket.ClosedAt == nil {
		t.Fatal("missing stage timestamps after full walk")
	}
	if *ticket.TimeToClassify != 10*time.Minute {
		t.Fatalf("TimeToClassify = %v", *ticket.TimeToClassify)
	}
	if *ticket.TimeToClose != 50*time.Minute {
		t.Fatalf("TimeToClose = %v", *ticket.TimeToClose)
	}
}

func TestAdvanceSameStatusIsNoOp(t *testing.T) {
	ticket := submittedTicket()
	now := ticket.SubmittedAt.Add(time.Minute)
	if err := Advance(ticket, domain.TicketStatusClassified, now); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	stamped := *ticket.ClassifiedAt

	if err := Advance(ticket, domain.TicketStatusClassified, now.Add(time.Hour)); err != nil {
		t.Fatalf("repeat Advance: %v", err)
	}
	if !ticket.ClassifiedAt.Equal(stamped) {
		t.Fatal("idempotent retry overwrote the stage timestamp")
	}
}

func TestAdvanceRejectsSkips(t *testing.T) {
	ticket := submittedTicket()
	err := Advance(ticket, domain.TicketStatusAssigned, time.Now())
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if ticket.Status != domain.TicketStatusSubmitted {
		t.Fatalf("failed transition mutated status to %s", ticket.Status)
	}
}

func TestAdvanceRejectsBackward(t *testing.T) {
	ticket := submittedTicket()
	now := ticket.SubmittedAt
	for _, next := range []domain.TicketStatus{domain.TicketStatusClassified, domain.TicketStatusAssigned} {
		now = now.Add(time.Minute)
		if err := Advance(ticket, next, now); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if err := Advance(ticket, domain.TicketStatusClassified, now); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition going backward, got %v", err)
	}
}

func TestAdvanceRejectsOutOfTerminal(t *testing.T) {
	ticket := submittedTicket()
	ticket.Status = domain.TicketStatusClosed
	err := Advance(ticket, domain.TicketStatusSubmitted, time.Now())
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of CLOSED, got %v", err)
	}
}

func TestAdvanceUnknownStatus(t *testing.T) {
	ticket := submittedTicket()
	if err := Advance(ticket, domain.TicketStatus("ARCHIVED"), time.Now()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unknown status, got %v", err)
	}
}

func TestForceCloseSkipsStages(t *testing.T) {
	ticket := submittedTicket()
	now := ticket.SubmittedAt.Add(2 * time.Hour)
	if err := ForceClose(ticket, now); err != nil {
		t.Fatalf("ForceClose: %v", err)
	}
	if ticket.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %s", ticket.Status)
	}
	if ticket.ClosedAt == nil || !ticket.ClosedAt.Equal(now) {
		t.Fatal("ClosedAt not stamped")
	}
	if *ticket.TimeToClose != 2*time.Hour {
		t.Fatalf("TimeToClose = %v", *ticket.TimeToClose)
	}
	// Skipped stages stay unstamped.
	if ticket.ClassifiedAt != nil || ticket.ResolvedAt != nil {
		t.Fatal("force close stamped skipped stages")
	}
}

func TestForceCloseAlreadyClosedIsNoOp(t *testing.T) {
	ticket := submittedTicket()
	first := ticket.SubmittedAt.Add(time.Hour)
	if err := ForceClose(ticket, first); err != nil {
		t.Fatalf("ForceClose: %v", err)
	}
	if err := ForceClose(ticket, first.Add(time.Hour)); err != nil {
		t.Fatalf("repeat ForceClose: %v", err)
	}
	if !ticket.ClosedAt.Equal(first) {
		t.Fatal("repeat force close moved ClosedAt")
	}
}
