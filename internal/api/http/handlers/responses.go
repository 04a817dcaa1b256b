package handlers

import (
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/api/dto"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                     ticket.ID,
		Number:                 ticket.Number,
		Subject:                ticket.Subject,
		Category:               ticket.Category,
		ConfidenceScore:        ticket.ConfidenceScore,
		Priority:               ticket.Priority,
		Status:                 ticket.Status,
		FlaggedForManualReview: ticket.FlaggedForManualReview,
		SubmittedAt:            ticket.SubmittedAt,
		UpdatedAt:              ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetail {
	return dto.TicketDetail{
		TicketSummary:          ticketSummary(ticket),
		RequesterID:            ticket.RequesterID,
		Description:            ticket.Description,
		ManualAssignmentReason: ticket.ManualAssignmentReason,
		ClassifiedAt:           ticket.ClassifiedAt,
		AssignedAt:             ticket.AssignedAt,
		InProgressAt:           ticket.InProgressAt,
		ResolvedAt:             ticket.ResolvedAt,
		ClosedAt:               ticket.ClosedAt,
		TimeToClassifySeconds:  durationSeconds(ticket.TimeToClassify),
		TimeToAssignSeconds:    durationSeconds(ticket.TimeToAssign),
		TimeToResolveSeconds:   durationSeconds(ticket.TimeToResolve),
		TimeToCloseSeconds:     durationSeconds(ticket.TimeToClose),
	}
}

func assignmentResponse(assignment *domain.Assignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:              assignment.ID,
		TicketID:        assignment.TicketID,
		TechnicianID:    assignment.TechnicianID,
		AssignedBy:      assignment.AssignedBy,
		AssignedAt:      assignment.AssignedAt,
		AcceptedAt:      assignment.AcceptedAt,
		CompletedAt:     assignment.CompletedAt,
		Notes:           assignment.Notes,
		ResolutionNotes: assignment.ResolutionNotes,
		Active:          assignment.Active,
	}
}

func technicianResponse(technician *domain.Technician) dto.TechnicianResponse {
	return dto.TechnicianResponse{
		ID:                   technician.ID,
		Name:                 technician.Name,
		Email:                technician.Email,
		Skills:               technician.Skills,
		CurrentWorkload:      technician.CurrentWorkload,
		MaxWorkload:          technician.MaxWorkload,
		Availability:         technician.Availability,
		Expertise:            technician.Expertise,
		TotalResolved:        technician.TotalResolved,
		AvgResolutionSeconds: technician.AvgResolutionTime.Seconds(),
		Active:               technician.Active,
		LastLogin:            technician.LastLogin,
	}
}

func modelVersionResponse(version *domain.ModelVersion) dto.ModelVersionResponse {
	return dto.ModelVersionResponse{
		ID:              version.ID,
		Version:         version.Version,
		ModelKind:       version.ModelKind,
		TrainingSamples: version.TrainingSamples,
		TestingSamples:  version.TestingSamples,
		Accuracy:        version.Accuracy,
		Precision:       version.Precision,
		Recall:          version.Recall,
		F1:              version.F1,
		CategoryMetrics: version.CategoryMetrics,
		Categories:      version.Categories,
		IsActive:        version.IsActive,
		TrainedAt:       version.TrainedAt,
		DeployedAt:      version.DeployedAt,
	}
}

func durationSeconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	s := d.Seconds()
	return &s
}
