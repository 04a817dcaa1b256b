package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/api/dto"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/events"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/service"
	apperrors "github.com/IanOtollo/skanem-helpdesk-system/pkg/util"
)

// Caller identity headers. Authentication is handled upstream by the
// gateway; these carry the already verified principal.
const (
	headerRequesterID  = "X-Requester-ID"
	headerTechnicianID = "X-Technician-ID"
	headerAdminID      = "X-Admin-ID"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	assigner *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assigner *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assigner: assigner}
}

// SubmitTicket POST /tickets.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	requesterID := c.Get(headerRequesterID)
	if requesterID == "" {
		return apperrors.NewUnauthorized("requester identity required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.SubmitTicket(c.UserContext(), service.TicketCreateInput{
		RequesterID: requesterID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	if requesterID := c.Get(headerRequesterID); requesterID != "" {
		filter.RequesterID = &requesterID
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// GetTicketByNumber GET /tickets/number/:number.
func (h *TicketsHandler) GetTicketByNumber(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicketByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListAssignments GET /tickets/:id/assignments.
func (h *TicketsHandler) ListAssignments(c *fiber.Ctx) error {
	history, err := h.assigner.AssignmentHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentResponse, 0, len(history))
	for i := range history {
		items = append(items, assignmentResponse(&history[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// StartProgress POST /tickets/:id/start.
func (h *TicketsHandler) StartProgress(c *fiber.Ctx) error {
	technicianID := c.Get(headerTechnicianID)
	if technicianID == "" {
		return apperrors.NewUnauthorized("technician identity required")
	}
	ticket, err := h.tickets.StartProgress(c.UserContext(), c.Params("id"), technicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ResolveTicket POST /tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	technicianID := c.Get(headerTechnicianID)
	if technicianID == "" {
		return apperrors.NewUnauthorized("technician identity required")
	}
	var req dto.ResolveTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.ResolveTicket(c.UserContext(), c.Params("id"), technicianID, req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	actor := events.Actor{Type: events.ActorRequester}
	if requesterID := c.Get(headerRequesterID); requesterID != "" {
		actor.ID = &requesterID
	}
	ticket, err := h.tickets.CloseTicket(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part)))
			if domain.StageIndex(status) >= 0 {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if raw := c.Query("category"); raw != "" {
		category := domain.Category(raw)
		filter.Category = &category
	}
	if raw := c.Query("flagged"); raw != "" {
		if flagged, err := strconv.ParseBool(raw); err == nil {
			filter.FlaggedForManualReview = &flagged
		}
	}
	if raw := c.Query("search"); raw != "" {
		filter.SearchTerm = &raw
	}
	filter.Limit = c.QueryInt("limit", 20)
	filter.Offset = c.QueryInt("offset", 0)
	return filter
}
