package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/api/dto"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/service"
	apperrors "github.com/IanOtollo/skanem-helpdesk-system/pkg/util"
)

// AdminHandler exposes the manual review queue and override operations.
type AdminHandler struct {
	tickets  *service.TicketService
	assigner *service.AssignmentService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tickets *service.TicketService, assigner *service.AssignmentService) *AdminHandler {
	return &AdminHandler{tickets: tickets, assigner: assigner}
}

// ReviewQueue GET /admin/review-queue.
func (h *AdminHandler) ReviewQueue(c *fiber.Ctx) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	tickets, err := h.tickets.ReviewQueue(c.UserContext(), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /admin/tickets/:id/assign.
func (h *AdminHandler) Assign(c *fiber.Ctx) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var req dto.ManualAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	ticket, assignment, err := h.assigner.ManualAssign(c.UserContext(), service.ManualAssignInput{
		TicketID:     c.Params("id"),
		TechnicianID: req.TechnicianID,
		AdminID:      c.Get(headerAdminID),
		Category:     req.Category,
		Notes:        req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket":     ticketDetail(ticket),
		"assignment": assignmentResponse(assignment),
	}})
}

// Reassign POST /admin/tickets/:id/reassign.
func (h *AdminHandler) Reassign(c *fiber.Ctx) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	ticket, assignment, err := h.assigner.Reassign(c.UserContext(), c.Params("id"), req.TechnicianID, c.Get(headerAdminID), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket":     ticketDetail(ticket),
		"assignment": assignmentResponse(assignment),
	}})
}

// ForceClose POST /admin/tickets/:id/force-close.
func (h *AdminHandler) ForceClose(c *fiber.Ctx) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var req dto.ForceCloseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.ForceCloseTicket(c.UserContext(), c.Params("id"), c.Get(headerAdminID), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func requireAdmin(c *fiber.Ctx) error {
	if c.Get(headerAdminID) == "" {
		return apperrors.NewUnauthorized("admin identity required")
	}
	return nil
}
