package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/api/dto"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/service"
	apperrors "github.com/IanOtollo/skanem-helpdesk-system/pkg/util"
)

// TechniciansHandler manages roster endpoints.
type TechniciansHandler struct {
	technicians *service.TechnicianService
	assigner    *service.AssignmentService
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians *service.TechnicianService, assigner *service.AssignmentService) *TechniciansHandler {
	return &TechniciansHandler{technicians: technicians, assigner: assigner}
}

// Create POST /technicians.
func (h *TechniciansHandler) Create(c *fiber.Ctx) error {
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	technician, err := h.technicians.Create(c.UserContext(), technicianInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": technicianResponse(technician)})
}

// Update PUT /technicians/:id.
func (h *TechniciansHandler) Update(c *fiber.Ctx) error {
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	technician, err := h.technicians.Update(c.UserContext(), c.Params("id"), technicianInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(technician)})
}

// SetAvailability PATCH /technicians/:id/availability.
func (h *TechniciansHandler) SetAvailability(c *fiber.Ctx) error {
	var req dto.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	technician, err := h.technicians.SetAvailability(c.UserContext(), c.Params("id"), req.Availability)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(technician)})
}

// Deactivate DELETE /technicians/:id.
func (h *TechniciansHandler) Deactivate(c *fiber.Ctx) error {
	technician, err := h.technicians.Deactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(technician)})
}

// Get GET /technicians/:id.
func (h *TechniciansHandler) Get(c *fiber.Ctx) error {
	technician, err := h.technicians.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(technician)})
}

// List GET /technicians.
func (h *TechniciansHandler) List(c *fiber.Ctx) error {
	filter := repository.TechnicianFilter{Limit: c.QueryInt("limit", 50)}
	if raw := c.Query("skill"); raw != "" {
		skill := domain.Category(raw)
		filter.Skill = &skill
	}
	if raw := c.Query("availability"); raw != "" {
		availability := domain.AvailabilityStatus(raw)
		filter.Availability = &availability
	}
	technicians, err := h.technicians.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TechnicianResponse, 0, len(technicians))
	for i := range technicians {
		items = append(items, technicianResponse(&technicians[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Queue GET /technicians/:id/queue.
func (h *TechniciansHandler) Queue(c *fiber.Ctx) error {
	assignments, err := h.assigner.TechnicianQueue(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		items = append(items, assignmentResponse(&assignments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func technicianInput(req dto.TechnicianRequest) service.TechnicianInput {
	return service.TechnicianInput{
		Name:         req.Name,
		Email:        req.Email,
		Skills:       req.Skills,
		MaxWorkload:  req.MaxWorkload,
		Availability: req.Availability,
		Expertise:    req.Expertise,
	}
}
