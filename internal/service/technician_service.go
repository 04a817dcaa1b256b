package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
	apperrors "github.com/IanOtollo/skanem-helpdesk-system/pkg/util"
)

// TechnicianService manages the technician roster.
type TechnicianService struct {
	technicians repository.TechnicianRepository
}

// NewTechnicianService creates the service.
func NewTechnicianService(technicians repository.TechnicianRepository) *TechnicianService {
	return &TechnicianService{technicians: technicians}
}

// TechnicianInput describes roster create/update payloads.
type TechnicianInput struct {
	Name         string
	Email        string
	Skills       []domain.Category
	MaxWorkload  int
	Availability domain.AvailabilityStatus
	Expertise    domain.ExpertiseLevel
}

// Create registers a technician.
func (s *TechnicianService) Create(ctx context.Context, input TechnicianInput) (*domain.Technician, error) {
	if err := validateTechnicianInput(input); err != nil {
		return nil, err
	}
	technician := &domain.Technician{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Skills:       input.Skills,
		MaxWorkload:  input.MaxWorkload,
		Availability: input.Availability,
		Expertise:    input.Expertise,
		Active:       true,
	}
	if technician.MaxWorkload <= 0 {
		technician.MaxWorkload = 5
	}
	if technician.Availability == "" {
		technician.Availability = domain.AvailabilityAvailable
	}
	if technician.Expertise == "" {
		technician.Expertise = domain.ExpertiseJunior
	}
	if err := s.technicians.Create(ctx, technician); err != nil {
		return nil, err
	}
	return technician, nil
}

// Update replaces roster attributes. Workload is never set directly; it is
// derived from active assignments.
func (s *TechnicianService) Update(ctx context.Context, id string, input TechnicianInput) (*domain.Technician, error) {
	if err := validateTechnicianInput(input); err != nil {
		return nil, err
	}
	technician, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	technician.Name = strings.TrimSpace(input.Name)
	technician.Email = strings.ToLower(strings.TrimSpace(input.Email))
	technician.Skills = input.Skills
	if input.MaxWorkload > 0 {
		technician.MaxWorkload = input.MaxWorkload
	}
	if input.Availability != "" {
		technician.Availability = input.Availability
	}
	if input.Expertise != "" {
		technician.Expertise = input.Expertise
	}
	if err := s.technicians.Update(ctx, technician); err != nil {
		return nil, err
	}
	return technician, nil
}

// SetAvailability updates only the availability flag, stamping activity.
func (s *TechnicianService) SetAvailability(ctx context.Context, id string, availability domain.AvailabilityStatus) (*domain.Technician, error) {
	switch availability {
	case domain.AvailabilityAvailable, domain.AvailabilityBusy, domain.AvailabilityOffline:
	default:
		return nil, apperrors.NewValidationError("unknown availability status", map[string]any{"availability": availability})
	}
	technician, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	technician.Availability = availability
	technician.LastLogin = &now
	if err := s.technicians.Update(ctx, technician); err != nil {
		return nil, err
	}
	return technician, nil
}

// Deactivate removes a technician from matching without deleting history.
func (s *TechnicianService) Deactivate(ctx context.Context, id string) (*domain.Technician, error) {
	technician, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	technician.Active = false
	technician.Availability = domain.AvailabilityOffline
	if err := s.technicians.Update(ctx, technician); err != nil {
		return nil, err
	}
	return technician, nil
}

// Get fetches a technician by ID.
func (s *TechnicianService) Get(ctx context.Context, id string) (*domain.Technician, error) {
	technician, err := s.technicians.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
		}
		return nil, err
	}
	return technician, nil
}

// List applies the caller's filter.
func (s *TechnicianService) List(ctx context.Context, filter repository.TechnicianFilter) ([]domain.Technician, error) {
	return s.technicians.ListWithFilter(ctx, filter)
}

func validateTechnicianInput(input TechnicianInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	if !strings.Contains(input.Email, "@") {
		return apperrors.NewValidationError("valid email required", nil)
	}
	for _, skill := range input.Skills {
		if !domain.ValidCategory(skill) {
			return apperrors.NewValidationError("unknown skill category", map[string]any{"category": skill})
		}
	}
	return nil
}
