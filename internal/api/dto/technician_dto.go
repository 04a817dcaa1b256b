package dto

import (
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// TechnicianRequest payload for create/update.
type TechnicianRequest struct {
	Name         string                    `json:"name"`
	Email        string                    `json:"email"`
	Skills       []domain.Category         `json:"skills"`
	MaxWorkload  int                       `json:"max_workload"`
	Availability domain.AvailabilityStatus `json:"availability"`
	Expertise    domain.ExpertiseLevel     `json:"expertise_level"`
}

// AvailabilityRequest payload.
type AvailabilityRequest struct {
	Availability domain.AvailabilityStatus `json:"availability"`
}

// TechnicianResponse roster entry with workload telemetry.
type TechnicianResponse struct {
	ID                   string                    `json:"id"`
	Name                 string                    `json:"name"`
	Email                string                    `json:"email"`
	Skills               []domain.Category         `json:"skills"`
	CurrentWorkload      int                       `json:"current_workload"`
	MaxWorkload          int                       `json:"max_workload"`
	Availability         domain.AvailabilityStatus `json:"availability"`
	Expertise            domain.ExpertiseLevel     `json:"expertise_level"`
	TotalResolved        int                       `json:"total_resolved"`
	AvgResolutionSeconds float64                   `json:"avg_resolution_seconds"`
	Active               bool                      `json:"is_active"`
	LastLogin            *time.Time                `json:"last_login,omitempty"`
}
