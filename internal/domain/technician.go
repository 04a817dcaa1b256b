package domain

import "time"

// AvailabilityStatus captures whether a technician can take new work.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "AVAILABLE"
	AvailabilityBusy      AvailabilityStatus = "BUSY"
	AvailabilityOffline   AvailabilityStatus = "OFFLINE"
)

// ExpertiseLevel is the ordered seniority scale used as a matcher tiebreak.
type ExpertiseLevel string

const (
	ExpertiseJunior ExpertiseLevel = "JUNIOR"
	ExpertiseMid    ExpertiseLevel = "MID"
	ExpertiseSenior ExpertiseLevel = "SENIOR"
)

// Rank returns the ordinal of the expertise level, higher meaning more
// senior. Unknown levels rank below Junior.
func (e ExpertiseLevel) Rank() int {
	switch e {
	case ExpertiseJunior:
		return 1
	case ExpertiseMid:
		return 2
	case ExpertiseSenior:
		return 3
	default:
		return 0
	}
}

// Technician models a support operator who resolves tickets.
// CurrentWorkload is always recomputed from the set of active assignments;
// it is never incremented or decremented independently.
type Technician struct {
	ID                 string
	Name               string
	Email              string
	Skills             []Category
	CurrentWorkload    int
	MaxWorkload        int
	Availability       AvailabilityStatus
	Expertise          ExpertiseLevel
	TotalResolved      int
	AvgResolutionTime  time.Duration // rolling mean over resolved assignments
	Active             bool
	LastLogin          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasSkill reports whether the technician's skill set contains the category.
func (t *Technician) HasSkill(category Category) bool {
	for _, skill := range t.Skills {
		if skill == category {
			return true
		}
	}
	return false
}

// AtCapacity reports whether the technician has no room for another active
// assignment.
func (t *Technician) AtCapacity() bool {
	return t.CurrentWorkload >= t.MaxWorkload
}
