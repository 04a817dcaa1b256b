package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// AssignmentRepository encapsulates assignment persistence, including the
// transactional units that keep tickets, assignments and technician
// workloads consistent.
type AssignmentRepository interface {
	GetActiveByTicket(ctx context.Context, ticketID string) (*domain.Assignment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error)
	ListActiveByTechnician(ctx context.Context, technicianID string) ([]domain.Assignment, error)

	// MarkAccepted stamps accepted_at on an assignment the first time the
	// technician starts work on it.
	MarkAccepted(ctx context.Context, assignmentID string) error

	// AssignTicket atomically deactivates any prior assignment, records the
	// new one, persists the ticket and recomputes technician workloads. The
	// technician row is locked so a concurrent assignment cannot push it
	// over capacity; a system assignment that loses the race returns
	// domain.ErrNoEligibleTechnician.
	AssignTicket(ctx context.Context, ticket *domain.Ticket, technicianID string, assignedBy domain.AssignmentActor, notes *string) (*domain.Assignment, error)

	// CompleteActive atomically completes the active assignment, persists
	// the resolved ticket and folds the resolution into the technician's
	// rolling statistics.
	CompleteActive(ctx context.Context, ticket *domain.Ticket, resolutionNotes *string, resolutionTime time.Duration) (*domain.Assignment, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

const assignmentColumns = `id, ticket_id, technician_id, assigned_by, assigned_at, accepted_at,
               completed_at, notes, resolution_notes, is_active`

func (r *assignmentRepository) GetActiveByTicket(ctx context.Context, ticketID string) (*domain.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=$1 AND is_active`
	return scanAssignment(r.pool.QueryRow(ctx, query, ticketID))
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=$1 ORDER BY assigned_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *assignmentRepository) ListActiveByTechnician(ctx context.Context, technicianID string) ([]domain.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments
        WHERE technician_id=$1 AND is_active AND completed_at IS NULL ORDER BY assigned_at ASC`
	rows, err := r.pool.Query(ctx, query, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *assignmentRepository) MarkAccepted(ctx context.Context, assignmentID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assignments SET accepted_at=NOW() WHERE id=$1 AND accepted_at IS NULL`, assignmentID)
	return err
}

func (r *assignmentRepository) AssignTicket(ctx context.Context, ticket *domain.Ticket, technicianID string, assignedBy domain.AssignmentActor, notes *string) (*domain.Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var workload, maxWorkload int
	var availability domain.AvailabilityStatus
	err = tx.QueryRow(ctx,
		`SELECT current_workload, max_workload, availability FROM technicians WHERE id=$1 AND is_active FOR UPDATE`,
		technicianID,
	).Scan(&workload, &maxWorkload, &availability)
	if err != nil {
		return nil, err
	}
	// Admins may override capacity and availability; the system may not.
	if assignedBy == domain.AssignedBySystem && (workload >= maxWorkload || availability != domain.AvailabilityAvailable) {
		return nil, domain.ErrNoEligibleTechnician
	}

	var priorTechnician *string
	err = tx.QueryRow(ctx,
		`UPDATE assignments SET is_active=FALSE WHERE ticket_id=$1 AND is_active RETURNING technician_id`,
		ticket.ID,
	).Scan(&priorTechnician)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	assignment := &domain.Assignment{
		TicketID:     ticket.ID,
		TechnicianID: technicianID,
		AssignedBy:   assignedBy,
		Notes:        notes,
		Active:       true,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO assignments (ticket_id, technician_id, assigned_by, notes, is_active)
         VALUES ($1,$2,$3,$4,TRUE) RETURNING id, assigned_at`,
		assignment.TicketID, assignment.TechnicianID, assignment.AssignedBy, assignment.Notes,
	).Scan(&assignment.ID, &assignment.AssignedAt)
	if err != nil {
		return nil, err
	}

	if err := updateTicket(ctx, tx, ticket); err != nil {
		return nil, err
	}

	if err := recomputeWorkload(ctx, tx, technicianID); err != nil {
		return nil, err
	}
	if priorTechnician != nil && *priorTechnician != technicianID {
		if err := recomputeWorkload(ctx, tx, *priorTechnician); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *assignmentRepository) CompleteActive(ctx context.Context, ticket *domain.Ticket, resolutionNotes *string, resolutionTime time.Duration) (*domain.Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	assignment, err := scanAssignment(tx.QueryRow(ctx,
		`UPDATE assignments SET completed_at=NOW(), resolution_notes=$2
         WHERE ticket_id=$1 AND is_active AND completed_at IS NULL
         RETURNING `+assignmentColumns,
		ticket.ID, resolutionNotes,
	))
	if err != nil {
		return nil, err
	}

	if err := updateTicket(ctx, tx, ticket); err != nil {
		return nil, err
	}

	// All column references read the pre-update row, so the rolling average
	// uses the old total_resolved.
	_, err = tx.Exec(ctx,
		`UPDATE technicians SET
            total_resolved = total_resolved + 1,
            avg_resolution_seconds = ((avg_resolution_seconds * total_resolved) + $2) / (total_resolved + 1),
            current_workload = (SELECT COUNT(*) FROM assignments
                WHERE technician_id=$1 AND is_active AND completed_at IS NULL),
            updated_at=NOW()
         WHERE id=$1`,
		assignment.TechnicianID, resolutionTime.Seconds(),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return assignment, nil
}

func recomputeWorkload(ctx context.Context, q querier, technicianID string) error {
	_, err := q.Exec(ctx,
		`UPDATE technicians SET current_workload = (SELECT COUNT(*) FROM assignments
            WHERE technician_id=$1 AND is_active AND completed_at IS NULL), updated_at=NOW()
         WHERE id=$1`,
		technicianID,
	)
	return err
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var assignment domain.Assignment
	if err := row.Scan(
		&assignment.ID,
		&assignment.TicketID,
		&assignment.TechnicianID,
		&assignment.AssignedBy,
		&assignment.AssignedAt,
		&assignment.AcceptedAt,
		&assignment.CompletedAt,
		&assignment.Notes,
		&assignment.ResolutionNotes,
		&assignment.Active,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func scanAssignments(rows pgx.Rows) ([]domain.Assignment, error) {
	var result []domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *assignment)
	}
	return result, rows.Err()
}
