package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same
// statements serve single calls and transactional units.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketFilter captures ticket search parameters.
type TicketFilter struct {
	RequesterID            *string
	Statuses               []domain.TicketStatus
	Category               *domain.Category
	FlaggedForManualReview *bool
	SearchTerm             *string
	Limit                  int
	Offset                 int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, requester_id, subject, description, category,
               confidence_score, priority, status, flagged_for_manual_review, manual_assignment_reason,
               submitted_at, classified_at, assigned_at, in_progress_at, resolved_at, closed_at,
               time_to_classify_seconds, time_to_assign_seconds, time_to_resolve_seconds, time_to_close_seconds,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, requester_id, subject, description, category,
            confidence_score, priority, status, flagged_for_manual_review, manual_assignment_reason, submitted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Number,
		ticket.RequesterID,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		ticket.ConfidenceScore,
		ticket.Priority,
		ticket.Status,
		ticket.FlaggedForManualReview,
		ticket.ManualAssignmentReason,
		ticket.SubmittedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return updateTicket(ctx, r.pool, ticket)
}

// updateTicket persists every mutable ticket column. Shared with the
// assignment repository so ticket and assignment writes can ride one
// transaction.
func updateTicket(ctx context.Context, q querier, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category=$1, confidence_score=$2, priority=$3, status=$4,
            flagged_for_manual_review=$5, manual_assignment_reason=$6,
            classified_at=$7, assigned_at=$8, in_progress_at=$9, resolved_at=$10, closed_at=$11,
            time_to_classify_seconds=$12, time_to_assign_seconds=$13,
            time_to_resolve_seconds=$14, time_to_close_seconds=$15,
            updated_at=NOW()
        WHERE id=$16`
	cmd, err := q.Exec(ctx, query,
		ticket.Category,
		ticket.ConfidenceScore,
		ticket.Priority,
		ticket.Status,
		ticket.FlaggedForManualReview,
		ticket.ManualAssignmentReason,
		ticket.ClassifiedAt,
		ticket.AssignedAt,
		ticket.InProgressAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		durationSeconds(ticket.TimeToClassify),
		durationSeconds(ticket.TimeToAssign),
		durationSeconds(ticket.TimeToResolve),
		durationSeconds(ticket.TimeToClose),
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_number=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	return scanTicket(row)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.FlaggedForManualReview != nil {
		args = append(args, *filter.FlaggedForManualReview)
		clauses = append(clauses, fmt.Sprintf("flagged_for_manual_review=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var toClassify, toAssign, toResolve, toClose *int64
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.RequesterID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Category,
		&ticket.ConfidenceScore,
		&ticket.Priority,
		&ticket.Status,
		&ticket.FlaggedForManualReview,
		&ticket.ManualAssignmentReason,
		&ticket.SubmittedAt,
		&ticket.ClassifiedAt,
		&ticket.AssignedAt,
		&ticket.InProgressAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&toClassify,
		&toAssign,
		&toResolve,
		&toClose,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.TimeToClassify = secondsDuration(toClassify)
	ticket.TimeToAssign = secondsDuration(toAssign)
	ticket.TimeToResolve = secondsDuration(toResolve)
	ticket.TimeToClose = secondsDuration(toClose)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
