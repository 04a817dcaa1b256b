package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// TechnicianFilter captures technician search parameters.
type TechnicianFilter struct {
	Skill         *domain.Category
	Availability  *domain.AvailabilityStatus
	UnderCapacity bool
	Active        *bool
	Limit         int
}

// TechnicianRepository encapsulates technician persistence.
type TechnicianRepository interface {
	Create(ctx context.Context, technician *domain.Technician) error
	Update(ctx context.Context, technician *domain.Technician) error
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	ListWithFilter(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error)
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, name, email, skills, current_workload, max_workload, availability,
               expertise_level, total_resolved, avg_resolution_seconds, is_active, last_login, created_at, updated_at`

func (r *technicianRepository) Create(ctx context.Context, technician *domain.Technician) error {
	const query = `
        INSERT INTO technicians (name, email, skills, current_workload, max_workload, availability,
            expertise_level, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		technician.Name,
		technician.Email,
		skillStrings(technician.Skills),
		technician.CurrentWorkload,
		technician.MaxWorkload,
		technician.Availability,
		technician.Expertise,
		technician.Active,
	).Scan(&technician.ID, &technician.CreatedAt, &technician.UpdatedAt)
}

func (r *technicianRepository) Update(ctx context.Context, technician *domain.Technician) error {
	const query = `
        UPDATE technicians SET name=$1, email=$2, skills=$3, max_workload=$4, availability=$5,
            expertise_level=$6, is_active=$7, last_login=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		technician.Name,
		technician.Email,
		skillStrings(technician.Skills),
		technician.MaxWorkload,
		technician.Availability,
		technician.Expertise,
		technician.Active,
		technician.LastLogin,
		technician.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	query := fmt.Sprintf(`SELECT %s FROM technicians WHERE id=$1`, technicianColumns)
	return scanTechnician(r.pool.QueryRow(ctx, query, id))
}

func (r *technicianRepository) ListWithFilter(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Skill != nil {
		args = append(args, string(*filter.Skill))
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(skills)", len(args)))
	}
	if filter.Availability != nil {
		args = append(args, *filter.Availability)
		clauses = append(clauses, fmt.Sprintf("availability=$%d", len(args)))
	}
	if filter.UnderCapacity {
		clauses = append(clauses, "current_workload < max_workload")
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	// Workload-ascending keeps assignment load balanced. Expertise and
	// resolution history break ties.
	query := fmt.Sprintf(`SELECT %s FROM technicians WHERE %s
        ORDER BY current_workload ASC, last_login ASC NULLS FIRST, name ASC LIMIT %d`,
		technicianColumns, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		technician, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *technician)
	}
	return result, rows.Err()
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var technician domain.Technician
	var skills []string
	var avgResolutionSeconds float64
	if err := row.Scan(
		&technician.ID,
		&technician.Name,
		&technician.Email,
		&skills,
		&technician.CurrentWorkload,
		&technician.MaxWorkload,
		&technician.Availability,
		&technician.Expertise,
		&technician.TotalResolved,
		&avgResolutionSeconds,
		&technician.Active,
		&technician.LastLogin,
		&technician.CreatedAt,
		&technician.UpdatedAt,
	); err != nil {
		return nil, err
	}
	technician.Skills = skillCategories(skills)
	technician.AvgResolutionTime = secondsToDurationValue(avgResolutionSeconds)
	return &technician, nil
}

func skillStrings(skills []domain.Category) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = string(s)
	}
	return out
}

func skillCategories(skills []string) []domain.Category {
	out := make([]domain.Category, len(skills))
	for i, s := range skills {
		out[i] = domain.Category(s)
	}
	return out
}
