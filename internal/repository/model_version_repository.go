package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// ModelVersionRepository persists the training log. It satisfies
// ml.VersionStore.
type ModelVersionRepository interface {
	Insert(ctx context.Context, version *domain.ModelVersion) error
	Activate(ctx context.Context, version string) error
	GetActive(ctx context.Context) (*domain.ModelVersion, error)
	GetByVersion(ctx context.Context, version string) (*domain.ModelVersion, error)
	List(ctx context.Context, limit int) ([]domain.ModelVersion, error)
}

type modelVersionRepository struct {
	pool *pgxpool.Pool
}

// NewModelVersionRepository instantiates repository.
func NewModelVersionRepository(pool *pgxpool.Pool) ModelVersionRepository {
	return &modelVersionRepository{pool: pool}
}

const modelVersionColumns = `id, version, model_kind, training_samples, testing_samples,
               accuracy, precision_score, recall_score, f1_score, category_metrics, categories,
               vectorizer_path, classifier_path, is_active, trained_at, deployed_at`

func (r *modelVersionRepository) Insert(ctx context.Context, version *domain.ModelVersion) error {
	metrics, err := json.Marshal(version.CategoryMetrics)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO model_versions (version, model_kind, training_samples, testing_samples,
            accuracy, precision_score, recall_score, f1_score, category_metrics, categories,
            vectorizer_path, classifier_path, is_active, trained_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,FALSE,$13)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		version.Version,
		version.ModelKind,
		version.TrainingSamples,
		version.TestingSamples,
		version.Accuracy,
		version.Precision,
		version.Recall,
		version.F1,
		metrics,
		skillStrings(version.Categories),
		version.VectorizerPath,
		version.ClassifierPath,
		version.TrainedAt,
	).Scan(&version.ID)
}

// Activate flips the single-active flag in one transaction so readers never
// observe zero or two active versions.
func (r *modelVersionRepository) Activate(ctx context.Context, version string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE model_versions SET is_active=FALSE WHERE is_active`); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx,
		`UPDATE model_versions SET is_active=TRUE, deployed_at=NOW() WHERE version=$1`, version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *modelVersionRepository) GetActive(ctx context.Context) (*domain.ModelVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM model_versions WHERE is_active`, modelVersionColumns)
	return scanModelVersion(r.pool.QueryRow(ctx, query))
}

func (r *modelVersionRepository) GetByVersion(ctx context.Context, version string) (*domain.ModelVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM model_versions WHERE version=$1`, modelVersionColumns)
	return scanModelVersion(r.pool.QueryRow(ctx, query, version))
}

func (r *modelVersionRepository) List(ctx context.Context, limit int) ([]domain.ModelVersion, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM model_versions ORDER BY trained_at DESC LIMIT %d`,
		modelVersionColumns, limit)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ModelVersion
	for rows.Next() {
		version, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *version)
	}
	return result, rows.Err()
}

func scanModelVersion(row pgx.Row) (*domain.ModelVersion, error) {
	var version domain.ModelVersion
	var metrics []byte
	var categories []string
	if err := row.Scan(
		&version.ID,
		&version.Version,
		&version.ModelKind,
		&version.TrainingSamples,
		&version.TestingSamples,
		&version.Accuracy,
		&version.Precision,
		&version.Recall,
		&version.F1,
		&metrics,
		&categories,
		&version.VectorizerPath,
		&version.ClassifierPath,
		&version.IsActive,
		&version.TrainedAt,
		&version.DeployedAt,
	); err != nil {
		return nil, err
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &version.CategoryMetrics); err != nil {
			return nil, err
		}
	}
	version.Categories = skillCategories(categories)
	return &version, nil
}
