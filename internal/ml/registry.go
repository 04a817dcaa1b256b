package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// VersionStore persists model version metadata. Activate must leave exactly
// one version active, with both the deactivation of the prior version and the
// activation of the new one visible together.
type VersionStore interface {
	Insert(ctx context.Context, version *domain.ModelVersion) error
	Activate(ctx context.Context, version string) error
	GetActive(ctx context.Context) (*domain.ModelVersion, error)
	GetByVersion(ctx context.Context, version string) (*domain.ModelVersion, error)
}

// ActiveModel is an immutable snapshot of the active version with its loaded
// artifacts. In-flight classifications hold the snapshot, so a concurrent
// registry swap never mixes an old classifier with new metadata.
type ActiveModel struct {
	Version    domain.ModelVersion
	Vectorizer *Vectorizer
	Classifier Classifier
}

// Registry versions trained models and designates the single active one. The
// active pointer is read-mostly and guarded by a reader-writer lock.
type Registry struct {
	store       VersionStore
	modelDir    string
	minAccuracy float64
	logger      *zap.Logger

	// swapMu serializes store activation with the snapshot swap so the
	// live pointer never diverges from the store's single active version
	// when registrations or activations race.
	swapMu sync.Mutex

	mu     sync.RWMutex
	active *ActiveModel
}

// NewRegistry creates a registry persisting artifacts under modelDir.
func NewRegistry(store VersionStore, modelDir string, minAccuracy float64, logger *zap.Logger) *Registry {
	return &Registry{
		store:       store,
		modelDir:    modelDir,
		minAccuracy: minAccuracy,
		logger:      logger,
	}
}

// Active returns the current model snapshot, or ErrModelUnavailable when no
// version has been loaded. Callers fail closed to manual review on error.
func (r *Registry) Active() (*ActiveModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return nil, domain.ErrModelUnavailable
	}
	return r.active, nil
}

// Register validates a training result against the accuracy floor, persists
// its artifacts and metadata, activates the new version, and swaps the live
// pointer. A candidate below the floor is refused and the prior active
// version remains in force.
func (r *Registry) Register(ctx context.Context, result *TrainingResult) (*domain.ModelVersion, error) {
	if result.Accuracy < r.minAccuracy {
		return nil, fmt.Errorf("%w: accuracy %.4f below floor %.4f",
			domain.ErrModelValidationFailure, result.Accuracy, r.minAccuracy)
	}

	vectorizerPath, classifierPath, err := r.writeArtifacts(result)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	version := &domain.ModelVersion{
		Version:         result.Version,
		ModelKind:       result.ModelKind,
		TrainingSamples: result.TrainingSamples,
		TestingSamples:  result.TestingSamples,
		Accuracy:        result.Accuracy,
		Precision:       result.Precision,
		Recall:          result.Recall,
		F1:              result.F1,
		CategoryMetrics: result.CategoryMetrics,
		Categories:      result.Categories,
		VectorizerPath:  vectorizerPath,
		ClassifierPath:  classifierPath,
		TrainedAt:       result.TrainedAt,
		DeployedAt:      &now,
	}
	r.swapMu.Lock()
	defer r.swapMu.Unlock()
	if err := r.store.Insert(ctx, version); err != nil {
		return nil, fmt.Errorf("persist model version: %w", err)
	}
	if err := r.store.Activate(ctx, version.Version); err != nil {
		return nil, fmt.Errorf("activate model version: %w", err)
	}
	version.IsActive = true

	r.mu.Lock()
	r.active = &ActiveModel{
		Version:    *version,
		Vectorizer: result.Vectorizer,
		Classifier: result.Classifier,
	}
	r.mu.Unlock()

	r.logger.Info("model version registered",
		zap.String("version", version.Version),
		zap.String("model_kind", version.ModelKind),
		zap.Float64("accuracy", version.Accuracy),
	)
	return version, nil
}

// LoadActive loads the persisted active version and its artifacts, replacing
// the live snapshot. Called at process start and on explicit reload.
func (r *Registry) LoadActive(ctx context.Context) error {
	r.swapMu.Lock()
	defer r.swapMu.Unlock()
	version, err := r.store.GetActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrModelUnavailable
		}
		return err
	}
	return r.load(version)
}

// ActivateVersion switches the active designation to a previously registered
// version and loads its artifacts.
func (r *Registry) ActivateVersion(ctx context.Context, versionName string) (*domain.ModelVersion, error) {
	r.swapMu.Lock()
	defer r.swapMu.Unlock()
	version, err := r.store.GetByVersion(ctx, versionName)
	if err != nil {
		return nil, err
	}
	if err := r.store.Activate(ctx, version.Version); err != nil {
		return nil, err
	}
	version.IsActive = true
	if err := r.load(version); err != nil {
		return nil, err
	}
	return version, nil
}

func (r *Registry) load(version *domain.ModelVersion) error {
	vecData, err := os.ReadFile(version.VectorizerPath)
	if err != nil {
		return fmt.Errorf("read vectorizer artifact: %w", err)
	}
	var vectorizer Vectorizer
	if err := json.Unmarshal(vecData, &vectorizer); err != nil {
		return fmt.Errorf("decode vectorizer artifact: %w", err)
	}

	clsData, err := os.ReadFile(version.ClassifierPath)
	if err != nil {
		return fmt.Errorf("read classifier artifact: %w", err)
	}
	classifier, err := DecodeClassifier(clsData)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.active = &ActiveModel{
		Version:    *version,
		Vectorizer: &vectorizer,
		Classifier: classifier,
	}
	r.mu.Unlock()

	r.logger.Info("active model loaded",
		zap.String("version", version.Version),
		zap.String("model_kind", version.ModelKind),
	)
	return nil
}

func (r *Registry) writeArtifacts(result *TrainingResult) (string, string, error) {
	if err := os.MkdirAll(r.modelDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create model dir: %w", err)
	}
	vecData, err := json.Marshal(result.Vectorizer)
	if err != nil {
		return "", "", fmt.Errorf("encode vectorizer artifact: %w", err)
	}
	clsData, err := EncodeClassifier(result.Classifier)
	if err != nil {
		return "", "", err
	}
	vectorizerPath := filepath.Join(r.modelDir, result.Version+"_vectorizer.json")
	classifierPath := filepath.Join(r.modelDir, result.Version+"_classifier.json")
	if err := os.WriteFile(vectorizerPath, vecData, 0o644); err != nil {
		return "", "", fmt.Errorf("write vectorizer artifact: %w", err)
	}
	if err := os.WriteFile(classifierPath, clsData, 0o644); err != nil {
		return "", "", fmt.Errorf("write classifier artifact: %w", err)
	}
	return vectorizerPath, classifierPath, nil
}
