// Command train runs the offline training pipeline against a labelled CSV
// corpus and registers the winning model as the active version.
//
// The corpus format is two columns with a header row: text,category.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/config"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/ml"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/observability"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/persistence"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dataPath := flag.String("data", cfg.ML.TrainingDataPath, "path to the labelled training CSV")
	dryRun := flag.Bool("dry-run", false, "train and report metrics without registering the model")
	seed := flag.Int64("seed", 42, "seed for the stratified split")
	flag.Parse()

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	samples, err := loadCorpus(*dataPath)
	if err != nil {
		logger.Fatal("failed to load corpus", zap.String("path", *dataPath), zap.Error(err))
	}
	logger.Info("corpus loaded", zap.String("path", *dataPath), zap.Int("samples", len(samples)))

	result, err := ml.Train(samples, ml.TrainingConfig{
		VocabularySize: cfg.ML.VocabularySize,
		Folds:          cfg.ML.CrossValidationFolds,
		TestFraction:   0.2,
		Seed:           *seed,
	})
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	for _, candidate := range result.Candidates {
		logger.Info("candidate evaluated",
			zap.String("model_kind", candidate.Kind),
			zap.Float64("cv_accuracy", candidate.CVAccuracy))
	}
	logger.Info("training complete",
		zap.String("version", result.Version),
		zap.String("model_kind", result.ModelKind),
		zap.Float64("accuracy", result.Accuracy),
		zap.Float64("precision", result.Precision),
		zap.Float64("recall", result.Recall),
		zap.Float64("f1", result.F1),
		zap.Int("training_samples", result.TrainingSamples),
		zap.Int("testing_samples", result.TestingSamples))
	for category, metrics := range result.CategoryMetrics {
		logger.Info("category metrics",
			zap.String("category", string(category)),
			zap.Float64("precision", metrics.Precision),
			zap.Float64("recall", metrics.Recall),
			zap.Float64("f1", metrics.F1),
			zap.Int("support", metrics.Support))
	}

	if *dryRun {
		logger.Info("dry run; model not registered")
		return
	}

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN required to register a model")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	registry := ml.NewRegistry(repository.NewModelVersionRepository(pg.PoolHandle()), cfg.ML.ModelDir, cfg.ML.MinAccuracy, logger)
	version, err := registry.Register(ctx, result)
	if err != nil {
		logger.Fatal("failed to register model", zap.Error(err))
	}
	logger.Info("model activated",
		zap.String("version", version.Version),
		zap.String("vectorizer", version.VectorizerPath),
		zap.String("classifier", version.ClassifierPath))
}

func loadCorpus(path string) ([]ml.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != 2 || !strings.EqualFold(header[0], "text") || !strings.EqualFold(header[1], "category") {
		return nil, fmt.Errorf("unexpected header %v, want text,category", header)
	}

	var samples []ml.Sample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(record[0])
		category := domain.Category(strings.TrimSpace(record[1]))
		if text == "" || category == "" {
			return nil, fmt.Errorf("line %d: empty text or category", line)
		}
		samples = append(samples, ml.Sample{Text: text, Category: category})
	}
	return samples, nil
}
