package dto

import (
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// ModelVersionResponse describes one entry in the training log.
type ModelVersionResponse struct {
	ID              string                                    `json:"id"`
	Version         string                                    `json:"version"`
	ModelKind       string                                    `json:"model_kind"`
	TrainingSamples int                                       `json:"training_samples"`
	TestingSamples  int                                       `json:"testing_samples"`
	Accuracy        float64                                   `json:"accuracy"`
	Precision       float64                                   `json:"precision"`
	Recall          float64                                   `json:"recall"`
	F1              float64                                   `json:"f1_score"`
	CategoryMetrics map[domain.Category]domain.CategoryMetrics `json:"category_metrics,omitempty"`
	Categories      []domain.Category                         `json:"categories"`
	IsActive        bool                                      `json:"is_active"`
	TrainedAt       time.Time                                 `json:"trained_at"`
	DeployedAt      *time.Time                                `json:"deployed_at,omitempty"`
}
