package domain

import "time"

// CategoryMetrics holds per-category evaluation scores for a model version.
type CategoryMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// ModelVersion describes one trained classification model. Exactly one
// version carries IsActive at any time; the model registry enforces the
// invariant when activating.
type ModelVersion struct {
	ID              string
	Version         string
	ModelKind       string // winning strategy, e.g. "naive_bayes"
	TrainingSamples int
	TestingSamples  int

	Accuracy  float64
	Precision float64 // weighted average over categories
	Recall    float64
	F1        float64

	CategoryMetrics map[Category]CategoryMetrics
	Categories      []Category

	VectorizerPath string
	ClassifierPath string

	IsActive   bool
	TrainedAt  time.Time
	DeployedAt *time.Time
}
