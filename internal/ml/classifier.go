package ml

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// Prediction is the classifier output for one feature vector. Probabilities
// cover every known category and sum to 1; Confidence is 100 times the
// maximum class probability.
type Prediction struct {
	Category      domain.Category
	Confidence    float64
	Probabilities map[domain.Category]float64
}

// Classifier is the inference capability shared by all model strategies.
// Production code depends only on Predict, never on which family won
// training.
type Classifier interface {
	Kind() string
	Predict(vec []float64) Prediction
}

// trainableClassifier is the strategy surface used by the training pipeline.
type trainableClassifier interface {
	Classifier
	Fit(X [][]float64, y []int, classes []domain.Category)
}

// buildPrediction normalizes scores into a prediction. Argmax ties break
// toward the class with more training examples, then toward the earlier
// class in training order, so prediction is always deterministic.
func buildPrediction(classes []domain.Category, support []int, probs []float64) Prediction {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
			continue
		}
		if probs[i] == probs[best] && support[i] > support[best] {
			best = i
		}
	}
	dist := make(map[domain.Category]float64, len(classes))
	for i, class := range classes {
		dist[class] = probs[i]
	}
	return Prediction{
		Category:      classes[best],
		Confidence:    probs[best] * 100,
		Probabilities: dist,
	}
}

// softmaxFromLog exponentiates log scores via the log-sum-exp trick so the
// result is a proper probability distribution.
func softmaxFromLog(logScores []float64) []float64 {
	maxScore := logScores[0]
	for _, s := range logScores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	probs := make([]float64, len(logScores))
	var sum float64
	for i, s := range logScores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// classSupport counts training examples per class index.
func classSupport(y []int, numClasses int) []int {
	support := make([]int, numClasses)
	for _, label := range y {
		support[label]++
	}
	return support
}

// classifierArtifact is the on-disk envelope for a trained classifier.
type classifierArtifact struct {
	Kind       string              `json:"kind"`
	NaiveBayes *NaiveBayes         `json:"naive_bayes,omitempty"`
	Logistic   *LogisticRegression `json:"logistic_regression,omitempty"`
}

// EncodeClassifier serializes a classifier to its JSON artifact form.
func EncodeClassifier(c Classifier) ([]byte, error) {
	artifact := classifierArtifact{Kind: c.Kind()}
	switch impl := c.(type) {
	case *NaiveBayes:
		artifact.NaiveBayes = impl
	case *LogisticRegression:
		artifact.Logistic = impl
	default:
		return nil, fmt.Errorf("unknown classifier kind %q", c.Kind())
	}
	return json.Marshal(artifact)
}

// DecodeClassifier restores a classifier from its JSON artifact form.
func DecodeClassifier(data []byte) (Classifier, error) {
	var artifact classifierArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode classifier artifact: %w", err)
	}
	switch artifact.Kind {
	case KindNaiveBayes:
		if artifact.NaiveBayes == nil {
			return nil, fmt.Errorf("artifact kind %q missing payload", artifact.Kind)
		}
		return artifact.NaiveBayes, nil
	case KindLogisticRegression:
		if artifact.Logistic == nil {
			return nil, fmt.Errorf("artifact kind %q missing payload", artifact.Kind)
		}
		return artifact.Logistic, nil
	}
	return nil, fmt.Errorf("unknown classifier kind %q", artifact.Kind)
}
