package ml

import (
	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// KindLogisticRegression tags the multinomial logistic regression strategy.
const KindLogisticRegression = "logistic_regression"

// LogisticRegression is a softmax linear classifier trained with batch
// gradient descent and L2 regularization. Weights holds one row per class;
// the last column is the bias term.
type LogisticRegression struct {
	Classes      []domain.Category `json:"classes"`
	ClassSupport []int             `json:"class_support"`
	Weights      [][]float64       `json:"weights"`

	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	L2           float64 `json:"l2"`
}

// NewLogisticRegression creates an untrained classifier with default
// hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		Epochs:       300,
		LearningRate: 0.5,
		L2:           1e-4,
	}
}

// Kind returns the strategy tag.
func (lr *LogisticRegression) Kind() string { return KindLogisticRegression }

// Fit trains class weights by full-batch gradient descent on the softmax
// cross-entropy loss.
func (lr *LogisticRegression) Fit(X [][]float64, y []int, classes []domain.Category) {
	numClasses := len(classes)
	numFeatures := 0
	if len(X) > 0 {
		numFeatures = len(X[0])
	}

	lr.Classes = classes
	lr.ClassSupport = classSupport(y, numClasses)
	lr.Weights = make([][]float64, numClasses)
	for c := range lr.Weights {
		lr.Weights[c] = make([]float64, numFeatures+1)
	}
	if len(X) == 0 {
		return
	}

	n := float64(len(X))
	grad := make([][]float64, numClasses)
	for c := range grad {
		grad[c] = make([]float64, numFeatures+1)
	}

	for epoch := 0; epoch < lr.Epochs; epoch++ {
		for c := range grad {
			for j := range grad[c] {
				grad[c][j] = 0
			}
		}
		for i, row := range X {
			probs := softmaxFromLog(lr.scores(row))
			for c := 0; c < numClasses; c++ {
				delta := probs[c]
				if c == y[i] {
					delta -= 1
				}
				if delta == 0 {
					continue
				}
				g := grad[c]
				for j, val := range row {
					if val != 0 {
						g[j] += delta * val
					}
				}
				g[numFeatures] += delta
			}
		}
		for c := 0; c < numClasses; c++ {
			w := lr.Weights[c]
			g := grad[c]
			for j := range w {
				update := g[j] / n
				if j < numFeatures {
					update += lr.L2 * w[j]
				}
				w[j] -= lr.LearningRate * update
			}
		}
	}
}

// Predict applies the linear model and softmax-normalizes the class scores.
func (lr *LogisticRegression) Predict(vec []float64) Prediction {
	return buildPrediction(lr.Classes, lr.ClassSupport, softmaxFromLog(lr.scores(vec)))
}

func (lr *LogisticRegression) scores(vec []float64) []float64 {
	scores := make([]float64, len(lr.Classes))
	for c, w := range lr.Weights {
		score := w[len(w)-1]
		for j, val := range vec {
			if val != 0 {
				score += w[j] * val
			}
		}
		scores[c] = score
	}
	return scores
}
