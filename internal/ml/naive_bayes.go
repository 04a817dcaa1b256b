package ml

import (
	"math"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// KindNaiveBayes tags the multinomial naive Bayes strategy.
const KindNaiveBayes = "naive_bayes"

// NaiveBayes is a multinomial naive Bayes classifier over non-negative
// TF-IDF features with Laplace smoothing.
type NaiveBayes struct {
	Classes        []domain.Category `json:"classes"`
	ClassSupport   []int             `json:"class_support"`
	ClassLogPrior  []float64         `json:"class_log_prior"`
	FeatureLogProb [][]float64       `json:"feature_log_prob"`
	Alpha          float64           `json:"alpha"`
}

// NewNaiveBayes creates an untrained classifier with Laplace smoothing.
func NewNaiveBayes() *NaiveBayes {
	return &NaiveBayes{Alpha: 1.0}
}

// Kind returns the strategy tag.
func (nb *NaiveBayes) Kind() string { return KindNaiveBayes }

// Fit estimates class priors and per-feature likelihoods from the training
// matrix. y holds class indices into classes.
func (nb *NaiveBayes) Fit(X [][]float64, y []int, classes []domain.Category) {
	numClasses := len(classes)
	numFeatures := 0
	if len(X) > 0 {
		numFeatures = len(X[0])
	}

	nb.Classes = classes
	nb.ClassSupport = classSupport(y, numClasses)
	nb.ClassLogPrior = make([]float64, numClasses)
	nb.FeatureLogProb = make([][]float64, numClasses)

	featureSum := make([][]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		featureSum[c] = make([]float64, numFeatures)
	}
	for i, row := range X {
		class := y[i]
		for j, val := range row {
			featureSum[class][j] += val
		}
	}

	total := float64(len(y))
	for c := 0; c < numClasses; c++ {
		// Unseen classes get a vanishing prior instead of -Inf.
		prior := float64(nb.ClassSupport[c])
		if prior == 0 {
			prior = math.SmallestNonzeroFloat64
		}
		nb.ClassLogPrior[c] = math.Log(prior / total)

		var classTotal float64
		for _, s := range featureSum[c] {
			classTotal += s
		}
		denom := math.Log(classTotal + nb.Alpha*float64(numFeatures))
		nb.FeatureLogProb[c] = make([]float64, numFeatures)
		for j := 0; j < numFeatures; j++ {
			nb.FeatureLogProb[c][j] = math.Log(featureSum[c][j]+nb.Alpha) - denom
		}
	}
}

// Predict computes the joint log likelihood per class and normalizes it into
// a probability distribution.
func (nb *NaiveBayes) Predict(vec []float64) Prediction {
	jll := make([]float64, len(nb.Classes))
	for c := range nb.Classes {
		score := nb.ClassLogPrior[c]
		for j, val := range vec {
			if val != 0 {
				score += val * nb.FeatureLogProb[c][j]
			}
		}
		jll[c] = score
	}
	return buildPrediction(nb.Classes, nb.ClassSupport, softmaxFromLog(jll))
}
