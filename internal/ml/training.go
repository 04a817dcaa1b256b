package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

// Sample is one historical ticket used for training: the combined subject and
// description text plus its labeled category.
type Sample struct {
	Text     string
	Category domain.Category
}

// TrainingConfig controls the offline training pipeline.
type TrainingConfig struct {
	VocabularySize int
	Folds          int
	TestFraction   float64
	Seed           int64
}

// CandidateScore records the cross-validated accuracy of one strategy.
type CandidateScore struct {
	Kind       string
	CVAccuracy float64
}

// TrainingResult holds the winning model, its artifacts, and the held-out
// evaluation metrics that the registry persists.
type TrainingResult struct {
	Version    string
	ModelKind  string
	Vectorizer *Vectorizer
	Classifier Classifier
	Candidates []CandidateScore

	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	CategoryMetrics map[domain.Category]domain.CategoryMetrics
	Categories      []domain.Category

	TrainingSamples int
	TestingSamples  int
	TrainedAt       time.Time
}

// candidateFamilies is the tagged strategy set evaluated at training time.
// Inference depends only on the Classifier interface, never on which family
// won.
var candidateFamilies = []struct {
	kind string
	new  func() trainableClassifier
}{
	{KindNaiveBayes, func() trainableClassifier { return NewNaiveBayes() }},
	{KindLogisticRegression, func() trainableClassifier { return NewLogisticRegression() }},
}

// Train runs the full offline pipeline: normalize, stratified 80/20 split,
// fit the vectorizer on the full corpus, select the best strategy by k-fold
// cross-validated accuracy, retrain it on the training split, and evaluate it
// on the held-out split.
func Train(samples []Sample, cfg TrainingConfig) (*TrainingResult, error) {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.Folds <= 0 {
		cfg.Folds = 5
	}

	texts := make([]string, 0, len(samples))
	labels := make([]domain.Category, 0, len(samples))
	for _, s := range samples {
		text := NormalizeText(s.Text, "")
		if text == "" || s.Category == "" {
			continue
		}
		texts = append(texts, text)
		labels = append(labels, s.Category)
	}
	classes := uniqueCategories(labels)
	if len(classes) < 2 {
		return nil, errors.New("training requires at least two categories")
	}
	if len(texts) < len(classes)*2 {
		return nil, fmt.Errorf("training requires at least %d samples, got %d", len(classes)*2, len(texts))
	}

	classIndex := make(map[domain.Category]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	y := make([]int, len(labels))
	for i, label := range labels {
		y[i] = classIndex[label]
	}

	trainIdx, testIdx := stratifiedSplit(y, len(classes), cfg.TestFraction, cfg.Seed)

	vectorizer := NewVectorizer(cfg.VocabularySize)
	if err := vectorizer.Fit(texts); err != nil {
		return nil, err
	}

	X := make([][]float64, len(texts))
	for i, text := range texts {
		X[i] = vectorizer.Transform(text)
	}
	trainX, trainY := gather(X, y, trainIdx)
	testX, testY := gather(X, y, testIdx)

	folds := cfg.Folds
	if folds > len(trainX) {
		folds = len(trainX)
	}

	candidates := make([]CandidateScore, 0, len(candidateFamilies))
	bestScore := math.Inf(-1)
	bestKind := ""
	for _, family := range candidateFamilies {
		score := crossValidate(family.new, trainX, trainY, classes, folds)
		candidates = append(candidates, CandidateScore{Kind: family.kind, CVAccuracy: score})
		if score > bestScore {
			bestScore = score
			bestKind = family.kind
		}
	}

	var winner trainableClassifier
	for _, family := range candidateFamilies {
		if family.kind == bestKind {
			winner = family.new()
		}
	}
	winner.Fit(trainX, trainY, classes)

	result := &TrainingResult{
		ModelKind:       bestKind,
		Vectorizer:      vectorizer,
		Classifier:      winner,
		Candidates:      candidates,
		Categories:      classes,
		TrainingSamples: len(trainX),
		TestingSamples:  len(testX),
		TrainedAt:       time.Now(),
	}
	result.Version = "v" + result.TrainedAt.Format("20060102_150405")
	evaluate(result, winner, testX, testY, classes)
	return result, nil
}

// stratifiedSplit partitions sample indices per class so every category keeps
// roughly the same train/test proportion. Deterministic for a fixed seed.
func stratifiedSplit(y []int, numClasses int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	byClass := make([][]int, numClasses)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		testN := int(math.Round(float64(len(indices)) * testFraction))
		if testN >= len(indices) {
			testN = len(indices) - 1
		}
		test = append(test, indices[:testN]...)
		train = append(train, indices[testN:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func gather(X [][]float64, y []int, indices []int) ([][]float64, []int) {
	outX := make([][]float64, len(indices))
	outY := make([]int, len(indices))
	for i, idx := range indices {
		outX[i] = X[idx]
		outY[i] = y[idx]
	}
	return outX, outY
}

// crossValidate returns mean k-fold accuracy for a strategy. With fewer than
// two usable folds it falls back to training-set accuracy.
func crossValidate(newClassifier func() trainableClassifier, X [][]float64, y []int, classes []domain.Category, folds int) float64 {
	if folds < 2 {
		c := newClassifier()
		c.Fit(X, y, classes)
		return accuracy(c, X, y, classes)
	}
	var total float64
	counted := 0
	for fold := 0; fold < folds; fold++ {
		var trainX, valX [][]float64
		var trainY, valY []int
		for i := range X {
			if i%folds == fold {
				valX = append(valX, X[i])
				valY = append(valY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}
		if len(valX) == 0 || len(trainX) == 0 {
			continue
		}
		c := newClassifier()
		c.Fit(trainX, trainY, classes)
		total += accuracy(c, valX, valY, classes)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

func accuracy(c Classifier, X [][]float64, y []int, classes []domain.Category) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i, row := range X {
		if c.Predict(row).Category == classes[y[i]] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

// evaluate fills accuracy, weighted precision/recall/F1, and the per-category
// breakdown from the held-out split.
func evaluate(result *TrainingResult, c Classifier, testX [][]float64, testY []int, classes []domain.Category) {
	numClasses := len(classes)
	tp := make([]int, numClasses)
	fp := make([]int, numClasses)
	fn := make([]int, numClasses)
	support := make([]int, numClasses)

	correct := 0
	for i, row := range testX {
		pred := c.Predict(row)
		predicted := -1
		for ci, class := range classes {
			if class == pred.Category {
				predicted = ci
			}
		}
		actual := testY[i]
		support[actual]++
		if predicted == actual {
			correct++
			tp[actual]++
		} else {
			fn[actual]++
			if predicted >= 0 {
				fp[predicted]++
			}
		}
	}

	result.CategoryMetrics = make(map[domain.Category]domain.CategoryMetrics, numClasses)
	var weightedP, weightedR, weightedF float64
	total := len(testX)
	for ci, class := range classes {
		precision := ratio(tp[ci], tp[ci]+fp[ci])
		recall := ratio(tp[ci], tp[ci]+fn[ci])
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		result.CategoryMetrics[class] = domain.CategoryMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support[ci],
		}
		weight := float64(support[ci])
		weightedP += precision * weight
		weightedR += recall * weight
		weightedF += f1 * weight
	}
	if total > 0 {
		result.Accuracy = float64(correct) / float64(total)
		result.Precision = weightedP / float64(total)
		result.Recall = weightedR / float64(total)
		result.F1 = weightedF / float64(total)
	}
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

func uniqueCategories(labels []domain.Category) []domain.Category {
	seen := make(map[domain.Category]struct{})
	out := make([]domain.Category, 0, 8)
	for _, label := range labels {
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			out = append(out, label)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
