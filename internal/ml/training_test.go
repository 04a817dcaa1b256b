package ml

import (
	"testing"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
)

func syntheticCorpus() []Sample {
	hardware := []string{
		"laptop screen cracked after drop",
		"keyboard keys stuck and unresponsive",
		"monitor flickering hardware fault",
		"docking station power supply dead",
		"laptop battery swollen replacement needed",
		"printer hardware jam paper feed broken",
		"mouse scroll wheel physically broken",
		"fan grinding noise laptop overheating",
	}
	network := []string{
		"vpn connection drops every hour",
		"wifi signal weak meeting room",
		"ethernet port no link office desk",
		"cannot reach internal network share",
		"network outage third floor switch",
		"dns lookup failing corporate network",
		"slow network transfer between sites",
		"firewall blocking network traffic",
	}
	samples := make([]Sample, 0, len(hardware)+len(network))
	for _, text := range hardware {
		samples = append(samples, Sample{Text: text, Category: domain.CategoryHardware})
	}
	for _, text := range network {
		samples = append(samples, Sample{Text: text, Category: domain.CategoryNetwork})
	}
	return samples
}

func TestTrainSelectsWinnerAndEvaluates(t *testing.T) {
	result, err := Train(syntheticCorpus(), TrainingConfig{
		VocabularySize: 200,
		Folds:          4,
		TestFraction:   0.25,
		Seed:           7,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if result.ModelKind != KindNaiveBayes && result.ModelKind != KindLogisticRegression {
		t.Fatalf("unexpected winner %q", result.ModelKind)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected both strategies evaluated, got %v", result.Candidates)
	}
	if result.TrainingSamples+result.TestingSamples != 16 {
		t.Fatalf("split sizes %d+%d != corpus size", result.TrainingSamples, result.TestingSamples)
	}
	if result.TestingSamples == 0 {
		t.Fatal("expected a held-out test split")
	}
	if len(result.Categories) != 2 {
		t.Fatalf("categories = %v", result.Categories)
	}
	// Cleanly separable vocabulary; the winner must do well on the held-out split.
	if result.Accuracy < 0.75 {
		t.Fatalf("accuracy %v too low for separable corpus", result.Accuracy)
	}
	for _, category := range result.Categories {
		if _, ok := result.CategoryMetrics[category]; !ok {
			t.Fatalf("missing per-category metrics for %s", category)
		}
	}
	if result.Version == "" || result.Version[0] != 'v' {
		t.Fatalf("bad version %q", result.Version)
	}
}

func TestTrainDeterministicForSeed(t *testing.T) {
	a, err := Train(syntheticCorpus(), TrainingConfig{VocabularySize: 100, Folds: 4, TestFraction: 0.25, Seed: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	b, err := Train(syntheticCorpus(), TrainingConfig{VocabularySize: 100, Folds: 4, TestFraction: 0.25, Seed: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if a.ModelKind != b.ModelKind || a.Accuracy != b.Accuracy {
		t.Fatalf("same seed produced different results: %s/%v vs %s/%v",
			a.ModelKind, a.Accuracy, b.ModelKind, b.Accuracy)
	}
}

func TestTrainRejectsSingleCategory(t *testing.T) {
	samples := []Sample{
		{Text: "printer jam", Category: domain.CategoryHardware},
		{Text: "screen broken", Category: domain.CategoryHardware},
		{Text: "keyboard stuck", Category: domain.CategoryHardware},
	}
	if _, err := Train(samples, TrainingConfig{VocabularySize: 50}); err == nil {
		t.Fatal("expected error for single-category corpus")
	}
}

func TestTrainRejectsTinyCorpus(t *testing.T) {
	samples := []Sample{
		{Text: "printer jam", Category: domain.CategoryHardware},
		{Text: "vpn down", Category: domain.CategoryNetwork},
		{Text: "wifi weak", Category: domain.CategoryNetwork},
	}
	if _, err := Train(samples, TrainingConfig{VocabularySize: 50}); err == nil {
		t.Fatal("expected error for corpus below minimum size")
	}
}

func TestTrainSkipsEmptySamples(t *testing.T) {
	samples := append(syntheticCorpus(),
		Sample{Text: "   ", Category: domain.CategoryHardware},
		Sample{Text: "orphan text", Category: ""},
	)
	result, err := Train(samples, TrainingConfig{VocabularySize: 100, Folds: 4, TestFraction: 0.25, Seed: 1})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if result.TrainingSamples+result.TestingSamples != 16 {
		t.Fatalf("blank samples not skipped: %d+%d", result.TrainingSamples, result.TestingSamples)
	}
}

func TestStratifiedSplitKeepsClassBalance(t *testing.T) {
	y := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1}
	train, test := stratifiedSplit(y, 2, 0.25, 11)
	if len(train)+len(test) != len(y) {
		t.Fatalf("split lost samples: %d+%d != %d", len(train), len(test), len(y))
	}
	testByClass := map[int]int{}
	for _, idx := range test {
		testByClass[y[idx]]++
	}
	if testByClass[0] != 2 || testByClass[1] != 1 {
		t.Fatalf("unbalanced test split: %v", testByClass)
	}
}
