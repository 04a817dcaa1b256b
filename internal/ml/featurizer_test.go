package ml

import (
	"math"
	"testing"
)

func TestNormalizeTextCollapsesWhitespaceAndCase(t *testing.T) {
	got := NormalizeText("  Printer  BROKEN ", "won't   print\n\tanything")
	want := "printer broken won't print anything"
	if got != want {
		t.Fatalf("NormalizeText = %q, want %q", got, want)
	}
}

func TestNormalizeTextEmptyInput(t *testing.T) {
	if got := NormalizeText("  ", "\t\n"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestVectorizerFitCapsVocabulary(t *testing.T) {
	corpus := []string{
		"printer broken printer jam",
		"printer offline network down",
		"database slow query timeout",
	}
	v := NewVectorizer(5)
	if err := v.Fit(corpus); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(v.Vocabulary) != 5 {
		t.Fatalf("vocabulary size = %d, want 5", len(v.Vocabulary))
	}
	// "printer" appears most often across the corpus and must survive the cap.
	if _, ok := v.Vocabulary["printer"]; !ok {
		t.Fatalf("expected most frequent term in vocabulary, got %v", v.Vocabulary)
	}
	if len(v.IDF) != len(v.Vocabulary) {
		t.Fatalf("idf length %d != vocabulary size %d", len(v.IDF), len(v.Vocabulary))
	}
}

func TestVectorizerTransformDeterministic(t *testing.T) {
	corpus := []string{
		"screen flickering hardware fault",
		"application crash software bug",
		"vpn connection network outage",
	}
	v := NewVectorizer(50)
	if err := v.Fit(corpus); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	a := v.Transform("screen flickering again hardware")
	b := v.Transform("screen flickering again hardware")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("transform not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestVectorizerTransformL2Normalized(t *testing.T) {
	corpus := []string{
		"disk failure hardware replacement",
		"email client software update",
	}
	v := NewVectorizer(50)
	if err := v.Fit(corpus); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	vec := v.Transform("disk failure needs hardware replacement")
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("squared norm = %v, want 1", norm)
	}
}

func TestVectorizerTransformUnseenTermsZero(t *testing.T) {
	v := NewVectorizer(50)
	if err := v.Fit([]string{"router firmware upgrade", "switch port flapping"}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	vec := v.Transform("quantum flux capacitor")
	for i, x := range vec {
		if x != 0 {
			t.Fatalf("unseen-only text produced nonzero weight at %d: %v", i, x)
		}
	}
}

func TestVectorizerFitEmptyCorpus(t *testing.T) {
	v := NewVectorizer(10)
	if err := v.Fit(nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
	if err := v.Fit([]string{"to the and of"}); err == nil {
		t.Fatal("expected error for stopword-only corpus")
	}
}

func TestExtractTermsIncludesBigrams(t *testing.T) {
	terms := extractTerms("printer jam tray")
	want := map[string]bool{
		"printer": true, "jam": true, "tray": true,
		"printer jam": true, "jam tray": true,
	}
	if len(terms) != len(want) {
		t.Fatalf("terms = %v, want keys of %v", terms, want)
	}
	for _, term := range terms {
		if !want[term] {
			t.Fatalf("unexpected term %q in %v", term, terms)
		}
	}
}

func TestTokenizeDropsStopwordsAndShortTokens(t *testing.T) {
	tokens := tokenize("the printer is on a desk")
	if len(tokens) != 2 || tokens[0] != "printer" || tokens[1] != "desk" {
		t.Fatalf("tokens = %v, want [printer desk]", tokens)
	}
}
