package ml

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// NormalizeText lowercases the combined ticket text and collapses runs of
// whitespace. Callers must reject an empty result before featurizing.
func NormalizeText(subject, description string) string {
	combined := strings.TrimSpace(subject + " " + description)
	return strings.Join(strings.Fields(strings.ToLower(combined)), " ")
}

// Vectorizer is a TF-IDF featurizer over a fixed vocabulary of unigrams and
// bigrams. Fit builds the vocabulary once from the full historical corpus;
// Transform is deterministic and treats unseen terms as absent (zero weight).
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// NewVectorizer creates an unfitted vectorizer with the given vocabulary cap.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Fitted reports whether the vocabulary has been built.
func (v *Vectorizer) Fitted() bool {
	return len(v.Vocabulary) > 0
}

// Fit builds the vocabulary from the corpus, keeping the MaxFeatures most
// frequent terms (corpus-wide count, ties broken alphabetically) and
// computing smoothed inverse document frequencies.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty training corpus")
	}

	termCount := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range corpus {
		terms := extractTerms(doc)
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			termCount[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}
	if len(termCount) == 0 {
		return errors.New("corpus produced no terms")
	}

	selected := make([]string, 0, len(termCount))
	for term := range termCount {
		selected = append(selected, term)
	}
	sort.Slice(selected, func(i, j int) bool {
		if termCount[selected[i]] != termCount[selected[j]] {
			return termCount[selected[i]] > termCount[selected[j]]
		}
		return selected[i] < selected[j]
	})
	if v.MaxFeatures > 0 && len(selected) > v.MaxFeatures {
		selected = selected[:v.MaxFeatures]
	}
	sort.Strings(selected)

	v.Vocabulary = make(map[string]int, len(selected))
	v.IDF = make([]float64, len(selected))
	n := float64(len(corpus))
	for i, term := range selected {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return nil
}

// Transform converts text to an L2-normalized TF-IDF vector over the fitted
// vocabulary. Terms outside the vocabulary contribute nothing.
func (v *Vectorizer) Transform(text string) []float64 {
	vec := make([]float64, len(v.IDF))
	if !v.Fitted() {
		return vec
	}
	for _, term := range extractTerms(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= v.IDF[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// extractTerms tokenizes, drops stopwords, and emits unigrams plus adjacent
// bigrams joined by a space.
func extractTerms(text string) []string {
	tokens := tokenize(text)
	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// tokenize lowercases and splits on non-alphanumeric runes, keeping tokens of
// at least two characters that are not stopwords.
func tokenize(text string) []string {
	out := make([]string, 0, 16)
	var b strings.Builder
	flush := func() {
		if b.Len() >= 2 {
			token := b.String()
			if _, stop := stopwords[token]; !stop {
				out = append(out, token)
			}
		}
		b.Reset()
	}
	for _, r := range text {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// stopwords is a compact English stopword set; common function words carry no
// category signal in ticket text.
var stopwords = func() map[string]struct{} {
	words := []string{
		"about", "above", "after", "again", "all", "am", "an", "and", "any",
		"are", "as", "at", "be", "because", "been", "before", "being",
		"below", "between", "both", "but", "by", "can", "cannot", "could",
		"did", "do", "does", "doing", "down", "during", "each", "few", "for",
		"from", "further", "had", "has", "have", "having", "he", "her",
		"here", "hers", "him", "his", "how", "if", "in", "into", "is", "it",
		"its", "itself", "just", "me", "more", "most", "my", "myself", "no",
		"nor", "not", "now", "of", "off", "on", "once", "only", "or",
		"other", "our", "ours", "out", "over", "own", "same", "she",
		"should", "so", "some", "such", "than", "that", "the", "their",
		"theirs", "them", "then", "there", "these", "they", "this", "those",
		"through", "to", "too", "under", "until", "up", "very", "was", "we",
		"were", "what", "when", "where", "which", "while", "who", "whom",
		"why", "will", "with", "would", "you", "your", "yours", "yourself",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()
