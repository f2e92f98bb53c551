package concept

import (
	"math"
	"sort"
	"strings"
)

// Match is a concept scored against a set of keywords.
type Match struct {
	Concept *Concept `json:"concept"`
	Score   float64  `json:"score"`
}

// Rank scores each concept against the keywords and returns matches above
// the threshold, best first.
func Rank(concepts []*Concept, keywords []string, threshold float64) []Match {
	var matches []Match
	for _, c := range concepts {
		score := keywordSimilarity(keywords, c.Name, c.Description)
		if score >= threshold && score > 0 {
			matches = append(matches, Match{Concept: c, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// keywordSimilarity computes overlap between keywords and concept text.
// Blends an exact-match Jaccard signal with keyword coverage, where
// substring matches count at reduced weight.
func keywordSimilarity(keywords []string, name, description string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	target := strings.ToLower(name + " " + description)
	targetWords := Tokenize(target)
	targetSet := make(map[string]bool, len(targetWords))
	for _, w := range targetWords {
		targetSet[w] = true
	}

	var matched int
	var weightedScore float64
	for _, kw := range keywords {
		kwLower := strings.ToLower(kw)
		if targetSet[kwLower] {
			matched++
			weightedScore += 1.0
		} else if strings.Contains(target, kwLower) {
			matched++
			weightedScore += 0.7
		}
	}

	if matched == 0 {
		return 0
	}

	overlap := float64(matched)
	union := float64(len(keywords) + len(targetSet) - matched)
	jaccard := overlap / math.Max(union, 1)
	coverage := weightedScore / float64(len(keywords))

	return 0.4*jaccard + 0.6*coverage
}

// Tokenize splits text into lowercase word tokens, dropping single chars.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' || r == '-' ||
			r > 127)
	})
	result := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(f)
		if len(w) > 1 {
			result = append(result, w)
		}
	}
	return result
}
