package rag

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Weights of the lexical signals. The total is capped at maxLexicalScore so
// it stays small next to a cosine similarity.
const (
	coverageWeight     = float32(0.2)
	densityWeight      = float32(0.1)
	densityScale       = float32(10.0)
	filenameMatchBonus = float32(0.1)
	maxLexicalScore    = float32(0.4)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {}, "what": {}, "how": {},
}

// lexicalScorer scores chunk texts against the terms of one query.
type lexicalScorer struct {
	terms map[string]struct{}
}

func newLexicalScorer(query string) lexicalScorer {
	terms := make(map[string]struct{})
	for _, token := range tokenize(query) {
		if _, stop := lexicalStopwords[token]; !stop {
			terms[token] = struct{}{}
		}
	}
	return lexicalScorer{terms: terms}
}

// score combines how many distinct query terms the chunk covers, how densely
// they occur, and a bonus per term found in the filename (extension ignored).
func (s lexicalScorer) score(text, filename string) float32 {
	if len(s.terms) == 0 {
		return 0
	}

	var total float32
	if tokens := tokenize(text); len(tokens) > 0 {
		seen := make(map[string]struct{}, len(s.terms))
		var hits int
		for _, token := range tokens {
			if _, ok := s.terms[token]; ok {
				hits++
				seen[token] = struct{}{}
			}
		}
		coverage := float32(len(seen)) / float32(len(s.terms))
		density := min(1, float32(hits)/float32(1+len(tokens))*densityScale)
		total += coverageWeight*coverage + densityWeight*density
	}

	if filename != "" {
		for token := range uniqueTokens(strings.TrimSuffix(filename, filepath.Ext(filename))) {
			if _, ok := s.terms[token]; ok {
				total += filenameMatchBonus
			}
		}
	}

	return min(total, maxLexicalScore)
}

// lexicalScore scores a single chunk against query.
func lexicalScore(query, text, filename string) float32 {
	return newLexicalScorer(query).score(text, filename)
}

// tokenize lowercases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueTokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range tokenize(text) {
		set[token] = struct{}{}
	}
	return set
}
