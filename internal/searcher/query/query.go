// Package query turns a raw query string into a weighted query vector.
package query

import (
	"sort"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
)

// Tokenizer splits raw text into normalized tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Vector maps an indexed term to its query weight.
type Vector map[string]float64

// Query is a processed query. Vector only holds indexed terms; the rest are
// listed in Dropped.
type Query struct {
	Raw         string         `json:"raw"`
	Frequencies map[string]int `json:"frequencies"`
	Vector      Vector         `json:"vector"`
	Dropped     []string       `json:"dropped,omitempty"`
}

// Empty reports whether no query term survived processing.
func (q *Query) Empty() bool {
	return len(q.Vector) == 0
}

// Terms returns the vector's terms in sorted order.
func (q *Query) Terms() []string {
	terms := make([]string, 0, len(q.Vector))
	for term := range q.Vector {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Process tokenizes raw, counts tokens of two or more runes and weighs each
// indexed token as MaxTF(freq, maxFreq, 0.5) * idf. An empty or fully
// out-of-vocabulary query yields an empty vector.
func Process(raw string, tok Tokenizer, idf map[string]float64) *Query {
	q := &Query{
		Raw:         raw,
		Frequencies: make(map[string]int),
		Vector:      make(Vector),
	}
	maxFreq := 0
	for _, token := range tok.Tokenize(raw) {
		if utf8.RuneCountInString(token) <= 1 {
			continue
		}
		q.Frequencies[token]++
		maxFreq = max(maxFreq, q.Frequencies[token])
	}
	for token, freq := range q.Frequencies {
		termIDF, ok := idf[token]
		if !ok {
			q.Dropped = append(q.Dropped, token)
			continue
		}
		// maxFreq >= freq >= 1, so MaxTF cannot fail.
		tf, _ := weighting.MaxTF(float64(freq), float64(maxFreq), weighting.QueryAlpha)
		q.Vector[token] = tf * termIDF
	}
	sort.Strings(q.Dropped)
	return q
}
