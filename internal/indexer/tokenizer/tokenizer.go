// Package tokenizer turns raw text into the normalized tokens consumed by the
// index builder and the query processor. Text is NFKC-normalized and
// lower-cased, segmented on UAX #29 word boundaries, stripped of stop-words
// and stemmed with the Snowball English stemmer when the word is Latin.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

// MinTokenRunes is the shortest token kept; shorter ones are noise.
const MinTokenRunes = 2

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Options selects the optional stages of a Tokenizer.
type Options struct {
	// Clean strips emails, urls, overlong words and similar noise first.
	Clean bool
	// NGram appends syllable n-grams of every token longer than NGram
	// runes. Zero disables expansion.
	NGram int
	// Stem enables Snowball stemming of Latin words.
	Stem bool
}

// Tokenizer is a configured tokenization pipeline. The zero value only
// normalizes, segments and removes stop-words.
type Tokenizer struct {
	opts Options
}

func New(opts Options) *Tokenizer {
	return &Tokenizer{opts: opts}
}

// Tokenize returns the tokens of text in order.
func (t *Tokenizer) Tokenize(text string) []string {
	if t.opts.Clean {
		text = Clean(text)
	}
	text = strings.ToLower(norm.NFKC.String(text))
	tokens := make([]string, 0, len(text)/6)
	segments := words.FromString(text)
	for segments.Next() {
		word := segments.Value()
		if !isWord(word) {
			continue
		}
		if utf8.RuneCountInString(word) < MinTokenRunes {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		if t.opts.Stem {
			word = stem(word)
		}
		if word == "" {
			continue
		}
		tokens = append(tokens, word)
	}
	if t.opts.NGram > 0 {
		tokens = Expand(tokens, t.opts.NGram)
	}
	return tokens
}

// isWord reports whether a segment carries at least one letter or digit.
func isWord(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isLatin(word string) bool {
	for _, r := range word {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func stem(word string) string {
	if !isLatin(word) {
		return word
	}
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stemmed
}
