package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`\w+@[a-zA-Z0-9\-_]{3,}(\.[a-zA-Z]{2,})+`)
	urlPattern   = regexp.MustCompile(`(https?://)?[\w-]{3,}(\.[a-zA-Z]{2,})+`)
	longPattern  = regexp.MustCompile(`[\p{L}\p{N}_]{8,}`)
	// RE2's \b only knows ASCII word characters, so a number glued to a
	// Hangul suffix would count as standalone. The guards use the Unicode
	// word class instead and are kept in the replacement.
	numberPattern = regexp.MustCompile(`(^|[^\p{L}\p{N}_])(\d|\d{5,})($|[^\p{L}\p{N}_])`)
	punctPattern  = regexp.MustCompile("[!-/:-@\\[-`{-~]{2,}")
	jamoPattern   = regexp.MustCompile(`[ㄱ-ㅎㅏ-ㅣ]+`)
	nonWord       = regexp.MustCompile(`[^\p{L}\p{N}_]`)
)

// Clean removes emails, urls, words of eight or more characters, numbers of
// one or five-plus digits standing alone, punctuation runs, bare Hangul jamo
// and any other non-word character, then collapses whitespace.
func Clean(text string) string {
	for _, re := range []*regexp.Regexp{emailPattern, urlPattern, longPattern} {
		text = re.ReplaceAllString(text, " ")
	}
	// A match consumes its trailing guard, so "1 2" needs a second pass.
	for numberPattern.MatchString(text) {
		text = numberPattern.ReplaceAllString(text, "$1 $3")
	}
	for _, re := range []*regexp.Regexp{punctPattern, jamoPattern, nonWord} {
		text = re.ReplaceAllString(text, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

// NGrams returns the overlapping n-rune windows of term, left to right.
// Terms shorter than n yield nothing.
func NGrams(term string, n int) []string {
	if n <= 0 {
		return nil
	}
	runes := []rune(term)
	if len(runes) < n {
		return nil
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}

// Expand appends the n-grams of every token longer than n runes. A token
// of exactly n runes is its own only n-gram and is not repeated.
func Expand(tokens []string, n int) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) <= n {
			continue
		}
		out = append(out, NGrams(tok, n)...)
	}
	return out
}
