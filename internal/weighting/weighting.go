// Package weighting converts raw term counts into term-frequency and
// inverse-document-frequency weights. Every function is pure; inputs outside
// a function's domain produce an error wrapping apperrors.ErrUndefined or
// apperrors.ErrInvalidInput instead of a silent zero or NaN.
package weighting

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Alpha values used by the engine for double normalization.
const (
	DocumentAlpha = 0.0
	QueryAlpha    = 0.5
)

// RawTF returns freq, clamped to 0 when negative.
func RawTF(freq float64) float64 {
	if freq > 0 {
		return freq
	}
	return 0
}

// NormTF returns freq/total. Defined for freq >= 0 and total > 0.
func NormTF(freq, total float64) (float64, error) {
	if freq < 0 {
		return 0, fmt.Errorf("norm tf: negative frequency %v: %w", freq, apperrors.ErrInvalidInput)
	}
	if total <= 0 {
		return 0, fmt.Errorf("norm tf: total %v: %w", total, apperrors.ErrUndefined)
	}
	return freq / total, nil
}

// LogTF returns 1+log10(freq) for freq > 0 and 0 otherwise.
func LogTF(freq float64) float64 {
	if freq > 0 {
		return 1 + math.Log10(freq)
	}
	return 0
}

// MaxTF is double normalization K: alpha + (1-alpha)*(freq/maxFreq).
// alpha must lie in [0,1), freq must be non-negative and maxFreq positive.
// With alpha 0 the most frequent term of a document weighs exactly 1.
func MaxTF(freq, maxFreq, alpha float64) (float64, error) {
	if alpha < 0 || alpha >= 1 {
		return 0, fmt.Errorf("max tf: alpha %v outside [0,1): %w", alpha, apperrors.ErrInvalidInput)
	}
	if freq < 0 {
		return 0, fmt.Errorf("max tf: negative frequency %v: %w", freq, apperrors.ErrInvalidInput)
	}
	if maxFreq <= 0 {
		return 0, fmt.Errorf("max tf: max frequency %v: %w", maxFreq, apperrors.ErrUndefined)
	}
	return alpha + (1-alpha)*(freq/maxFreq), nil
}

// IDFFunc maps a document frequency df and a collection size n to an
// inverse document frequency.
type IDFFunc func(df, n int) (float64, error)

// RawIDF returns log10(n/df). It is zero for a term found in every document.
func RawIDF(df, n int) (float64, error) {
	if err := checkIDFDomain("raw idf", df, n); err != nil {
		return 0, err
	}
	return math.Log10(float64(n) / float64(df)), nil
}

// SmoothingIDF returns log10((n+1)/df), strictly positive for 1 <= df <= n.
func SmoothingIDF(df, n int) (float64, error) {
	if err := checkIDFDomain("smoothing idf", df, n); err != nil {
		return 0, err
	}
	return math.Log10(float64(n+1) / float64(df)), nil
}

// ProbabilityIDF returns log10((n-df)/df). A term found in every document
// gets log10(1) = 0. Terms in more than half the documents go negative.
func ProbabilityIDF(df, n int) (float64, error) {
	if err := checkIDFDomain("probability idf", df, n); err != nil {
		return 0, err
	}
	if n == df {
		return 0, nil
	}
	return math.Log10(float64(n-df) / float64(df)), nil
}

func checkIDFDomain(name string, df, n int) error {
	if n <= 0 {
		return fmt.Errorf("%s: document count %d: %w", name, n, apperrors.ErrUndefined)
	}
	if df <= 0 {
		return fmt.Errorf("%s: document frequency %d: %w", name, df, apperrors.ErrUndefined)
	}
	if df > n {
		return fmt.Errorf("%s: document frequency %d exceeds document count %d: %w", name, df, n, apperrors.ErrInvalidInput)
	}
	return nil
}

// Formula is an idf function together with the name it is configured by.
type Formula struct {
	Name string
	IDF  IDFFunc
}

var (
	Raw         = Formula{Name: "raw", IDF: RawIDF}
	Smoothing   = Formula{Name: "smoothing", IDF: SmoothingIDF}
	Probability = Formula{Name: "probability", IDF: ProbabilityIDF}
)

var formulas = map[string]Formula{
	Raw.Name:         Raw,
	Smoothing.Name:   Smoothing,
	Probability.Name: Probability,
}

// DefaultIDF is the formula used when none is configured.
const DefaultIDF = "smoothing"

// FormulaByName resolves a configured formula name, ignoring case. An empty
// name selects DefaultIDF.
func FormulaByName(name string) (Formula, error) {
	if name == "" {
		name = DefaultIDF
	}
	f, ok := formulas[strings.ToLower(name)]
	if !ok {
		return Formula{}, fmt.Errorf("unknown idf formula %q (want one of %s): %w",
			name, strings.Join(FormulaNames(), ", "), apperrors.ErrInvalidInput)
	}
	return f, nil
}

// FormulaNames lists the registered formula names in sorted order.
func FormulaNames() []string {
	names := make([]string, 0, len(formulas))
	for name := range formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
