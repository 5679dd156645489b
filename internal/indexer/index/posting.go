package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// NoPosting terminates a posting chain.
const NoPosting = -1

// Posting links one term to one document. Weight is the document's
// max-normalized term frequency (alpha 0) and Prev is the index of the
// previous posting for the same term, or NoPosting.
type Posting struct {
	TermID int     `json:"t"`
	DocID  int     `json:"d"`
	Weight float64 `json:"w"`
	Prev   int     `json:"p"`
}

// PostingStore is the append-only arena holding every posting of an index.
// Chains are linked by position, never by pointer.
type PostingStore []Posting

// Walk follows the chain starting at head and calls fn for each posting,
// most recent first. It returns the number of postings visited. A reference
// outside the store, or one that does not point strictly backwards, is
// reported as ErrCorruptIndex.
func (s PostingStore) Walk(head int, fn func(ref int, p Posting) error) (int, error) {
	visited := 0
	for ref := head; ref != NoPosting; {
		if ref < 0 || ref >= len(s) {
			return visited, fmt.Errorf("posting reference %d outside store of %d: %w", ref, len(s), apperrors.ErrCorruptIndex)
		}
		p := s[ref]
		if p.Prev != NoPosting && p.Prev >= ref {
			return visited, fmt.Errorf("posting %d links forward to %d: %w", ref, p.Prev, apperrors.ErrCorruptIndex)
		}
		if fn != nil {
			if err := fn(ref, p); err != nil {
				return visited, err
			}
		}
		visited++
		ref = p.Prev
	}
	return visited, nil
}
