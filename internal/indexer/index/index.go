// Package index holds the inverted index: a lexicon of terms, a document
// registry, and an append-only posting store whose per-term chains are
// linked by backward references. An Index is immutable once built and safe
// for concurrent readers.
package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Index is a built inverted index. Build or Builder produce one from
// tokenized documents and FromParts restores one from a snapshot.
type Index struct {
	lexicon  *Lexicon
	docs     *Documents
	postings PostingStore
	docTerms []map[string]int
}

// Stats summarises the size of an index.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
	Postings  int `json:"postings"`
}

func (ix *Index) Lexicon() *Lexicon {
	return ix.lexicon
}

func (ix *Index) Documents() *Documents {
	return ix.docs
}

func (ix *Index) Postings() PostingStore {
	return ix.postings
}

func (ix *Index) Stats() Stats {
	return Stats{
		Documents: ix.docs.Len(),
		Terms:     ix.lexicon.Len(),
		Postings:  len(ix.postings),
	}
}

// WalkTerm visits the posting chain of the term with the given ID and
// returns its document frequency. A posting that belongs to another term or
// an unknown document is reported as ErrCorruptIndex.
func (ix *Index) WalkTerm(termID int, fn func(p Posting) error) (int, error) {
	entry := ix.lexicon.Entry(termID)
	return ix.postings.Walk(entry.Head, func(ref int, p Posting) error {
		if p.TermID != termID {
			return fmt.Errorf("posting %d in chain of %q belongs to term %d: %w",
				ref, entry.Term, p.TermID, apperrors.ErrCorruptIndex)
		}
		if p.DocID < 0 || p.DocID >= ix.docs.Len() {
			return fmt.Errorf("posting %d references unknown document %d: %w",
				ref, p.DocID, apperrors.ErrCorruptIndex)
		}
		if fn == nil {
			return nil
		}
		return fn(p)
	})
}

// documentFrequency returns the number of documents containing term, or 0
// when term is not indexed.
func (ix *Index) documentFrequency(term string) (int, error) {
	entry, ok := ix.lexicon.Lookup(term)
	if !ok {
		return 0, nil
	}
	return ix.WalkTerm(entry.ID, nil)
}

// DocumentTerms returns the raw per-document term counts recorded during
// the build, keyed by document name. The table is not persisted, so the
// second result is false for indexes restored with FromParts.
func (ix *Index) DocumentTerms() (map[string]map[string]int, bool) {
	if ix.docTerms == nil {
		return nil, false
	}
	out := make(map[string]map[string]int, len(ix.docTerms))
	for id, counts := range ix.docTerms {
		terms := make(map[string]int, len(counts))
		for term, freq := range counts {
			terms[term] = freq
		}
		out[ix.docs.Name(id)] = terms
	}
	return out, true
}

// Parts is the serializable form of an Index.
type Parts struct {
	Terms     []TermEntry `json:"terms"`
	Documents []string    `json:"documents"`
	Postings  []Posting   `json:"postings"`
}

func (ix *Index) Parts() Parts {
	postings := make([]Posting, len(ix.postings))
	copy(postings, ix.postings)
	return Parts{
		Terms:     ix.lexicon.Entries(),
		Documents: ix.docs.Names(),
		Postings:  postings,
	}
}

// FromParts rebuilds an Index from its serialized parts, checking that
// IDs are dense, names are unique, and every chain is well formed.
func FromParts(p Parts) (*Index, error) {
	docs := newDocuments()
	for i, name := range p.Documents {
		if _, dup := docs.byName[name]; dup {
			return nil, fmt.Errorf("document %d: duplicate name %q: %w", i, name, apperrors.ErrCorruptIndex)
		}
		docs.register(name)
	}
	lex := newLexicon()
	for i, entry := range p.Terms {
		if entry.ID != i {
			return nil, fmt.Errorf("term %q has id %d at position %d: %w", entry.Term, entry.ID, i, apperrors.ErrCorruptIndex)
		}
		if _, dup := lex.byTerm[entry.Term]; dup {
			return nil, fmt.Errorf("duplicate term %q: %w", entry.Term, apperrors.ErrCorruptIndex)
		}
		lex.entries = append(lex.entries, entry)
		lex.byTerm[entry.Term] = entry.ID
	}
	ix := &Index{
		lexicon:  lex,
		docs:     docs,
		postings: PostingStore(p.Postings),
	}
	seen := 0
	for id, entry := range lex.entries {
		if entry.Head == NoPosting {
			return nil, fmt.Errorf("term %q has an empty chain: %w", entry.Term, apperrors.ErrCorruptIndex)
		}
		df, err := ix.WalkTerm(id, nil)
		if err != nil {
			return nil, err
		}
		seen += df
	}
	if seen != len(ix.postings) {
		return nil, fmt.Errorf("%d postings reachable from lexicon, store holds %d: %w",
			seen, len(ix.postings), apperrors.ErrCorruptIndex)
	}
	return ix, nil
}
