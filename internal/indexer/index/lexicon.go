package index

// TermEntry is the lexicon record for one term. ID is the term's first-seen
// order across the build and Head is the index of its most recent posting.
type TermEntry struct {
	ID   int    `json:"id"`
	Term string `json:"term"`
	Head int    `json:"head"`
}

// Lexicon maps terms to their posting chain heads.
type Lexicon struct {
	entries []TermEntry
	byTerm  map[string]int
}

func newLexicon() *Lexicon {
	return &Lexicon{byTerm: make(map[string]int)}
}

// Lookup returns the entry for term.
func (l *Lexicon) Lookup(term string) (TermEntry, bool) {
	id, ok := l.byTerm[term]
	if !ok {
		return TermEntry{}, false
	}
	return l.entries[id], true
}

// Entry returns the entry with the given term ID.
func (l *Lexicon) Entry(id int) TermEntry {
	return l.entries[id]
}

// Entries returns a copy of all entries in term ID order.
func (l *Lexicon) Entries() []TermEntry {
	out := make([]TermEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len is the number of distinct indexed terms.
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// idFor returns the ID of term, registering it with a NoPosting head when
// it has not been seen.
func (l *Lexicon) idFor(term string) int {
	if id, ok := l.byTerm[term]; ok {
		return id
	}
	id := len(l.entries)
	l.entries = append(l.entries, TermEntry{ID: id, Term: term, Head: NoPosting})
	l.byTerm[term] = id
	return id
}

// Documents is the document registry. IDs follow registration order.
type Documents struct {
	names  []string
	byName map[string]int
}

func newDocuments() *Documents {
	return &Documents{byName: make(map[string]int)}
}

// Name returns the name registered under id.
func (d *Documents) Name(id int) string {
	return d.names[id]
}

// ID returns the ID registered for name.
func (d *Documents) ID(name string) (int, bool) {
	id, ok := d.byName[name]
	return id, ok
}

// Names returns a copy of all document names in ID order.
func (d *Documents) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

func (d *Documents) Len() int {
	return len(d.names)
}

func (d *Documents) register(name string) int {
	id := len(d.names)
	d.names = append(d.names, name)
	d.byName[name] = id
	return id
}
