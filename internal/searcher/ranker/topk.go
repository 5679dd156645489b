package ranker

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

// DefaultK is the number of results returned when the caller asks for none.
const DefaultK = 3

// Order is the direction in which better scores sort.
type Order int

const (
	Descending Order = iota
	Ascending
)

// ScoredDoc is one ranked document. Score is a cosine similarity or a
// squared Euclidean distance depending on the mode.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// better reports whether a ranks before b. Equal scores fall back to the
// document name so results are deterministic.
func (o Order) better(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		if o == Ascending {
			return a.Score < b.Score
		}
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// TopK returns the best k scores in rank order, or every score when k
// exceeds the candidate count. k <= 0 selects DefaultK.
func TopK(scores Scores, docs *index.Documents, order Order, k int) []ScoredDoc {
	if k <= 0 {
		k = DefaultK
	}
	h := &scoredDocHeap{order: order}
	for docID, score := range scores {
		doc := ScoredDoc{DocID: docs.Name(docID), Score: score}
		if h.Len() < k {
			heap.Push(h, doc)
			continue
		}
		if order.better(doc, h.docs[0]) {
			h.docs[0] = doc
			heap.Fix(h, 0)
		}
	}
	result := make([]ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ScoredDoc)
	}
	return result
}

// scoredDocHeap keeps the worst retained document at the root.
type scoredDocHeap struct {
	docs  []ScoredDoc
	order Order
}

func (h scoredDocHeap) Len() int { return len(h.docs) }

func (h scoredDocHeap) Less(i, j int) bool {
	return h.order.better(h.docs[j], h.docs[i])
}

func (h scoredDocHeap) Swap(i, j int) { h.docs[i], h.docs[j] = h.docs[j], h.docs[i] }

func (h *scoredDocHeap) Push(x any) {
	h.docs = append(h.docs, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := h.docs
	n := len(old)
	item := old[n-1]
	h.docs = old[:n-1]
	return item
}

// Sorted returns every score in rank order.
func Sorted(scores Scores, docs *index.Documents, order Order) []ScoredDoc {
	if len(scores) == 0 {
		return []ScoredDoc{}
	}
	return TopK(scores, docs, order, len(scores))
}
