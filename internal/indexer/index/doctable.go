package index

// InvertDocumentTerms turns a document -> term -> frequency table into
// term -> document -> frequency.
func InvertDocumentTerms(docTerms map[string]map[string]int) map[string]map[string]int {
	inverted := make(map[string]map[string]int)
	for doc, terms := range docTerms {
		for term, freq := range terms {
			docs, ok := inverted[term]
			if !ok {
				docs = make(map[string]int)
				inverted[term] = docs
			}
			docs[doc] = freq
		}
	}
	return inverted
}
