package index

import (
	"context"
	"fmt"
	"testing"
)

// syntheticCollection returns n documents drawn from a vocabulary of vocab
// terms with a skewed distribution, each length tokens long.
func syntheticCollection(n, vocab, length int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		tokens := make([]string, length)
		for j := range tokens {
			tokens[j] = fmt.Sprintf("term%d", (i*31+j*j)%vocab)
		}
		docs[i] = Document{Name: fmt.Sprintf("doc-%d", i), Tokens: tokens}
	}
	return docs
}

func BenchmarkBuild(b *testing.B) {
	docs := syntheticCollection(5000, 2000, 60)
	for _, workers := range []int{1, 4, 0} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Build(context.Background(), docs, workers); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkWalkTerm(b *testing.B) {
	ix, err := Build(context.Background(), syntheticCollection(5000, 2000, 60), 0)
	if err != nil {
		b.Fatal(err)
	}
	entry, _ := ix.Lexicon().Lookup("term0")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ix.WalkTerm(entry.ID, nil); err != nil {
			b.Fatal(err)
		}
	}
}
