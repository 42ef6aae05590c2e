package retriever

import (
	"context"
	"sort"

	"counseling-rag-be/pkg/store"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25Retriever ranks with Okapi BM25 over the in-memory inverted index.
type BM25Retriever struct {
	index  *InvertedIndex
	topK   int
	filter Filter
}

var _ Retriever = &BM25Retriever{}

func NewBM25Retriever(index *InvertedIndex, topK int, filter Filter) *BM25Retriever {
	if topK <= 0 {
		topK = DefaultConfig().TopK
	}
	return &BM25Retriever{
		index:  index,
		topK:   topK,
		filter: filter,
	}
}

func (r *BM25Retriever) Retrieve(ctx context.Context, query string) ([]store.RankedResult, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []store.RankedResult{}, nil
	}

	scores := make(map[int]float64)
	for _, term := range tokens {
		postings, ok := r.index.postings[term]
		if !ok {
			continue
		}
		idf := r.index.bm25IDF(term)
		for _, p := range postings {
			if !r.filter.Match(r.index.docs[p.ord].Meta) {
				continue
			}
			tf := float64(p.tf)
			dl := float64(r.index.docLen[p.ord])
			norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*dl/r.index.avgdl))
			scores[p.ord] += idf * norm
		}
	}

	type scored struct {
		ord   int
		score float64
	}
	ranked := make([]scored, 0, len(scores))
	for ord, s := range scores {
		if s > 0 {
			ranked = append(ranked, scored{ord: ord, score: s})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].ord < ranked[j].ord
	})
	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	if len(ranked) == 0 {
		return []store.RankedResult{}, nil
	}

	// Normalize against the best score of this result set so Distance lands
	// in [0,1] with the top hit at 0.
	maxScore := ranked[0].score
	results := make([]store.RankedResult, len(ranked))
	for i, s := range ranked {
		doc := r.index.docs[s.ord]
		results[i] = store.RankedResult{
			Content:  doc.Content,
			Meta:     doc.Meta,
			Distance: 1 - s.score/maxScore,
			Score:    s.score,
		}
	}
	return results, nil
}
