package retriever

import (
	"context"
	"math"
	"sort"

	"counseling-rag-be/pkg/store"
)

// TFIDFRetriever ranks by cosine similarity between sparse TF-IDF vectors.
// Document norms are precomputed at construction so each query only touches
// the postings of its own terms.
type TFIDFRetriever struct {
	index    *InvertedIndex
	topK     int
	filter   Filter
	docNorms []float64
}

var _ Retriever = &TFIDFRetriever{}

func NewTFIDFRetriever(index *InvertedIndex, topK int, filter Filter) *TFIDFRetriever {
	if topK <= 0 {
		topK = DefaultConfig().TopK
	}

	norms := make([]float64, index.Size())
	for term, postings := range index.postings {
		idf := index.tfidfIDF(term)
		for _, p := range postings {
			w := float64(p.tf) * idf
			norms[p.ord] += w * w
		}
	}
	for i := range norms {
		norms[i] = math.Sqrt(norms[i])
	}

	return &TFIDFRetriever{
		index:    index,
		topK:     topK,
		filter:   filter,
		docNorms: norms,
	}
}

func (r *TFIDFRetriever) Retrieve(ctx context.Context, query string) ([]store.RankedResult, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []store.RankedResult{}, nil
	}

	queryTF := make(map[string]int, len(tokens))
	for _, t := range tokens {
		queryTF[t]++
	}

	var queryNorm float64
	queryWeights := make(map[string]float64, len(queryTF))
	for term, tf := range queryTF {
		w := float64(tf) * r.index.tfidfIDF(term)
		queryWeights[term] = w
		queryNorm += w * w
	}
	queryNorm = math.Sqrt(queryNorm)
	if queryNorm == 0 {
		return []store.RankedResult{}, nil
	}

	dots := make(map[int]float64)
	for term, qw := range queryWeights {
		postings, ok := r.index.postings[term]
		if !ok {
			continue
		}
		idf := r.index.tfidfIDF(term)
		for _, p := range postings {
			if !r.filter.Match(r.index.docs[p.ord].Meta) {
				continue
			}
			dots[p.ord] += qw * float64(p.tf) * idf
		}
	}

	type scored struct {
		ord int
		sim float64
	}
	ranked := make([]scored, 0, len(dots))
	for ord, dot := range dots {
		if r.docNorms[ord] == 0 {
			continue
		}
		sim := dot / (queryNorm * r.docNorms[ord])
		if sim > 0 {
			ranked = append(ranked, scored{ord: ord, sim: sim})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].sim != ranked[j].sim {
			return ranked[i].sim > ranked[j].sim
		}
		return ranked[i].ord < ranked[j].ord
	})
	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}

	results := make([]store.RankedResult, len(ranked))
	for i, s := range ranked {
		doc := r.index.docs[s.ord]
		results[i] = store.RankedResult{
			Content:  doc.Content,
			Meta:     doc.Meta,
			Distance: 1 - s.sim,
			Score:    s.sim,
		}
	}
	return results, nil
}
