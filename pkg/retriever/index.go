package retriever

import (
	"math"

	"counseling-rag-be/pkg/store"
)

type posting struct {
	ord int // document ordinal in the corpus slice
	tf  int
}

// InvertedIndex is the shared lexical index behind the BM25 and TF-IDF
// rankers. Built once from a full corpus scan, immutable afterwards, safe
// for concurrent reads.
type InvertedIndex struct {
	docs     []store.Document
	postings map[string][]posting
	docLen   []int
	avgdl    float64
	df       map[string]int
}

// BuildIndex tokenizes every document and constructs the postings lists.
// An empty corpus is a hard error: serving lexical search over nothing is
// always a deployment mistake.
func BuildIndex(docs []store.Document) (*InvertedIndex, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	idx := &InvertedIndex{
		docs:     docs,
		postings: make(map[string][]posting),
		docLen:   make([]int, len(docs)),
		df:       make(map[string]int),
	}

	totalLen := 0
	for ord, doc := range docs {
		tokens := Tokenize(doc.Content)
		idx.docLen[ord] = len(tokens)
		totalLen += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for term, n := range tf {
			idx.postings[term] = append(idx.postings[term], posting{ord: ord, tf: n})
			idx.df[term]++
		}
	}
	idx.avgdl = float64(totalLen) / float64(len(docs))

	return idx, nil
}

// Size returns the number of indexed documents.
func (idx *InvertedIndex) Size() int {
	return len(idx.docs)
}

// Doc returns the document at the given ordinal.
func (idx *InvertedIndex) Doc(ord int) store.Document {
	return idx.docs[ord]
}

// bm25IDF is the Okapi variant with +1 smoothing so common terms never go
// negative.
func (idx *InvertedIndex) bm25IDF(term string) float64 {
	df := float64(idx.df[term])
	n := float64(len(idx.docs))
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// tfidfIDF is the smoothed variant used by the TF-IDF ranker.
func (idx *InvertedIndex) tfidfIDF(term string) float64 {
	df := float64(idx.df[term])
	n := float64(len(idx.docs))
	return math.Log((n+1)/(df+1)) + 1
}
