package retriever

import (
	"context"

	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/pkg/embedding"
	"counseling-rag-be/pkg/store"
)

// DenseRetriever delegates nearest-neighbour search to the transcript
// store's pgvector index.
type DenseRetriever struct {
	repo     contract.TranscriptRepository
	embedder embedding.EmbeddingProvider
	topK     int
	filter   Filter
	log      logger.ILogger
}

var _ Retriever = &DenseRetriever{}

func NewDenseRetriever(repo contract.TranscriptRepository, embedder embedding.EmbeddingProvider, topK int, filter Filter, log logger.ILogger) *DenseRetriever {
	if topK <= 0 {
		topK = DefaultConfig().TopK
	}
	return &DenseRetriever{
		repo:     repo,
		embedder: embedder,
		topK:     topK,
		filter:   filter,
		log:      log,
	}
}

// Retrieve embeds the query and runs one filtered NN query. Provider and
// store failures degrade to an empty result so a flaky backend never takes
// the whole pipeline down.
func (r *DenseRetriever) Retrieve(ctx context.Context, query string) ([]store.RankedResult, error) {
	vec, err := r.embedQuery(query)
	if err != nil {
		r.log.Error("retriever.dense", "query embedding failed", map[string]interface{}{"error": err.Error()})
		return []store.RankedResult{}, nil
	}

	scored, err := r.repo.SearchSimilarWithDistance(ctx, vec, r.topK, r.filter.Specifications()...)
	if err != nil {
		r.log.Error("retriever.dense", "similarity search failed", map[string]interface{}{"error": err.Error()})
		return []store.RankedResult{}, nil
	}

	return scoredToRanked(scored), nil
}

func (r *DenseRetriever) embedQuery(query string) ([]float32, error) {
	resp, err := r.embedder.Generate(query, "retrieval_query")
	if err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

func scoredToRanked(scored []*contract.ScoredTranscript) []store.RankedResult {
	results := make([]store.RankedResult, 0, len(scored))
	for _, s := range scored {
		if s == nil || s.Transcript == nil {
			continue
		}
		t := s.Transcript
		results = append(results, store.RankedResult{
			Content: t.Content,
			Meta: store.Metadata{
				SessionID:         t.SessionID,
				TurnIndex:         t.TurnIndex,
				HasTurn:           t.HasTurn,
				Category:          t.Category,
				Speaker:           t.Speaker,
				CounselorResponse: t.CounselorResponse,
				Severity:          t.Severity,
				Extra:             t.Extra,
			},
			Distance: s.Distance,
		})
	}
	return results
}
