package retriever

import (
	"context"
	"sort"

	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/pkg/embedding"
	"counseling-rag-be/pkg/store"
)

// HybridRetriever merges plain dense hits with contextual window expansion.
// It satisfies the same contract as the dense ranker, so the two can be
// swapped via configuration alone.
type HybridRetriever struct {
	dense      *DenseRetriever
	contextual *ContextualRetriever
	topK       int
}

var _ Retriever = &HybridRetriever{}

func NewHybridRetriever(repo contract.TranscriptRepository, embedder embedding.EmbeddingProvider, cfg Config, filter Filter, log logger.ILogger) *HybridRetriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	return &HybridRetriever{
		dense:      NewDenseRetriever(repo, embedder, cfg.TopK, filter, log),
		contextual: NewContextualRetriever(repo, embedder, cfg, filter, log),
		topK:       cfg.TopK,
	}
}

func (r *HybridRetriever) Retrieve(ctx context.Context, query string) ([]store.RankedResult, error) {
	denseHits, err := r.dense.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	contextHits, err := r.contextual.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	merged := mergeResults(denseHits, contextHits)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	if len(merged) > r.topK {
		merged = merged[:r.topK]
	}
	return merged, nil
}

// mergeResults unions the two result sets, deduping on the session/turn key
// when present and on content otherwise.
func mergeResults(a, b []store.RankedResult) []store.RankedResult {
	seenTurn := make(map[sessionTurn]bool)
	seenContent := make(map[string]bool)
	var merged []store.RankedResult

	add := func(res store.RankedResult) {
		if res.Meta.HasSessionTurn() {
			key := sessionTurn{session: res.Meta.SessionID, turn: res.Meta.TurnIndex}
			if seenTurn[key] {
				return
			}
			seenTurn[key] = true
		} else {
			if seenContent[res.Content] {
				return
			}
			seenContent[res.Content] = true
		}
		merged = append(merged, res)
	}

	for _, res := range a {
		add(res)
	}
	for _, res := range b {
		add(res)
	}
	return merged
}
