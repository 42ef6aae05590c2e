package retriever

import (
	"context"
	"math"
	"sort"

	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/pkg/embedding"
	"counseling-rag-be/pkg/store"
)

// MMRRetriever re-ranks a dense candidate pool with maximal marginal
// relevance. Relevance is the negated query distance; pairwise diversity is
// approximated from the spread of query distances, which avoids holding
// candidate embeddings in memory.
type MMRRetriever struct {
	repo     contract.TranscriptRepository
	embedder embedding.EmbeddingProvider
	topK     int
	fetchK   int
	lambda   float64
	filter   Filter
	log      logger.ILogger
}

var _ Retriever = &MMRRetriever{}

func NewMMRRetriever(repo contract.TranscriptRepository, embedder embedding.EmbeddingProvider, cfg Config, filter Filter, log logger.ILogger) *MMRRetriever {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.FetchK <= 0 {
		cfg.FetchK = def.FetchK
	}
	if cfg.LambdaMult <= 0 {
		cfg.LambdaMult = def.LambdaMult
	}
	return &MMRRetriever{
		repo:     repo,
		embedder: embedder,
		topK:     cfg.TopK,
		fetchK:   cfg.FetchK,
		lambda:   cfg.LambdaMult,
		filter:   filter,
		log:      log,
	}
}

func (r *MMRRetriever) Retrieve(ctx context.Context, query string) ([]store.RankedResult, error) {
	resp, err := r.embedder.Generate(query, "retrieval_query")
	if err != nil {
		r.log.Error("retriever.mmr", "query embedding failed", map[string]interface{}{"error": err.Error()})
		return []store.RankedResult{}, nil
	}

	scored, err := r.repo.SearchSimilarWithDistance(ctx, resp.Embedding.Values, r.fetchK, r.filter.Specifications()...)
	if err != nil {
		r.log.Error("retriever.mmr", "candidate fetch failed", map[string]interface{}{"error": err.Error()})
		return []store.RankedResult{}, nil
	}

	pool := scoredToRanked(scored)
	if len(pool) == 0 {
		return pool, nil
	}

	selected := selectMMR(pool, r.topK, r.lambda)

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Distance < selected[j].Distance
	})
	return selected, nil
}

// selectMMR greedily picks up to topK candidates. The first pick is the
// closest candidate; after that each step maximizes
//
//	lambda*(-distance) + (1-lambda)*min |d_i - d_j| over selected
//
// so later picks trade closeness for spread.
func selectMMR(pool []store.RankedResult, topK int, lambda float64) []store.RankedResult {
	if topK <= 0 || len(pool) == 0 {
		return []store.RankedResult{}
	}
	if topK > len(pool) {
		topK = len(pool)
	}

	remaining := make([]store.RankedResult, len(pool))
	copy(remaining, pool)

	// Pool arrives sorted ascending by distance; the first pick is just the
	// closest candidate.
	best := 0
	for i := 1; i < len(remaining); i++ {
		if remaining[i].Distance < remaining[best].Distance {
			best = i
		}
	}
	selected := []store.RankedResult{remaining[best]}
	remaining = append(remaining[:best], remaining[best+1:]...)

	for len(selected) < topK && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			diversity := math.Inf(1)
			for _, sel := range selected {
				if d := math.Abs(cand.Distance - sel.Distance); d < diversity {
					diversity = d
				}
			}
			score := lambda*(-cand.Distance) + (1-lambda)*diversity
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
