package retriever

import (
	"context"
	"sort"

	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/pkg/embedding"
	"counseling-rag-be/pkg/store"
)

// ContextualRetriever expands dense seed hits with the transcript turns
// around them, so the generator sees the conversational flow instead of an
// isolated utterance.
type ContextualRetriever struct {
	repo               contract.TranscriptRepository
	embedder           embedding.EmbeddingProvider
	seedK              int
	window             int
	topK               int
	useBestSessionOnly bool
	filter             Filter
	log                logger.ILogger
}

var _ Retriever = &ContextualRetriever{}

func NewContextualRetriever(repo contract.TranscriptRepository, embedder embedding.EmbeddingProvider, cfg Config, filter Filter, log logger.ILogger) *ContextualRetriever {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.SeedK <= 0 {
		cfg.SeedK = def.SeedK
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	return &ContextualRetriever{
		repo:               repo,
		embedder:           embedder,
		seedK:              cfg.SeedK,
		window:             cfg.Window,
		topK:               cfg.TopK,
		useBestSessionOnly: cfg.UseBestSessionOnly,
		filter:             filter,
		log:                log,
	}
}

type sessionTurn struct {
	session string
	turn    int
}

func (r *ContextualRetriever) Retrieve(ctx context.Context, query string) ([]store.RankedResult, error) {
	resp, err := r.embedder.Generate(query, "retrieval_query")
	if err != nil {
		r.log.Error("retriever.contextual", "query embedding failed", map[string]interface{}{"error": err.Error()})
		return []store.RankedResult{}, nil
	}
	vec := resp.Embedding.Values

	scored, err := r.repo.SearchSimilarWithDistance(ctx, vec, r.seedK, r.filter.Specifications()...)
	if err != nil {
		r.log.Error("retriever.contextual", "seed search failed", map[string]interface{}{"error": err.Error()})
		return []store.RankedResult{}, nil
	}
	seeds := scoredToRanked(scored)
	if len(seeds) == 0 {
		return seeds, nil
	}

	// Seeds without a (session, turn) key cannot anchor a window.
	anchored := seeds[:0:0]
	for _, s := range seeds {
		if s.Meta.HasSessionTurn() {
			anchored = append(anchored, s)
		}
	}
	// No anchor anywhere: degrade to the single closest raw seed.
	if len(anchored) == 0 {
		return seeds[:1], nil
	}

	// Seeds arrive ascending by distance, so the best anchor is first.
	best := anchored[0]
	expandFrom := anchored
	if r.useBestSessionOnly {
		expandFrom = expandFrom[:0:0]
		for _, s := range anchored {
			if s.Meta.SessionID == best.Meta.SessionID {
				expandFrom = append(expandFrom, s)
			}
		}
	}

	visited := make(map[sessionTurn]bool)
	var expanded []store.RankedResult
	for _, seed := range expandFrom {
		for t := seed.Meta.TurnIndex - r.window; t <= seed.Meta.TurnIndex+r.window; t++ {
			if t < 0 {
				continue
			}
			key := sessionTurn{session: seed.Meta.SessionID, turn: t}
			if visited[key] {
				continue
			}
			visited[key] = true

			hit, err := r.repo.DistanceToQuery(ctx, vec, key.session, key.turn)
			if err != nil {
				r.log.Warn("retriever.contextual", "window fetch failed", map[string]interface{}{
					"session": key.session, "turn": key.turn, "error": err.Error(),
				})
				continue
			}
			if hit == nil {
				// Gaps in turn numbering are expected at session edges.
				continue
			}
			expanded = append(expanded, scoredToRanked([]*contract.ScoredTranscript{hit})...)
		}
	}

	if len(expanded) == 0 {
		if len(anchored) > r.topK {
			anchored = anchored[:r.topK]
		}
		return anchored, nil
	}

	sortBySessionTurn(expanded)

	// Keep the window tight around the best seed when over budget, then
	// restore reading order.
	if len(expanded) > r.topK {
		bestTurn := best.Meta.TurnIndex
		sort.SliceStable(expanded, func(i, j int) bool {
			return absInt(expanded[i].Meta.TurnIndex-bestTurn) < absInt(expanded[j].Meta.TurnIndex-bestTurn)
		})
		expanded = expanded[:r.topK]
		sortBySessionTurn(expanded)
	}

	return expanded, nil
}

func sortBySessionTurn(results []store.RankedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Meta.SessionID != results[j].Meta.SessionID {
			return results[i].Meta.SessionID < results[j].Meta.SessionID
		}
		return results[i].Meta.TurnIndex < results[j].Meta.TurnIndex
	})
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
