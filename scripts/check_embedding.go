package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"counseling-rag-be/internal/config"
	"counseling-rag-be/pkg/embedding"
)

// Quick sanity probe for the configured embedding backend. Run it before
// seeding a corpus to confirm the model answers and the vector dimension
// matches the transcript_embeddings column.
//
// Usage: go run ./scripts -text "요즘 너무 힘들어"
func main() {
	text := flag.String("text", "요즘 너무 힘들어서 잠이 안 와요", "sample text to embed")
	flag.Parse()

	cfg := config.Load()

	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		provider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
	} else {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	}

	resp, err := provider.Generate(*text, "retrieval_query")
	if err != nil {
		log.Fatalf("Embedding failed: %v", err)
	}

	values := resp.Embedding.Values
	var norm float64
	for _, v := range values {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)

	fmt.Printf("Provider:  %s\n", cfg.Ai.EmbeddingProvider)
	fmt.Printf("Model:     %s\n", cfg.Ai.EmbeddingModel)
	fmt.Printf("Dimension: %d\n", len(values))
	fmt.Printf("L2 norm:   %.6f\n", norm)
	if len(values) != 768 {
		fmt.Println("WARNING: dimension does not match the vector(768) column; re-run migrations with a matching model")
	}
}
