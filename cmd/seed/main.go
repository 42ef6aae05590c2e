package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"counseling-rag-be/internal/config"
	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/repository/implementation"
	"counseling-rag-be/pkg/database"
	"counseling-rag-be/pkg/embedding"
	"counseling-rag-be/pkg/utils"
)

const (
	// Chunking bounds for overlong transcript turns. Most counseling turns
	// fit in one chunk; the overlap keeps boundary sentences searchable.
	seedChunkSize    = 800
	seedChunkOverlap = 100
)

// seedRecord is one corpus line in the ingestion JSONL file.
type seedRecord struct {
	Content           string         `json:"content"`
	SessionID         string         `json:"session_id"`
	TurnIndex         *int           `json:"turn_index"`
	Category          string         `json:"category"`
	Speaker           string         `json:"speaker"`
	CounselorResponse string         `json:"counselor_response"`
	Severity          int            `json:"severity"`
	Extra             map[string]any `json:"extra"`
}

func main() {
	path := flag.String("file", "corpus.jsonl", "path to the transcript JSONL file")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	repo := implementation.NewTranscriptRepository(db)

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embedder = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
	} else {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	}

	file, err := os.Open(*path)
	if err != nil {
		log.Fatal("Error: Failed to open corpus file:", err)
	}
	defer file.Close()

	ctx := context.Background()
	inserted, skipped, failed := 0, 0, 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec seedRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Printf("Warn: skipping malformed line: %v", err)
			failed++
			continue
		}
		if rec.Content == "" {
			skipped++
			continue
		}

		for i, chunk := range utils.ChunkText(rec.Content, seedChunkSize, seedChunkOverlap) {
			resp, err := embedder.Generate(chunk, "retrieval_document")
			if err != nil {
				log.Printf("Warn: embedding failed: %v", err)
				failed++
				continue
			}

			t := &entity.Transcript{
				Content:           chunk,
				Embedding:         resp.Embedding.Values,
				SessionID:         rec.SessionID,
				Category:          rec.Category,
				Speaker:           rec.Speaker,
				CounselorResponse: rec.CounselorResponse,
				Severity:          rec.Severity,
				Extra:             rec.Extra,
			}
			// Only the leading chunk carries the turn key so the
			// session-window expansion stays one row per turn.
			if i == 0 && rec.TurnIndex != nil && rec.SessionID != "" {
				t.TurnIndex = *rec.TurnIndex
				t.HasTurn = true
			}

			created, err := repo.CreateIfAbsent(ctx, t)
			if err != nil {
				log.Printf("Warn: insert failed: %v", err)
				failed++
				continue
			}
			if !created {
				skipped++
				continue
			}
			inserted++
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatal("Error: reading corpus file:", err)
	}

	log.Printf("Seed completed: %d inserted, %d skipped, %d failed", inserted, skipped, failed)
}
