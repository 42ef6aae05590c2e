package bootstrap

import (
	"context"
	"fmt"
	"log"

	"counseling-rag-be/internal/config"
	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/internal/repository/implementation"
	"counseling-rag-be/internal/repository/memory"
	"counseling-rag-be/pkg/embedding"
	"counseling-rag-be/pkg/llm/factory"
	"counseling-rag-be/pkg/rag"
	"counseling-rag-be/pkg/retriever"
	"counseling-rag-be/pkg/store"

	"gorm.io/gorm"
)

type Container struct {
	Pipeline *rag.Pipeline

	Transcripts contract.TranscriptRepository
	Sessions    contract.ChatSessionRepository
	Messages    contract.ChatMessageRepository
	Referrals   contract.ExpertReferralRepository

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger("referrals.log")

	// 2. Repositories
	transcriptRepo := implementation.NewTranscriptRepository(db)
	sessionRepo := implementation.NewChatSessionRepository(db)
	messageRepo := implementation.NewChatMessageRepository(db)
	referralRepo := implementation.NewExpertReferralRepository(db)
	stateRepo := memory.NewSessionRepository()

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retriever
	ranker, err := NewRetriever(cfg, transcriptRepo, embeddingProvider, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize retriever: %v", err)
	}
	log.Printf("[INFO] Using Retriever: %s", cfg.Retrieval.RetrieverKind)

	// 5. Pipeline
	pipeline := rag.NewPipeline(
		llmProvider,
		ranker,
		messageRepo,
		referralRepo,
		stateRepo,
		rag.Config{
			StreamThreshold: cfg.Retrieval.Threshold,
			RunThreshold:    cfg.Retrieval.RunThreshold,
			Debug:           cfg.App.Debug,
		},
		sysLogger,
		auditLogger,
	)

	return &Container{
		Pipeline:    pipeline,
		Transcripts: transcriptRepo,
		Sessions:    sessionRepo,
		Messages:    messageRepo,
		Referrals:   referralRepo,
		Logger:      sysLogger,
	}
}

// NewRetriever builds the configured ranker. The lexical kinds need a full
// corpus scan up front; the vector kinds defer entirely to the store.
func NewRetriever(cfg *config.Config, repo contract.TranscriptRepository, embedder embedding.EmbeddingProvider, log logger.ILogger) (retriever.Retriever, error) {
	rCfg := retriever.Config{
		TopK:               cfg.Retrieval.TopK,
		SeedK:              cfg.Retrieval.SeedK,
		Window:             cfg.Retrieval.Window,
		FetchK:             cfg.Retrieval.FetchK,
		LambdaMult:         cfg.Retrieval.LambdaMult,
		UseBestSessionOnly: cfg.Retrieval.UseBestSessionOnly,
	}
	var filter retriever.Filter

	switch cfg.Retrieval.RetrieverKind {
	case "bm25", "tfidf":
		index, err := buildLexicalIndex(repo)
		if err != nil {
			return nil, err
		}
		if cfg.Retrieval.RetrieverKind == "bm25" {
			return retriever.NewBM25Retriever(index, rCfg.TopK, filter), nil
		}
		return retriever.NewTFIDFRetriever(index, rCfg.TopK, filter), nil
	case "dense":
		return retriever.NewDenseRetriever(repo, embedder, rCfg.TopK, filter, log), nil
	case "mmr":
		return retriever.NewMMRRetriever(repo, embedder, rCfg, filter, log), nil
	case "contextual":
		return retriever.NewContextualRetriever(repo, embedder, rCfg, filter, log), nil
	case "hybrid":
		return retriever.NewHybridRetriever(repo, embedder, rCfg, filter, log), nil
	default:
		return nil, fmt.Errorf("unsupported retriever kind: %s", cfg.Retrieval.RetrieverKind)
	}
}

func buildLexicalIndex(repo contract.TranscriptRepository) (*retriever.InvertedIndex, error) {
	transcripts, err := repo.ScanAll(context.Background())
	if err != nil {
		return nil, fmt.Errorf("corpus scan: %w", err)
	}

	docs := make([]store.Document, 0, len(transcripts))
	for _, t := range transcripts {
		docs = append(docs, store.Document{
			ID:      t.Id.String(),
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
		})
	}

	return retriever.BuildIndex(docs)
}
