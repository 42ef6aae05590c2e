package rag

import (
	"context"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/internal/repository/memory"
	"counseling-rag-be/pkg/llm"
	"counseling-rag-be/pkg/rag/history"
	"counseling-rag-be/pkg/rag/intent"
	"counseling-rag-be/pkg/rag/response"
	"counseling-rag-be/pkg/rag/rewrite"
	"counseling-rag-be/pkg/retriever"
	"counseling-rag-be/pkg/store"

	"github.com/google/uuid"
)

const (
	referralReason   = "전문 상담사 연결 권장"
	referralSeverity = 3
)

// Config holds the pipeline-level thresholds. StreamThreshold filters
// candidates before answering on the streaming path; RunThreshold is the
// low-similarity cutoff checked against the best candidate on the
// synchronous path.
type Config struct {
	StreamThreshold float64
	RunThreshold    float64
	HistoryLimit    int
	Debug           bool
}

func DefaultConfig() Config {
	return Config{
		StreamThreshold: 0.40,
		RunThreshold:    0.65,
		HistoryLimit:    history.DefaultLimit,
	}
}

// Pipeline drives one conversation turn end to end:
// classify, then either answer directly or rewrite-retrieve-filter-answer.
type Pipeline struct {
	classifier *intent.Classifier
	rewriter   *rewrite.Rewriter
	loader     *history.Loader
	generator  *response.Generator
	ranker     retriever.Retriever
	messages   contract.ChatMessageRepository
	referrals  contract.ExpertReferralRepository
	sessions   *memory.SessionRepository
	cfg        Config
	log        logger.ILogger
	audit      logger.ILogger
}

func NewPipeline(
	provider llm.LLMProvider,
	ranker retriever.Retriever,
	messages contract.ChatMessageRepository,
	referrals contract.ExpertReferralRepository,
	sessions *memory.SessionRepository,
	cfg Config,
	log logger.ILogger,
	audit logger.ILogger,
) *Pipeline {
	def := DefaultConfig()
	if cfg.StreamThreshold <= 0 {
		cfg.StreamThreshold = def.StreamThreshold
	}
	if cfg.RunThreshold <= 0 {
		cfg.RunThreshold = def.RunThreshold
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	return &Pipeline{
		classifier: intent.NewClassifier(provider, log),
		rewriter:   rewrite.NewRewriter(provider, log),
		loader:     history.NewLoader(messages),
		generator:  response.NewGenerator(provider, log),
		ranker:     ranker,
		messages:   messages,
		referrals:  referrals,
		sessions:   sessions,
		cfg:        cfg,
		log:        log,
		audit:      audit,
	}
}

// Result is the outcome of one processed turn.
type Result struct {
	Answer         string
	Intent         intent.Intent
	RewrittenQuery string
	Sources        []store.RankedResult
	Referral       bool
}

// Run processes one turn synchronously. The user message is persisted
// before any processing so a failing turn still leaves a complete record;
// any failure surfaces as the generic apology, never an error message.
func (p *Pipeline) Run(ctx context.Context, sessionID uuid.UUID, query string) (*Result, error) {
	if err := p.persistMessage(ctx, sessionID, constant.ChatMessageRoleUser, query); err != nil {
		p.log.Error("pipeline", "persist user message failed", map[string]interface{}{"error": err.Error()})
	}

	res, err := p.process(ctx, sessionID, query)
	if err != nil {
		p.log.Error("pipeline", "turn processing failed", map[string]interface{}{"error": err.Error()})
		res = &Result{Answer: constant.GenericApology}
	}

	if err := p.persistMessage(ctx, sessionID, constant.ChatMessageRoleAssistant, res.Answer); err != nil {
		p.log.Error("pipeline", "persist assistant message failed", map[string]interface{}{"error": err.Error()})
	}

	p.saveState(sessionID, query, res)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, sessionID uuid.UUID, query string) (*Result, error) {
	classified := p.classifier.Classify(ctx, query)
	res := &Result{Intent: classified}

	switch classified {
	case intent.Crisis:
		res.Answer = response.CrisisResponse()
		res.Referral = true
		p.recordReferral(ctx, sessionID, query)
		return res, nil

	case intent.Greeting:
		res.Answer = response.GreetingResponse()
		return res, nil

	case intent.Chitchat:
		res.Answer = response.ChitchatResponse()
		return res, nil

	case intent.Closing:
		answer, err := p.summarizeSession(ctx, sessionID, query)
		if err != nil {
			return nil, err
		}
		res.Answer = answer
		return res, nil
	}

	// EMOTION / QUESTION: the full RAG path.
	msgs, err := p.loader.Load(ctx, sessionID, p.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	msgs = history.DropCurrentTurn(msgs, query)
	historyText := history.FormatText(msgs)

	rewriteHistory := history.FormatText(history.Tail(msgs, rewrite.MaxHistoryTurns))
	res.RewrittenQuery = p.rewriter.Rewrite(ctx, query, rewriteHistory)

	results, err := p.ranker.Retrieve(ctx, res.RewrittenQuery)
	if err != nil {
		return nil, err
	}
	res.Sources = results

	if len(results) == 0 || results[0].Distance >= p.cfg.RunThreshold {
		p.log.Info("pipeline", "low similarity, declining to answer", map[string]interface{}{
			"query": res.RewrittenQuery, "candidates": len(results),
		})
		res.Answer = response.LowSimilarityResponse()
		return res, nil
	}

	contextText := response.FormatSources(results)
	answer, referral, err := p.generator.Answer(ctx, contextText, historyText, res.RewrittenQuery)
	if err != nil {
		return nil, err
	}
	res.Answer = answer
	res.Referral = referral
	if referral {
		p.recordReferral(ctx, sessionID, query)
	}
	return res, nil
}

func (p *Pipeline) summarizeSession(ctx context.Context, sessionID uuid.UUID, query string) (string, error) {
	msgs, err := p.loader.Load(ctx, sessionID, p.cfg.HistoryLimit)
	if err != nil {
		return "", err
	}

	// The closing utterance itself carries no counseling content.
	conversation := history.FormatText(history.DropCurrentTurn(msgs, query))
	if conversation == "없음" {
		return response.EmptySummaryResponse(), nil
	}
	return p.generator.Summarize(ctx, conversation)
}

// recordReferral writes exactly one referral per triggering turn: a durable
// row plus an audit log entry. Failures are logged, never surfaced.
func (p *Pipeline) recordReferral(ctx context.Context, sessionID uuid.UUID, query string) {
	referral := &entity.ExpertReferral{
		ChatSessionId: sessionID,
		Query:         query,
		Reason:        referralReason,
		Severity:      referralSeverity,
	}
	if err := p.referrals.Create(ctx, referral); err != nil {
		p.log.Error("pipeline", "referral logging failed", map[string]interface{}{"error": err.Error()})
		return
	}
	p.audit.Warn("referral", "expert referral recorded", map[string]interface{}{
		"session_id": sessionID.String(),
		"query":      query,
		"severity":   referralSeverity,
	})
}

func (p *Pipeline) persistMessage(ctx context.Context, sessionID uuid.UUID, role, content string) error {
	return p.messages.Create(ctx, &entity.ChatMessage{
		Content:       content,
		Role:          role,
		ChatSessionId: sessionID,
	})
}

func (p *Pipeline) saveState(sessionID uuid.UUID, query string, res *Result) {
	state, ok := p.sessions.Get(sessionID.String())
	if !ok {
		state = &store.SessionState{ID: sessionID.String()}
	}
	state.LastIntent = string(res.Intent)
	state.LastQuery = query
	state.RewrittenQuery = res.RewrittenQuery
	state.TurnCount++
	p.sessions.Save(state)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
