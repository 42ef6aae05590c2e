package rewrite

import (
	"context"
	"fmt"
	"strings"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/pkg/llm"
)

// MaxHistoryTurns caps how much history the rewrite prompt sees. Query
// rewriting only needs enough context to resolve references like "아까
// 그거"; older turns just dilute the prompt.
const MaxHistoryTurns = 6

// Rewriter turns the last utterance plus conversation history into one
// search query. It degrades to the raw query on any failure so retrieval
// always has something to work with.
type Rewriter struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewRewriter(provider llm.LLMProvider, log logger.ILogger) *Rewriter {
	return &Rewriter{
		provider: provider,
		log:      log,
	}
}

func (r *Rewriter) Rewrite(ctx context.Context, query, historyText string) string {
	if historyText == "" {
		historyText = "없음"
	}

	result, err := r.provider.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.RewriteSystemPrompt},
		{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf(constant.RewriteUserPrompt, historyText, query)},
	}, llm.WithTemperature(0))
	if err != nil {
		r.log.Warn("rewrite", "rewrite failed, using raw query", map[string]interface{}{"error": err.Error()})
		return query
	}

	rewritten := firstLine(strings.Trim(strings.TrimSpace(result), `"'`))
	if rewritten == "" {
		return query
	}
	return rewritten
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
