package history

import (
	"context"
	"strings"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/pkg/llm"

	"github.com/google/uuid"
)

// DefaultLimit caps how many past turns feed the prompts.
const DefaultLimit = 20

// Loader reads conversation history from the durable message store and
// shapes it for the prompt layer.
type Loader struct {
	messages contract.ChatMessageRepository
}

func NewLoader(messages contract.ChatMessageRepository) *Loader {
	return &Loader{messages: messages}
}

// Load returns the session's messages oldest first as provider-agnostic
// chat messages.
func (l *Loader) Load(ctx context.Context, sessionID uuid.UUID, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	entities, err := l.messages.FindHistory(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]llm.Message, 0, len(entities))
	for _, e := range entities {
		msgs = append(msgs, llm.Message{Role: e.Role, Content: e.Content})
	}
	return msgs, nil
}

// DropCurrentTurn removes the trailing user message when it is the
// utterance being processed. The turn is persisted before the pipeline
// runs, so a plain load would hand the prompts their own input back as
// history.
func DropCurrentTurn(msgs []llm.Message, query string) []llm.Message {
	if n := len(msgs); n > 0 && msgs[n-1].Role == constant.ChatMessageRoleUser && msgs[n-1].Content == query {
		return msgs[:n-1]
	}
	return msgs
}

// Tail returns the most recent n messages.
func Tail(msgs []llm.Message, n int) []llm.Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// FormatText renders history for the Korean prompts. System turns are
// dropped; an empty history renders as "없음".
func FormatText(msgs []llm.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role == constant.ChatMessageRoleSystem {
			continue
		}
		role := "내담자"
		if m.Role == constant.ChatMessageRoleAssistant {
			role = "상담사"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "없음"
	}
	return b.String()
}
