package response

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/pkg/llm"
)

// specialTokenPattern matches model artifacts like <|eot_id|> that some
// local models leak into their output.
var specialTokenPattern = regexp.MustCompile(`<\|[^|>]+\|>`)

// Generator produces the grounded counseling answer and the closing
// session summary.
type Generator struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		provider: provider,
		log:      log,
	}
}

func (g *Generator) answerMessages(contextText, historyText, query string) []llm.Message {
	if historyText == "" {
		historyText = "없음"
	}
	return []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.AnswerSystemPrompt},
		{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf(constant.AnswerUserPrompt, contextText, historyText, query)},
	}
}

// Answer generates the counseling reply. The second return value reports
// whether the model asked for an expert referral; the tag itself never
// reaches the user.
func (g *Generator) Answer(ctx context.Context, contextText, historyText, query string) (string, bool, error) {
	raw, err := g.provider.Chat(ctx, g.answerMessages(contextText, historyText, query))
	if err != nil {
		return "", false, fmt.Errorf("generate answer: %w", err)
	}

	answer, referral := StripReferralTag(raw)
	return ScrubSpecialTokens(answer), referral, nil
}

// AnswerStream is the streaming variant. Chunks are scrubbed and the
// referral tag is withheld from the stream; the flag is reported after the
// provider finishes.
func (g *Generator) AnswerStream(ctx context.Context, contextText, historyText, query string, fn llm.StreamFunc) (bool, error) {
	stripper := newTagStripper(constant.ExpertReferralTag, func(chunk string) error {
		return fn(ScrubSpecialTokens(chunk))
	})

	err := g.provider.ChatStream(ctx, g.answerMessages(contextText, historyText, query), stripper.feed)
	if err != nil {
		return false, fmt.Errorf("stream answer: %w", err)
	}
	if err := stripper.flush(); err != nil {
		return false, err
	}
	return stripper.found, nil
}

// Summarize produces the closing recap from the rendered conversation.
func (g *Generator) Summarize(ctx context.Context, conversation string) (string, error) {
	raw, err := g.provider.Generate(ctx, fmt.Sprintf(constant.SummarySystemPrompt, conversation))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return ScrubSpecialTokens(strings.TrimSpace(raw)), nil
}

// StripReferralTag removes the expert-referral marker and reports whether
// it was present.
func StripReferralTag(answer string) (string, bool) {
	if !strings.Contains(answer, constant.ExpertReferralTag) {
		return strings.TrimSpace(answer), false
	}
	cleaned := strings.ReplaceAll(answer, constant.ExpertReferralTag, "")
	return strings.TrimSpace(cleaned), true
}

// ScrubSpecialTokens drops special-token artifacts from generated text.
func ScrubSpecialTokens(s string) string {
	return specialTokenPattern.ReplaceAllString(s, "")
}

// tagStripper buffers just enough of the stream tail to keep a partial
// referral tag from leaking to the consumer.
type tagStripper struct {
	tag   string
	emit  llm.StreamFunc
	tail  string
	found bool
}

func newTagStripper(tag string, emit llm.StreamFunc) *tagStripper {
	return &tagStripper{tag: tag, emit: emit}
}

func (t *tagStripper) feed(chunk string) error {
	buf := t.tail + chunk

	for {
		if idx := strings.Index(buf, t.tag); idx >= 0 {
			t.found = true
			buf = buf[:idx] + buf[idx+len(t.tag):]
			continue
		}
		break
	}

	// Hold back the longest suffix that could still grow into the tag.
	hold := 0
	for n := len(t.tag) - 1; n > 0; n-- {
		if n <= len(buf) && strings.HasPrefix(t.tag, buf[len(buf)-n:]) {
			hold = n
			break
		}
	}

	t.tail = buf[len(buf)-hold:]
	out := buf[:len(buf)-hold]
	if out == "" {
		return nil
	}
	return t.emit(out)
}

func (t *tagStripper) flush() error {
	if t.tail == "" {
		return nil
	}
	out := t.tail
	t.tail = ""
	return t.emit(out)
}
