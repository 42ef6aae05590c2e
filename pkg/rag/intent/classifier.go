package intent

import (
	"context"
	"fmt"
	"strings"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/internal/pkg/logger"
	"counseling-rag-be/pkg/llm"
)

// Intent is the routing decision for one user utterance.
type Intent string

const (
	Greeting Intent = "GREETING"
	Chitchat Intent = "CHITCHAT"
	Emotion  Intent = "EMOTION"
	Question Intent = "QUESTION"
	Crisis   Intent = "CRISIS"
	Closing  Intent = "CLOSING"
)

// NeedsRAG reports whether the intent goes through retrieval.
func (i Intent) NeedsRAG() bool {
	return i == Emotion || i == Question
}

// Crisis keywords win over everything else. Greeting only fires on short
// utterances so "안녕이라고 말할 기운도 없어" does not misroute.
var (
	crisisKeywords   = []string{"죽고", "자살", "자해", "끝내고", "죽을", "안 살고", "살기 싫"}
	greetingPatterns = []string{"안녕", "반가", "하이", "헬로", "좋은 아침", "좋은 저녁"}
	emotionKeywords  = []string{
		"힘들", "우울", "불안", "슬프", "외롭", "짜증", "화나", "스트레스",
		"무기력", "지쳤", "피곤", "걱정", "두렵", "무섭",
	}
)

// Classifier routes utterances with a keyword fast path and an LLM fallback.
type Classifier struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewClassifier(provider llm.LLMProvider, log logger.ILogger) *Classifier {
	return &Classifier{
		provider: provider,
		log:      log,
	}
}

// Classify never fails: when both paths come up empty the utterance is
// treated as Emotion, the safe choice in a counseling context.
func (c *Classifier) Classify(ctx context.Context, query string) Intent {
	if quick, ok := QuickClassify(query); ok {
		c.log.Debug("intent", "quick classify", map[string]interface{}{"intent": string(quick)})
		return quick
	}

	result, err := c.provider.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.IntentClassificationSystemPrompt},
		{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf(constant.IntentClassificationUserPrompt, query)},
	}, llm.WithTemperature(0))
	if err != nil {
		c.log.Warn("intent", "classification failed, defaulting to EMOTION", map[string]interface{}{"error": err.Error()})
		return Emotion
	}

	normalized := strings.ToUpper(strings.TrimSpace(result))
	for _, intent := range []Intent{Greeting, Chitchat, Emotion, Question, Crisis, Closing} {
		if strings.Contains(normalized, string(intent)) {
			c.log.Debug("intent", "llm classify", map[string]interface{}{"intent": string(intent)})
			return intent
		}
	}

	c.log.Debug("intent", "unparseable classification, defaulting to EMOTION", map[string]interface{}{"raw": result})
	return Emotion
}

// QuickClassify is the keyword fast path. The second return value is false
// when the utterance needs the LLM.
func QuickClassify(query string) (Intent, bool) {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, kw := range crisisKeywords {
		if strings.Contains(q, kw) {
			return Crisis, true
		}
	}

	if len([]rune(q)) <= 10 {
		for _, pat := range greetingPatterns {
			if strings.Contains(q, pat) {
				return Greeting, true
			}
		}
	}

	for _, kw := range emotionKeywords {
		if strings.Contains(q, kw) {
			return Emotion, true
		}
	}

	return "", false
}
