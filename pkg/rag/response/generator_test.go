package response

import (
	"context"
	"strings"
	"testing"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/pkg/llm"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// chunkProvider streams a fixed answer in caller-chosen chunk sizes.
type chunkProvider struct {
	answer string
	chunks []string
}

func (c *chunkProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return c.answer, nil
}
func (c *chunkProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return c.answer, nil
}
func (c *chunkProvider) ChatStream(ctx context.Context, history []llm.Message, fn llm.StreamFunc, opts ...llm.Option) error {
	for _, chunk := range c.chunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

func TestStripReferralTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		referral bool
	}{
		{"no tag", "괜찮아질 거예요.", "괜찮아질 거예요.", false},
		{"tag at end", "전문가와 상담을 권해드려요. " + constant.ExpertReferralTag, "전문가와 상담을 권해드려요.", true},
		{"tag mid-answer", "답변 " + constant.ExpertReferralTag + " 계속", "답변  계속", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, referral := StripReferralTag(tt.input)
			if got != tt.want || referral != tt.referral {
				t.Errorf("StripReferralTag(%q) = (%q, %v), want (%q, %v)", tt.input, got, referral, tt.want, tt.referral)
			}
		})
	}
}

func TestScrubSpecialTokens(t *testing.T) {
	input := "마음이 힘드셨겠어요.<|eot_id|> 오늘은<|start_header_id|> 어땠나요?"
	want := "마음이 힘드셨겠어요. 오늘은 어땠나요?"
	if got := ScrubSpecialTokens(input); got != want {
		t.Errorf("ScrubSpecialTokens = %q, want %q", got, want)
	}
}

func TestAnswerStripsTagAndReports(t *testing.T) {
	g := NewGenerator(&chunkProvider{answer: "상담을 권해드려요. " + constant.ExpertReferralTag}, nopLogger{})

	answer, referral, err := g.Answer(context.Background(), "ctx", "없음", "힘들어요")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !referral {
		t.Error("referral flag not reported")
	}
	if strings.Contains(answer, constant.ExpertReferralTag) {
		t.Errorf("tag leaked into answer: %q", answer)
	}
}

func TestAnswerStreamWithholdsSplitTag(t *testing.T) {
	// The tag arrives split across chunks; no fragment may reach the consumer.
	tag := constant.ExpertReferralTag
	provider := &chunkProvider{chunks: []string{
		"괜찮아요. ",
		tag[:7],
		tag[7:],
	}}
	g := NewGenerator(provider, nopLogger{})

	var streamed strings.Builder
	referral, err := g.AnswerStream(context.Background(), "ctx", "없음", "힘들어요", func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("AnswerStream failed: %v", err)
	}
	if !referral {
		t.Error("referral flag not reported for split tag")
	}
	if got := streamed.String(); strings.Contains(got, "[") || strings.Contains(got, "EXPERT") {
		t.Errorf("tag fragment leaked: %q", got)
	}
	if streamed.String() != "괜찮아요. " {
		t.Errorf("streamed = %q, want clean prefix only", streamed.String())
	}
}

func TestAnswerStreamPlainText(t *testing.T) {
	provider := &chunkProvider{chunks: []string{"마음이 ", "많이 ", "힘드셨겠어요."}}
	g := NewGenerator(provider, nopLogger{})

	var streamed strings.Builder
	referral, err := g.AnswerStream(context.Background(), "ctx", "없음", "힘들어요", func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("AnswerStream failed: %v", err)
	}
	if referral {
		t.Error("spurious referral flag")
	}
	if streamed.String() != "마음이 많이 힘드셨겠어요." {
		t.Errorf("streamed = %q", streamed.String())
	}
}
