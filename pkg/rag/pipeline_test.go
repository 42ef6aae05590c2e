package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/repository/memory"
	"counseling-rag-be/internal/repository/specification"
	"counseling-rag-be/pkg/llm"
	"counseling-rag-be/pkg/rag/intent"
	"counseling-rag-be/pkg/rag/response"
	"counseling-rag-be/pkg/store"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// scriptedProvider replays canned replies in call order so a single test
// can hand the rewriter and the generator different answers. It records
// the message history of every Chat call for prompt assertions.
type scriptedProvider struct {
	replies []string
	err     error
	calls   int
	chats   [][]llm.Message
}

func (s *scriptedProvider) next() string {
	if s.calls >= len(s.replies) {
		return ""
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply
}

func (s *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.chats = append(s.chats, history)
	return s.next(), s.err
}
func (s *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.next(), s.err
}
func (s *scriptedProvider) ChatStream(ctx context.Context, history []llm.Message, fn llm.StreamFunc, opts ...llm.Option) error {
	if s.err != nil {
		return s.err
	}
	return fn(s.next())
}

// fakeMessageRepo serves FindHistory from what was Created, like the real
// repository does.
type fakeMessageRepo struct {
	created []*entity.ChatMessage
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	f.created = append(f.created, message)
	return nil
}
func (f *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}
func (f *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	return nil, nil
}
func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return f.created, nil
}
func (f *fakeMessageRepo) FindHistory(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	var msgs []*entity.ChatMessage
	for _, m := range f.created {
		if m.ChatSessionId == sessionId {
			msgs = append(msgs, m)
		}
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}
func (f *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeMessageRepo) seed(sessionID uuid.UUID, role, content string) {
	f.created = append(f.created, &entity.ChatMessage{
		Content:       content,
		Role:          role,
		ChatSessionId: sessionID,
	})
}

type fakeReferralRepo struct {
	created []*entity.ExpertReferral
}

func (f *fakeReferralRepo) Create(ctx context.Context, referral *entity.ExpertReferral) error {
	f.created = append(f.created, referral)
	return nil
}
func (f *fakeReferralRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExpertReferral, error) {
	return f.created, nil
}
func (f *fakeReferralRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.created)), nil
}

type stubRetriever struct {
	results []store.RankedResult
	err     error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string) ([]store.RankedResult, error) {
	return s.results, s.err
}

type pipelineFixture struct {
	pipeline  *Pipeline
	provider  *scriptedProvider
	messages  *fakeMessageRepo
	referrals *fakeReferralRepo
}

func newFixture(provider *scriptedProvider, ranker *stubRetriever) *pipelineFixture {
	messages := &fakeMessageRepo{}
	referrals := &fakeReferralRepo{}
	p := NewPipeline(
		provider,
		ranker,
		messages,
		referrals,
		memory.NewSessionRepository(),
		DefaultConfig(),
		nopLogger{},
		nopLogger{},
	)
	return &pipelineFixture{pipeline: p, provider: provider, messages: messages, referrals: referrals}
}

func TestRunCrisisRecordsOneReferral(t *testing.T) {
	f := newFixture(&scriptedProvider{}, &stubRetriever{})
	sessionID := uuid.New()

	res, err := f.pipeline.Run(context.Background(), sessionID, "죽고 싶어")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Intent != intent.Crisis {
		t.Errorf("intent = %v, want Crisis", res.Intent)
	}
	if res.Answer != response.CrisisResponse() {
		t.Errorf("answer = %q, want crisis response", res.Answer)
	}
	if !res.Referral {
		t.Error("referral flag not set")
	}
	if len(f.referrals.created) != 1 {
		t.Fatalf("referrals recorded = %d, want exactly 1", len(f.referrals.created))
	}
	if got := f.referrals.created[0]; got.ChatSessionId != sessionID || got.Query != "죽고 싶어" {
		t.Errorf("referral record = %+v", got)
	}
	if f.provider.calls != 0 {
		t.Errorf("crisis turn called the LLM %d times", f.provider.calls)
	}
}

func TestRunPersistsBothMessages(t *testing.T) {
	f := newFixture(&scriptedProvider{}, &stubRetriever{})
	sessionID := uuid.New()

	res, err := f.pipeline.Run(context.Background(), sessionID, "안녕")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Intent != intent.Greeting {
		t.Errorf("intent = %v, want Greeting", res.Intent)
	}
	if len(f.messages.created) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(f.messages.created))
	}
	if f.messages.created[0].Role != constant.ChatMessageRoleUser || f.messages.created[0].Content != "안녕" {
		t.Errorf("first persisted message = %+v, want the user turn", f.messages.created[0])
	}
	if f.messages.created[1].Role != constant.ChatMessageRoleAssistant || f.messages.created[1].Content != res.Answer {
		t.Errorf("second persisted message = %+v, want the assistant turn", f.messages.created[1])
	}
}

func TestRunLowSimilarityDeclines(t *testing.T) {
	ranker := &stubRetriever{results: []store.RankedResult{
		{Content: "먼 사례", Distance: 0.80},
	}}
	f := newFixture(&scriptedProvider{replies: []string{"힘들어"}}, ranker)

	res, err := f.pipeline.Run(context.Background(), uuid.New(), "요즘 너무 힘들어")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Answer != response.LowSimilarityResponse() {
		t.Errorf("answer = %q, want the low-similarity refusal", res.Answer)
	}
	// Only the rewrite reached the LLM; no answer was generated.
	if f.provider.calls != 1 {
		t.Errorf("LLM calls = %d, want 1", f.provider.calls)
	}
	if len(f.referrals.created) != 0 {
		t.Errorf("refusal still recorded %d referrals", len(f.referrals.created))
	}
}

func TestRunEmptyRetrievalDeclines(t *testing.T) {
	f := newFixture(&scriptedProvider{replies: []string{"힘들어"}}, &stubRetriever{})

	res, err := f.pipeline.Run(context.Background(), uuid.New(), "요즘 너무 힘들어")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Answer != response.LowSimilarityResponse() {
		t.Errorf("answer = %q, want the low-similarity refusal", res.Answer)
	}
}

func TestRunAnswerWithReferralTag(t *testing.T) {
	ranker := &stubRetriever{results: []store.RankedResult{
		{Content: "불안해서 잠이 안 와요", Meta: store.Metadata{Category: "불안"}, Distance: 0.20},
	}}
	f := newFixture(&scriptedProvider{replies: []string{
		"불안 대처",
		"전문가 상담을 권해드려요. " + constant.ExpertReferralTag,
	}}, ranker)
	sessionID := uuid.New()

	res, err := f.pipeline.Run(context.Background(), sessionID, "불안해서 잠이 안 와")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.RewrittenQuery != "불안 대처" {
		t.Errorf("rewritten query = %q", res.RewrittenQuery)
	}
	if res.Answer != "전문가 상담을 권해드려요." {
		t.Errorf("answer = %q, want the tag stripped", res.Answer)
	}
	if !res.Referral {
		t.Error("referral flag not set")
	}
	if len(f.referrals.created) != 1 {
		t.Fatalf("referrals recorded = %d, want 1", len(f.referrals.created))
	}
	if len(res.Sources) != 1 {
		t.Errorf("sources = %d, want 1", len(res.Sources))
	}
}

func TestRunRewriteHistoryExcludesCurrentTurn(t *testing.T) {
	f := newFixture(&scriptedProvider{replies: []string{"우울증 정보"}}, &stubRetriever{})
	sessionID := uuid.New()
	f.messages.seed(sessionID, constant.ChatMessageRoleUser, "우울증이 뭐야?")
	f.messages.seed(sessionID, constant.ChatMessageRoleAssistant, "우울증은 지속적인 우울감이 특징이에요.")

	if _, err := f.pipeline.Run(context.Background(), sessionID, "요즘 너무 힘들어"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.provider.chats) != 1 {
		t.Fatalf("LLM chats = %d, want the rewrite call only", len(f.provider.chats))
	}
	prompt := f.provider.chats[0][1].Content
	if !strings.Contains(prompt, "내담자: 우울증이 뭐야?") {
		t.Errorf("rewrite prompt lost the earlier turn:\n%s", prompt)
	}
	// The utterance being processed was persisted before history loading;
	// it belongs in the last-utterance slot only, never in the history.
	if strings.Contains(prompt, "내담자: 요즘 너무 힘들어") {
		t.Errorf("rewrite prompt repeats the current turn as history:\n%s", prompt)
	}
}

func TestRunRewriteHistoryCapped(t *testing.T) {
	ranker := &stubRetriever{results: []store.RankedResult{
		{Content: "가까운 사례", Distance: 0.20},
	}}
	f := newFixture(&scriptedProvider{replies: []string{"재작성 쿼리", "괜찮아요."}}, ranker)
	sessionID := uuid.New()
	for i := 1; i <= 10; i++ {
		f.messages.seed(sessionID, constant.ChatMessageRoleUser, fmt.Sprintf("이전 발화 %02d", i))
	}

	if _, err := f.pipeline.Run(context.Background(), sessionID, "요즘 너무 힘들어"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.provider.chats) != 2 {
		t.Fatalf("LLM chats = %d, want rewrite and answer", len(f.provider.chats))
	}

	// Rewriting only sees the most recent turns.
	rewritePrompt := f.provider.chats[0][1].Content
	if strings.Contains(rewritePrompt, "이전 발화 04") {
		t.Errorf("rewrite prompt carries history past the cap:\n%s", rewritePrompt)
	}
	if !strings.Contains(rewritePrompt, "이전 발화 05") || !strings.Contains(rewritePrompt, "이전 발화 10") {
		t.Errorf("rewrite prompt missing recent turns:\n%s", rewritePrompt)
	}

	// The answer prompt keeps the full loaded history.
	answerPrompt := f.provider.chats[1][1].Content
	if !strings.Contains(answerPrompt, "이전 발화 01") {
		t.Errorf("answer prompt lost early history:\n%s", answerPrompt)
	}
}

func TestRunRetrievalErrorApologizes(t *testing.T) {
	ranker := &stubRetriever{err: errors.New("store unavailable")}
	f := newFixture(&scriptedProvider{replies: []string{"힘들어"}}, ranker)

	res, err := f.pipeline.Run(context.Background(), uuid.New(), "요즘 너무 힘들어")
	if err != nil {
		t.Fatalf("Run must swallow processing errors, got %v", err)
	}
	if res.Answer != constant.GenericApology {
		t.Errorf("answer = %q, want the generic apology", res.Answer)
	}
	// The turn still leaves a complete message record.
	if len(f.messages.created) != 2 {
		t.Errorf("persisted %d messages, want 2", len(f.messages.created))
	}
}

func TestRunClosingWithoutHistory(t *testing.T) {
	f := newFixture(&scriptedProvider{replies: []string{"CLOSING"}}, &stubRetriever{})

	res, err := f.pipeline.Run(context.Background(), uuid.New(), "상담 종료")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Intent != intent.Closing {
		t.Fatalf("intent = %v, want Closing", res.Intent)
	}
	if res.Answer != response.EmptySummaryResponse() {
		t.Errorf("answer = %q, want the empty-summary message", res.Answer)
	}
}

func TestRunTracksSessionState(t *testing.T) {
	f := newFixture(&scriptedProvider{}, &stubRetriever{})
	sessionID := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := f.pipeline.Run(context.Background(), sessionID, "안녕"); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}

	state, ok := f.pipeline.sessions.Get(sessionID.String())
	if !ok {
		t.Fatal("session state missing")
	}
	if state.TurnCount != 2 {
		t.Errorf("turn count = %d, want 2", state.TurnCount)
	}
	if state.LastIntent != string(intent.Greeting) {
		t.Errorf("last intent = %q, want greeting", state.LastIntent)
	}
}

func TestStreamFiltersAndEmitsDone(t *testing.T) {
	ranker := &stubRetriever{results: []store.RankedResult{
		{Content: "가까운 사례", Meta: store.Metadata{Category: "불안"}, Distance: 0.20},
		{Content: "먼 사례", Distance: 0.55},
	}}
	provider := &scriptedProvider{replies: []string{"불안 대처", "호흡을 가다듬어 보세요."}}

	messages := &fakeMessageRepo{}
	cfg := DefaultConfig()
	cfg.Debug = true
	p := NewPipeline(provider, ranker, messages, &fakeReferralRepo{},
		memory.NewSessionRepository(), cfg, nopLogger{}, nopLogger{})

	var content string
	var debug *DebugRecord
	var done bool
	for chunk := range p.Stream(context.Background(), uuid.New(), "불안해서 잠이 안 와") {
		switch chunk.Type {
		case ChunkContent:
			content += chunk.Content
		case ChunkDebug:
			debug = chunk.Debug
		case ChunkDone:
			done = true
		}
	}

	if !done {
		t.Error("stream never emitted the done chunk")
	}
	if content != "호흡을 가다듬어 보세요." {
		t.Errorf("streamed content = %q", content)
	}
	if debug == nil {
		t.Fatal("debug chunk missing with debug enabled")
	}
	if len(debug.Candidates) != 2 {
		t.Fatalf("debug candidates = %d, want 2", len(debug.Candidates))
	}
	if !debug.Candidates[0].Kept || debug.Candidates[1].Kept {
		t.Errorf("threshold verdicts wrong: %+v", debug.Candidates)
	}
	if len(messages.created) != 2 {
		t.Errorf("persisted %d messages, want 2", len(messages.created))
	}
}
