package retriever

import (
	"context"
	"testing"

	"counseling-rag-be/internal/entity"
	"counseling-rag-be/internal/repository/contract"
	"counseling-rag-be/internal/repository/specification"
	"counseling-rag-be/pkg/embedding"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}},
	}, nil
}

// fakeTranscriptRepo serves a fixed corpus keyed by (session, turn).
type fakeTranscriptRepo struct {
	seeds     []*contract.ScoredTranscript
	turns     map[string]map[int]*contract.ScoredTranscript
	turnCalls int
}

var _ contract.TranscriptRepository = &fakeTranscriptRepo{}

func (f *fakeTranscriptRepo) Create(ctx context.Context, t *entity.Transcript) error { return nil }
func (f *fakeTranscriptRepo) CreateBulk(ctx context.Context, ts []*entity.Transcript) error {
	return nil
}
func (f *fakeTranscriptRepo) CreateIfAbsent(ctx context.Context, t *entity.Transcript) (bool, error) {
	return false, nil
}
func (f *fakeTranscriptRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transcript, error) {
	return nil, nil
}
func (f *fakeTranscriptRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transcript, error) {
	return nil, nil
}
func (f *fakeTranscriptRepo) FindBySessionTurn(ctx context.Context, sessionID string, turnIndex int) (*entity.Transcript, error) {
	if hit := f.lookup(sessionID, turnIndex); hit != nil {
		return hit.Transcript, nil
	}
	return nil, nil
}
func (f *fakeTranscriptRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeTranscriptRepo) ScanAll(ctx context.Context) ([]*entity.Transcript, error) {
	return nil, nil
}
func (f *fakeTranscriptRepo) SearchSimilarWithDistance(ctx context.Context, emb []float32, limit int, specs ...specification.Specification) ([]*contract.ScoredTranscript, error) {
	if limit > len(f.seeds) {
		limit = len(f.seeds)
	}
	return f.seeds[:limit], nil
}
func (f *fakeTranscriptRepo) DistanceToQuery(ctx context.Context, emb []float32, sessionID string, turnIndex int) (*contract.ScoredTranscript, error) {
	f.turnCalls++
	return f.lookup(sessionID, turnIndex), nil
}

func (f *fakeTranscriptRepo) lookup(sessionID string, turnIndex int) *contract.ScoredTranscript {
	if m, ok := f.turns[sessionID]; ok {
		return m[turnIndex]
	}
	return nil
}

func turn(session string, idx int, content string, distance float64) *contract.ScoredTranscript {
	return &contract.ScoredTranscript{
		Transcript: &entity.Transcript{
			Content:   content,
			SessionID: session,
			TurnIndex: idx,
			HasTurn:   true,
		},
		Distance: distance,
	}
}

func newFakeRepo() *fakeTranscriptRepo {
	s1 := map[int]*contract.ScoredTranscript{
		0: turn("s1", 0, "s1 turn 0", 0.30),
		1: turn("s1", 1, "s1 turn 1", 0.10),
		2: turn("s1", 2, "s1 turn 2", 0.35),
	}
	s2 := map[int]*contract.ScoredTranscript{
		4: turn("s2", 4, "s2 turn 4", 0.20),
		5: turn("s2", 5, "s2 turn 5", 0.50),
	}
	return &fakeTranscriptRepo{
		seeds: []*contract.ScoredTranscript{s1[1], s2[4]},
		turns: map[string]map[int]*contract.ScoredTranscript{"s1": s1, "s2": s2},
	}
}

func TestContextualExpandsBestSession(t *testing.T) {
	repo := newFakeRepo()
	r := NewContextualRetriever(repo, fakeEmbedder{}, Config{TopK: 5, SeedK: 3, Window: 1, UseBestSessionOnly: true}, Filter{}, nopLogger{})

	results, err := r.Retrieve(context.Background(), "잠이 안 와요")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	// Best seed is (s1,1); expansion stays inside s1 and covers turns 0..2.
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3: %v", len(results), results)
	}
	for i, res := range results {
		if res.Meta.SessionID != "s1" {
			t.Errorf("result %d leaked session %q", i, res.Meta.SessionID)
		}
		if res.Meta.TurnIndex != i {
			t.Errorf("result %d turn = %d, want reading order", i, res.Meta.TurnIndex)
		}
	}
}

func TestContextualAllSessions(t *testing.T) {
	repo := newFakeRepo()
	r := NewContextualRetriever(repo, fakeEmbedder{}, Config{TopK: 10, SeedK: 3, Window: 1, UseBestSessionOnly: false}, Filter{}, nopLogger{})

	results, err := r.Retrieve(context.Background(), "잠이 안 와요")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	sessions := map[string]bool{}
	for _, res := range results {
		sessions[res.Meta.SessionID] = true
	}
	if !sessions["s1"] || !sessions["s2"] {
		t.Errorf("expected both sessions expanded, got %v", results)
	}
}

func TestContextualClampsAtZeroAndSkipsGaps(t *testing.T) {
	repo := newFakeRepo()
	// Seed at (s2,4): window touches turn 3 which does not exist and turn 5
	// which does. Turn counts below zero are never requested.
	repo.seeds = []*contract.ScoredTranscript{repo.turns["s2"][4]}

	r := NewContextualRetriever(repo, fakeEmbedder{}, Config{TopK: 5, SeedK: 1, Window: 1, UseBestSessionOnly: true}, Filter{}, nopLogger{})
	results, err := r.Retrieve(context.Background(), "잠이 안 와요")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (missing turn skipped): %v", len(results), results)
	}
	if results[0].Meta.TurnIndex != 4 || results[1].Meta.TurnIndex != 5 {
		t.Errorf("unexpected turns: %v", results)
	}
}

func TestContextualFallsBackToSeedsWithoutTurnKey(t *testing.T) {
	repo := newFakeRepo()
	repo.seeds = []*contract.ScoredTranscript{
		{
			Transcript: &entity.Transcript{Content: "closest, no join key", Category: "우울"},
			Distance:   0.15,
		},
		{
			Transcript: &entity.Transcript{Content: "further, no join key", Category: "우울"},
			Distance:   0.45,
		},
	}

	r := NewContextualRetriever(repo, fakeEmbedder{}, Config{TopK: 5, SeedK: 2, Window: 1, UseBestSessionOnly: true}, Filter{}, nopLogger{})
	results, err := r.Retrieve(context.Background(), "우울해요")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	// Only the closest raw seed survives when no seed can anchor a window.
	if len(results) != 1 || results[0].Content != "closest, no join key" {
		t.Errorf("expected the single best seed, got %v", results)
	}
	if repo.turnCalls != 0 {
		t.Errorf("expansion ran %d turn lookups for unanchored seeds", repo.turnCalls)
	}
}

func TestContextualProximityTruncation(t *testing.T) {
	repo := newFakeRepo()
	for i := 0; i <= 6; i++ {
		repo.turns["s1"][i] = turn("s1", i, "filler", 0.40)
	}
	repo.turns["s1"][3] = turn("s1", 3, "best", 0.05)
	repo.seeds = []*contract.ScoredTranscript{
		repo.turns["s1"][3],
		repo.turns["s1"][0],
		repo.turns["s1"][6],
	}

	r := NewContextualRetriever(repo, fakeEmbedder{}, Config{TopK: 3, SeedK: 3, Window: 1, UseBestSessionOnly: true}, Filter{}, nopLogger{})
	results, err := r.Retrieve(context.Background(), "잠이 안 와요")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want topK=3", len(results))
	}
	// Truncation keeps the turns nearest the best seed (turn 3), back in
	// ascending turn order.
	want := []int{2, 3, 4}
	for i, res := range results {
		if res.Meta.TurnIndex != want[i] {
			t.Errorf("result %d turn = %d, want %d", i, res.Meta.TurnIndex, want[i])
		}
	}
}
