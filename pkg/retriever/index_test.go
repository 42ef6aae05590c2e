package retriever

import (
	"errors"
	"testing"

	"counseling-rag-be/pkg/store"
)

func testCorpus() []store.Document {
	return []store.Document{
		{
			ID:      "d0",
			Content: "불안해서 잠이 안 와요 밤마다 심장이 뛰어요",
			Meta:    store.Metadata{SessionID: "s1", TurnIndex: 0, HasTurn: true, Category: "불안", Speaker: "내담자", Severity: 2},
		},
		{
			ID:      "d1",
			Content: "수면 위생을 지키고 자기 전 호흡 이완을 해보세요",
			Meta:    store.Metadata{SessionID: "s1", TurnIndex: 1, HasTurn: true, Category: "불안", Speaker: "상담사", CounselorResponse: "호흡 이완 훈련 안내"},
		},
		{
			ID:      "d2",
			Content: "회사에서 스트레스를 받아서 우울해요",
			Meta:    store.Metadata{SessionID: "s2", TurnIndex: 0, HasTurn: true, Category: "우울", Speaker: "내담자", Severity: 3},
		},
		{
			ID:      "d3",
			Content: "우울할 때는 작은 산책부터 시작해 보는 것도 좋아요",
			Meta:    store.Metadata{Category: "우울", Speaker: "상담사"},
		},
	}
}

func TestBuildIndexEmptyCorpus(t *testing.T) {
	_, err := BuildIndex(nil)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("BuildIndex(nil) error = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildIndexStats(t *testing.T) {
	idx, err := BuildIndex(testCorpus())
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	if idx.Size() != 4 {
		t.Errorf("Size() = %d, want 4", idx.Size())
	}
	if idx.avgdl <= 0 {
		t.Errorf("avgdl = %f, want > 0", idx.avgdl)
	}
	if got := idx.df["불안해서"]; got != 1 {
		t.Errorf("df[불안해서] = %d, want 1", got)
	}
}
