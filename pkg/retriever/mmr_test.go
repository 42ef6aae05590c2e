package retriever

import (
	"testing"

	"counseling-rag-be/pkg/store"
)

func TestSelectMMRHandCheck(t *testing.T) {
	// Hand-computed with lambda=0.4:
	// pick 1: 0.10 (closest)
	// pick 2: 0.50 (0.4*-0.50 + 0.6*0.40 = 0.04 beats the others)
	// pick 3: 0.30 (0.4*-0.30 + 0.6*0.20 = 0.00 beats 0.12's -0.036)
	pool := []store.RankedResult{
		{Content: "a", Distance: 0.10},
		{Content: "b", Distance: 0.12},
		{Content: "c", Distance: 0.30},
		{Content: "d", Distance: 0.50},
	}

	selected := selectMMR(pool, 3, 0.4)
	if len(selected) != 3 {
		t.Fatalf("got %d selections, want 3", len(selected))
	}

	got := map[string]bool{}
	for _, s := range selected {
		got[s.Content] = true
	}
	for _, want := range []string{"a", "c", "d"} {
		if !got[want] {
			t.Errorf("expected %q in selection, got %v", want, selected)
		}
	}
	if got["b"] {
		t.Error("near-duplicate b should lose to more diverse candidates")
	}
}

func TestSelectMMRFirstPickIsClosest(t *testing.T) {
	pool := []store.RankedResult{
		{Content: "far", Distance: 0.80},
		{Content: "near", Distance: 0.05},
		{Content: "mid", Distance: 0.40},
	}
	selected := selectMMR(pool, 1, 0.4)
	if len(selected) != 1 || selected[0].Content != "near" {
		t.Errorf("first pick = %v, want the closest candidate", selected)
	}
}

func TestSelectMMRSmallPool(t *testing.T) {
	pool := []store.RankedResult{{Content: "only", Distance: 0.2}}
	selected := selectMMR(pool, 5, 0.4)
	if len(selected) != 1 {
		t.Errorf("got %d selections from pool of 1, want 1", len(selected))
	}
	if len(selectMMR(nil, 5, 0.4)) != 0 {
		t.Error("empty pool must select nothing")
	}
}
