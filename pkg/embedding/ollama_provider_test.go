package embedding

import (
	"math"
	"testing"
)

func TestTaskPrefix(t *testing.T) {
	tests := []struct {
		taskType string
		want     string
	}{
		{"retrieval_query", "search_query: "},
		{"retrieval_document", "search_document: "},
		{"", ""},
		{"clustering", ""},
	}

	for _, tt := range tests {
		if got := taskPrefix(tt.taskType); got != tt.want {
			t.Errorf("taskPrefix(%q) = %q, want %q", tt.taskType, got, tt.want)
		}
	}
}

func TestNormalizeVector(t *testing.T) {
	got := normalizeVector([]float32{3, 4})
	var norm float64
	for _, v := range got {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("squared norm = %f, want 1", norm)
	}

	zero := normalizeVector([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
