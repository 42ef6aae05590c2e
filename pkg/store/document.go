package store

// Metadata carries the transcript fields the retrieval layer reads.
// Keys the core never touches survive round trips in Extra.
type Metadata struct {
	SessionID         string         `json:"session_id"`
	TurnIndex         int            `json:"turn_index"`
	HasTurn           bool           `json:"has_turn"`
	Category          string         `json:"category"`
	Speaker           string         `json:"speaker"`
	CounselorResponse string         `json:"counselor_response,omitempty"`
	Severity          int            `json:"severity"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// HasSessionTurn reports whether this metadata carries the join key
// used for contextual window expansion.
func (m Metadata) HasSessionTurn() bool {
	return m.SessionID != "" && m.HasTurn
}

// Document is one retrievable counseling turn. Read-only after ingestion.
type Document struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Meta    Metadata `json:"metadata"`
}

// RankedResult is the uniform output of every ranker.
//
// Distance is a normalized ascending distance in [0,1]; lower = more
// relevant. Lexical rankers convert their native scores into this
// convention (BM25: 1 - score/maxScore over the returned top-k, TF-IDF:
// 1 - cosine similarity) so consumers never have to guess which field
// is populated. Score keeps the raw lexical score for diagnostics.
type RankedResult struct {
	Content  string   `json:"content"`
	Meta     Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
	Score    float64  `json:"score,omitempty"`
}
