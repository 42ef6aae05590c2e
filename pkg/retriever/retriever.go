package retriever

import (
	"context"
	"errors"

	"counseling-rag-be/internal/repository/specification"
	"counseling-rag-be/pkg/store"
)

// ErrEmptyCorpus is returned when an index build finds no documents.
var ErrEmptyCorpus = errors.New("retriever: empty corpus")

// Retriever ranks corpus documents against a query. Every implementation
// returns results ordered by ascending Distance.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]store.RankedResult, error)
}

// Filter narrows the candidate set by transcript metadata. The zero value
// matches everything.
type Filter struct {
	Category    string
	Speaker     string
	MinSeverity int
}

// Match reports whether a document passes the filter. Used by the in-memory
// lexical rankers; the vector rankers push the same conditions into SQL.
func (f Filter) Match(m store.Metadata) bool {
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if f.Speaker != "" && m.Speaker != f.Speaker {
		return false
	}
	if f.MinSeverity > 0 && m.Severity < f.MinSeverity {
		return false
	}
	return true
}

// Specifications translates the filter into repository query specifications.
func (f Filter) Specifications() []specification.Specification {
	var specs []specification.Specification
	if f.Category != "" {
		specs = append(specs, specification.ByCategory{Category: f.Category})
	}
	if f.Speaker != "" {
		specs = append(specs, specification.BySpeaker{Speaker: f.Speaker})
	}
	if f.MinSeverity > 0 {
		specs = append(specs, specification.MinSeverity{Severity: f.MinSeverity})
	}
	return specs
}

// Config bundles the tuning knobs shared by the rankers.
type Config struct {
	TopK               int
	SeedK              int
	Window             int
	FetchK             int
	LambdaMult         float64
	UseBestSessionOnly bool
}

func DefaultConfig() Config {
	return Config{
		TopK:               5,
		SeedK:              3,
		Window:             1,
		FetchK:             40,
		LambdaMult:         0.4,
		UseBestSessionOnly: true,
	}
}
