package retriever

import "counseling-rag-be/pkg/store"

// ApplyThreshold keeps results whose distance is at or below the threshold.
// The boundary is inclusive: a result exactly at the threshold survives.
func ApplyThreshold(results []store.RankedResult, threshold float64) []store.RankedResult {
	kept := make([]store.RankedResult, 0, len(results))
	for _, res := range results {
		if res.Distance <= threshold {
			kept = append(kept, res)
		}
	}
	return kept
}
