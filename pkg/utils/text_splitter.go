package utils

// ChunkText splits an overlong transcript into rune-based chunks with a
// fixed overlap so context at a boundary survives in both neighbors.
// Embedding models truncate silently past their context window, so long
// counseling turns are chunked before ingestion.
func ChunkText(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
