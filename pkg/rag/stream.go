package rag

import (
	"context"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/pkg/rag/history"
	"counseling-rag-be/pkg/rag/intent"
	"counseling-rag-be/pkg/rag/response"
	"counseling-rag-be/pkg/rag/rewrite"
	"counseling-rag-be/pkg/retriever"
	"counseling-rag-be/pkg/store"

	"github.com/google/uuid"
)

// StreamChunk is one unit of streamed output. Exactly one of the payload
// fields is set, selected by Type.
type StreamChunk struct {
	Type    ChunkType    `json:"type"`
	Content string       `json:"content,omitempty"`
	Debug   *DebugRecord `json:"debug,omitempty"`
}

type ChunkType string

const (
	ChunkContent ChunkType = "content"
	ChunkDebug   ChunkType = "debug"
	ChunkDone    ChunkType = "done"
)

// DebugRecord is the side-channel record emitted before content when debug
// mode is on.
type DebugRecord struct {
	Intent         string           `json:"intent"`
	RewrittenQuery string           `json:"rewritten_query,omitempty"`
	Candidates     []CandidateDebug `json:"candidates,omitempty"`
}

// CandidateDebug describes one retrieval candidate and why it survived or
// was dropped.
type CandidateDebug struct {
	Content  string  `json:"content"`
	Distance float64 `json:"distance"`
	Kept     bool    `json:"kept"`
	Reason   string  `json:"reason,omitempty"`
}

// Stream processes one turn and delivers the answer incrementally. The
// routing decisions are identical to Run; only delivery differs. The
// returned channel closes when the turn is finished or ctx is cancelled.
func (p *Pipeline) Stream(ctx context.Context, sessionID uuid.UUID, query string) <-chan StreamChunk {
	out := make(chan StreamChunk, 16)

	go func() {
		defer close(out)

		if err := p.persistMessage(ctx, sessionID, constant.ChatMessageRoleUser, query); err != nil {
			p.log.Error("pipeline", "persist user message failed", map[string]interface{}{"error": err.Error()})
		}

		answer, res := p.streamTurn(ctx, sessionID, query, out)

		if err := p.persistMessage(ctx, sessionID, constant.ChatMessageRoleAssistant, answer); err != nil {
			p.log.Error("pipeline", "persist assistant message failed", map[string]interface{}{"error": err.Error()})
		}
		p.saveState(sessionID, query, res)

		emit(ctx, out, StreamChunk{Type: ChunkDone})
	}()

	return out
}

// streamTurn returns the full answer text for persistence along with the
// turn result.
func (p *Pipeline) streamTurn(ctx context.Context, sessionID uuid.UUID, query string, out chan<- StreamChunk) (string, *Result) {
	classified := p.classifier.Classify(ctx, query)
	res := &Result{Intent: classified}

	sendWhole := func(answer string) (string, *Result) {
		res.Answer = answer
		p.emitDebug(ctx, out, res, nil)
		emit(ctx, out, StreamChunk{Type: ChunkContent, Content: answer})
		return answer, res
	}

	switch classified {
	case intent.Crisis:
		res.Referral = true
		p.recordReferral(ctx, sessionID, query)
		return sendWhole(response.CrisisResponse())

	case intent.Greeting:
		return sendWhole(response.GreetingResponse())

	case intent.Chitchat:
		return sendWhole(response.ChitchatResponse())

	case intent.Closing:
		answer, err := p.summarizeSession(ctx, sessionID, query)
		if err != nil {
			p.log.Error("pipeline", "session summary failed", map[string]interface{}{"error": err.Error()})
			answer = constant.GenericApology
		}
		return sendWhole(answer)
	}

	msgs, err := p.loader.Load(ctx, sessionID, p.cfg.HistoryLimit)
	if err != nil {
		p.log.Error("pipeline", "history load failed", map[string]interface{}{"error": err.Error()})
		return sendWhole(constant.GenericApology)
	}
	msgs = history.DropCurrentTurn(msgs, query)
	historyText := history.FormatText(msgs)

	rewriteHistory := history.FormatText(history.Tail(msgs, rewrite.MaxHistoryTurns))
	res.RewrittenQuery = p.rewriter.Rewrite(ctx, query, rewriteHistory)

	results, err := p.ranker.Retrieve(ctx, res.RewrittenQuery)
	if err != nil {
		p.log.Error("pipeline", "retrieval failed", map[string]interface{}{"error": err.Error()})
		return sendWhole(constant.GenericApology)
	}
	res.Sources = results

	kept := retriever.ApplyThreshold(results, p.cfg.StreamThreshold)
	p.emitDebug(ctx, out, res, candidateDebug(results, p.cfg.StreamThreshold))

	contextText := response.FormatSources(kept)

	var full []rune
	referral, err := p.generator.AnswerStream(ctx, contextText, historyText, res.RewrittenQuery, func(chunk string) error {
		full = append(full, []rune(chunk)...)
		emit(ctx, out, StreamChunk{Type: ChunkContent, Content: chunk})
		return ctx.Err()
	})
	if err != nil {
		p.log.Error("pipeline", "streamed answer failed", map[string]interface{}{"error": err.Error()})
		if len(full) == 0 {
			res.Answer = constant.GenericApology
			emit(ctx, out, StreamChunk{Type: ChunkContent, Content: res.Answer})
			return res.Answer, res
		}
	}

	res.Answer = string(full)
	res.Referral = referral
	if referral {
		p.recordReferral(ctx, sessionID, query)
	}
	return res.Answer, res
}

func (p *Pipeline) emitDebug(ctx context.Context, out chan<- StreamChunk, res *Result, candidates []CandidateDebug) {
	if !p.cfg.Debug {
		return
	}
	emit(ctx, out, StreamChunk{
		Type: ChunkDebug,
		Debug: &DebugRecord{
			Intent:         string(res.Intent),
			RewrittenQuery: res.RewrittenQuery,
			Candidates:     candidates,
		},
	})
}

func candidateDebug(results []store.RankedResult, threshold float64) []CandidateDebug {
	debug := make([]CandidateDebug, len(results))
	for i, res := range results {
		d := CandidateDebug{
			Content:  truncate(res.Content, 60),
			Distance: res.Distance,
			Kept:     res.Distance <= threshold,
		}
		if !d.Kept {
			d.Reason = "distance above threshold"
		}
		debug[i] = d
	}
	return debug
}

// emit drops the chunk when the consumer is gone.
func emit(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) {
	select {
	case out <- chunk:
	case <-ctx.Done():
	}
}
