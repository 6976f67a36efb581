package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/oracle"
)

const (
	// SearchFallbackPrefix introduces a fallback answer built from the search result.
	SearchFallbackPrefix = "based on search result:"

	// Apology is the last-resort answer when no source is usable.
	Apology = "抱歉，无法获取相关信息，请稍后重试。"

	searchFallbackRunes = 500
)

func buildSynthesisPrompt(state *WorkflowState) string {
	return fmt.Sprintf(synthesisPrompt, state.Query, state.SearchResult.Value, state.GraphResult.Value)
}

// FallbackAnswer picks the graph result, then the search result, then the
// apology. A source counts as failed when its outcome is a typed failure or
// its text carries the literal failure marker.
func FallbackAnswer(state *WorkflowState) string {
	graph := state.GraphResult
	if graph.Value != "" && !graph.Failed() && !strings.Contains(graph.Value, FailedQueryMarker) {
		return graph.Value
	}
	search := state.SearchResult
	if search.Value != "" && !search.Failed() && !strings.Contains(search.Value, FailedSearchMarker) {
		return SearchFallbackPrefix + head(search.Value, searchFallbackRunes) + "..."
	}
	return Apology
}

func synthesisRecord(answer string) StepRecord {
	return StepRecord{
		Step:        3,
		Name:        "结果融合",
		Status:      StatusCompleted,
		Description: "融合搜索结果和知识图谱结果",
		Result:      answer,
		Icon:        "🔄",
	}
}

// applyFallback records a failed synthesis and returns the fallback answer.
func applyFallback(state *WorkflowState, err error) string {
	answer := FallbackAnswer(state)
	state.FinalAnswer = Outcome{Value: answer, Kind: classify(err), Err: err}
	state.appendStep(StepRecord{
		Step:        3,
		Name:        "结果融合",
		Status:      StatusFallback,
		Description: fmt.Sprintf("融合失败，使用备选方案: %v", err),
		Result:      answer,
		Icon:        "⚠️",
	})
	return answer
}

// SynthesisStep merges both results into one answer with a single LLM call.
type SynthesisStep struct {
	llm oracle.LLM
}

// NewSynthesisStep creates a SynthesisStep.
func NewSynthesisStep(llm oracle.LLM) *SynthesisStep {
	return &SynthesisStep{llm: llm}
}

// Run stores the final answer and appends one step record.
func (s *SynthesisStep) Run(ctx context.Context, state *WorkflowState) (*WorkflowState, error) {
	log.Info("[%s] step 3: synthesis", state.ID)

	answer, err := s.llm.Complete(ctx, buildSynthesisPrompt(state))
	if err != nil {
		log.Warn("[%s] synthesis failed, using fallback: %v", state.ID, err)
		applyFallback(state, err)
		return state, nil
	}

	state.FinalAnswer = Outcome{Value: answer}
	state.appendStep(synthesisRecord(answer))
	return state, nil
}

// StreamingSynthesisStep is SynthesisStep with the answer delivered as
// answer_chunk events while it is generated, then one final_data event.
type StreamingSynthesisStep struct {
	llm  oracle.LLM
	emit func(StreamEvent)
}

// NewStreamingSynthesisStep creates a step that sends its events to emit.
func NewStreamingSynthesisStep(llm oracle.LLM, emit func(StreamEvent)) *StreamingSynthesisStep {
	return &StreamingSynthesisStep{llm: llm, emit: emit}
}

// Run streams the answer. The final answer is the concatenation of the
// emitted fragments in order. If the model fails mid-stream, fragments already
// emitted are not retracted; the final chunk then carries the fallback answer.
func (s *StreamingSynthesisStep) Run(ctx context.Context, state *WorkflowState) (*WorkflowState, error) {
	log.Info("[%s] step 3: streaming synthesis", state.ID)

	var acc strings.Builder
	_, err := s.llm.CompleteStream(ctx, buildSynthesisPrompt(state), func(ctx context.Context, chunk string) error {
		if chunk == "" {
			return nil
		}
		acc.WriteString(chunk)
		s.emit(AnswerChunkEvent(chunk, false))
		return nil
	})

	if err != nil {
		log.Warn("[%s] streaming synthesis failed after %d bytes, using fallback: %v", state.ID, acc.Len(), err)
		answer := applyFallback(state, err)
		s.emit(AnswerChunkEvent(answer, true))
	} else {
		s.emit(AnswerChunkEvent("", true))
		answer := acc.String()
		state.FinalAnswer = Outcome{Value: answer}
		state.appendStep(synthesisRecord(answer))
	}

	s.emit(FinalDataEvent(state.FinalAnswer.Value, state.Steps()))
	return state, nil
}
