package agent

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools"

	"github.com/lakegraph/kgqa/log"
)

// FailedSearchMarker prefixes the search result of a failed search.
const FailedSearchMarker = "search failed"

const searchResultPreview = 300

// SearchStep queries the web search tool.
type SearchStep struct {
	tool tools.Tool
}

// NewSearchStep creates a SearchStep.
func NewSearchStep(tool tools.Tool) *SearchStep {
	return &SearchStep{tool: tool}
}

// Run stores the search result, or a captured failure, and appends one step record.
func (s *SearchStep) Run(ctx context.Context, state *WorkflowState) (*WorkflowState, error) {
	log.Info("[%s] step 1: web search for %q via %s", state.ID, state.Query, s.tool.Name())

	result, err := s.tool.Call(ctx, state.Query)
	if err != nil {
		log.Warn("[%s] search failed: %v", state.ID, err)
		state.SearchResult = Outcome{
			Value: fmt.Sprintf("%s: %v", FailedSearchMarker, err),
			Kind:  FailureSearch,
			Err:   err,
		}
		state.appendStep(StepRecord{
			Step:        1,
			Name:        "搜索引擎查询",
			Status:      StatusError,
			Description: fmt.Sprintf("搜索失败: %v", err),
			Icon:        "❌",
		})
		return state, nil
	}

	log.Debug("[%s] search returned %d bytes", state.ID, len(result))
	state.SearchResult = Outcome{Value: result}
	state.appendStep(StepRecord{
		Step:        1,
		Name:        "搜索引擎查询",
		Status:      StatusCompleted,
		Description: "正在搜索: " + state.Query,
		Result:      truncate(result, searchResultPreview),
		Icon:        "🔍",
	})
	return state, nil
}
