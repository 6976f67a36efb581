package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/oracle"
)

// FailedQueryMarker prefixes the graph result of a failed graph query.
const FailedQueryMarker = "query failed"

// DefaultDontKnowMarkers trigger a query rewrite when found in a graph answer.
var DefaultDontKnowMarkers = []string{"I don't know"}

const (
	minGraphAnswerRunes = 10
	minRewriteRunes     = 3
)

// GraphQA answers a natural-language question from the knowledge graph.
type GraphQA interface {
	Ask(ctx context.Context, query string) (string, error)
}

// GraphQAFunc adapts a function to GraphQA.
type GraphQAFunc func(ctx context.Context, query string) (string, error)

// Ask implements GraphQA.
func (f GraphQAFunc) Ask(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// GraphQueryStep asks the graph and retries once with an LLM-rewritten query
// when the first answer is unsatisfactory.
type GraphQueryStep struct {
	qa      GraphQA
	llm     oracle.LLM
	markers []string
}

// NewGraphQueryStep creates a GraphQueryStep. Nil or empty markers select
// DefaultDontKnowMarkers.
func NewGraphQueryStep(qa GraphQA, llm oracle.LLM, markers []string) *GraphQueryStep {
	if len(markers) == 0 {
		markers = DefaultDontKnowMarkers
	}
	return &GraphQueryStep{qa: qa, llm: llm, markers: markers}
}

// Unsatisfactory reports whether answer warrants a rewrite and retry.
func (g *GraphQueryStep) Unsatisfactory(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if utf8.RuneCountInString(trimmed) < minGraphAnswerRunes {
		return true
	}
	for _, m := range g.markers {
		if m != "" && strings.Contains(answer, m) {
			return true
		}
	}
	return false
}

// OptimizeQuery rewrites query for graph retrieval. Any failure, or a
// rewrite that is too short, returns query unchanged.
func (g *GraphQueryStep) OptimizeQuery(ctx context.Context, query string) string {
	reply, err := g.llm.Complete(ctx, fmt.Sprintf(queryOptimizerPrompt, query))
	if err != nil {
		log.Warn("query optimization failed, keeping original query: %v", err)
		return query
	}
	rewritten := strings.TrimSpace(reply)
	if utf8.RuneCountInString(rewritten) < minRewriteRunes {
		return query
	}
	return rewritten
}

// Run stores the graph answer, or a captured failure, and appends one step record.
func (g *GraphQueryStep) Run(ctx context.Context, state *WorkflowState) (*WorkflowState, error) {
	log.Info("[%s] step 2: knowledge graph query", state.ID)

	answer, err := g.qa.Ask(ctx, state.Query)
	if err == nil && g.Unsatisfactory(answer) {
		rewritten := g.OptimizeQuery(ctx, state.Query)
		log.Info("[%s] graph answer unsatisfactory, retrying with %q", state.ID, rewritten)
		state.RewrittenQuery = rewritten
		answer, err = g.qa.Ask(ctx, rewritten)
	}

	if err != nil {
		log.Warn("[%s] graph query failed: %v", state.ID, err)
		state.GraphResult = Outcome{
			Value: fmt.Sprintf("%s: %v", FailedQueryMarker, err),
			Kind:  FailureGraphQuery,
			Err:   err,
		}
		state.appendStep(StepRecord{
			Step:        2,
			Name:        "知识图谱查询",
			Status:      StatusError,
			Description: fmt.Sprintf("图谱查询失败: %v", err),
			Icon:        "❌",
		})
		return state, nil
	}

	state.GraphResult = Outcome{Value: answer}
	description := "查询知识图谱: " + state.Query
	if state.RewrittenQuery != "" {
		description += "（优化查询: " + state.RewrittenQuery + "）"
	}
	state.appendStep(StepRecord{
		Step:        2,
		Name:        "知识图谱查询",
		Status:      StatusCompleted,
		Description: description,
		Result:      answer,
		Icon:        "🧠",
	})
	return state, nil
}
