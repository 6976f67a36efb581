package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/tools"

	"github.com/lakegraph/kgqa/graph"
	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/oracle"
)

// Node names of the workflow graph.
const (
	NodeSearch     = "search_engine"
	NodeGraphQuery = "query_knowledge_graph"
	NodeSynthesize = "synthesize_answer"
)

// ErrNoFinalData is returned when streaming synthesis ends without its final_data event.
var ErrNoFinalData = errors.New("streaming synthesis produced no final data")

// stageEvents holds the progress texts shown while streaming a stage.
type stageEvents struct {
	step                            int
	name, icon                      string
	processing, completed           string
	previewResult, processingQuery bool
}

var stages = map[string]stageEvents{
	NodeSearch:     {step: 1, name: "搜索引擎查询", icon: "🔍", processing: "正在搜索: ", processingQuery: true, completed: "搜索完成", previewResult: true},
	NodeGraphQuery: {step: 2, name: "知识图谱查询", icon: "🧠", processing: "查询知识图谱数据库...", completed: "图谱查询完成", previewResult: true},
	NodeSynthesize: {step: 3, name: "生成答案", icon: "✨", processing: "正在生成最终答案...", completed: "答案生成完成"},
}

const streamPreviewRunes = 200

// Runner executes the search, graph query and synthesis stages in order.
// A Runner is safe for concurrent use; every run gets its own state.
type Runner struct {
	llm       oracle.LLM
	search    *SearchStep
	graphStep *GraphQueryStep
	synth     *SynthesisStep
	runnable  *graph.StateRunnable[*WorkflowState]
	stepDelay time.Duration
	markers   []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithStepDelay pauses between a stage's processing event and the stage itself
// in streamed runs.
func WithStepDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.stepDelay = d
	}
}

// WithDontKnowMarkers replaces the phrases that make a graph answer unsatisfactory.
func WithDontKnowMarkers(markers ...string) Option {
	return func(r *Runner) {
		r.markers = markers
	}
}

// NewRunner builds the workflow graph.
func NewRunner(llm oracle.LLM, search tools.Tool, qa GraphQA, opts ...Option) (*Runner, error) {
	if llm == nil || search == nil || qa == nil {
		return nil, errors.New("llm, search tool and graph QA are required")
	}
	r := &Runner{llm: llm}
	for _, opt := range opts {
		opt(r)
	}

	r.search = NewSearchStep(search)
	r.graphStep = NewGraphQueryStep(qa, llm, r.markers)
	r.synth = NewSynthesisStep(llm)

	g := graph.NewStateGraph[*WorkflowState]()
	g.AddNode(NodeSearch, "web search for background information", r.search.Run)
	g.AddNode(NodeGraphQuery, "knowledge graph question answering", r.graphStep.Run)
	g.AddNode(NodeSynthesize, "merge both sources into one answer", r.synth.Run)
	g.SetEntryPoint(NodeSearch)
	g.AddEdge(NodeSearch, NodeGraphQuery)
	g.AddEdge(NodeGraphQuery, NodeSynthesize)
	g.AddEdge(NodeSynthesize, graph.END)

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile workflow: %w", err)
	}
	r.runnable = runnable
	return r, nil
}

// Mermaid renders the workflow graph.
func (r *Runner) Mermaid() string {
	return r.runnable.DrawMermaid()
}

// Stages lists the workflow nodes in execution order.
func (r *Runner) Stages() []string {
	return r.runnable.NodeNames()
}

// Run executes the workflow and returns the final state. Stage failures are
// captured in the state; an error means the workflow itself broke.
func (r *Runner) Run(ctx context.Context, query string) (*WorkflowState, error) {
	state := NewWorkflowState(query)
	log.Info("[%s] processing query: %s", state.ID, query)

	tracer := graph.NewTracer[*WorkflowState]()
	final, err := r.runnable.WithListeners(tracer).Invoke(ctx, state)
	logTrace(state.ID, tracer)
	if err != nil {
		log.Error("[%s] workflow failed: %v", state.ID, err)
		return final, err
	}
	return final, nil
}

// RunStream executes the workflow and reports progress through emit: start,
// a processing and a completed step event around every stage, the answer
// chunks of the synthesis stage, then complete. A broken run ends with a
// single error event instead of complete. emit is called from the calling
// goroutine only.
func (r *Runner) RunStream(ctx context.Context, query string, emit func(StreamEvent)) {
	state := NewWorkflowState(query)
	log.Info("[%s] processing query (stream): %s", state.ID, query)

	defer func() {
		if p := recover(); p != nil {
			log.Error("[%s] stream aborted by panic: %v; steps so far: %+v", state.ID, p, state.Steps())
			emit(ErrorEvent(fmt.Sprintf("processing failed: %v", p)))
		}
	}()

	emit(StartEvent("开始处理您的问题..."))

	gotFinalData := false
	sink := func(ev StreamEvent) {
		switch ev.Type {
		case EventFinalData:
			gotFinalData = true
		case EventAnswerChunk:
			emit(ev)
		}
	}

	progress := graph.NodeListenerFunc[*WorkflowState](func(ctx context.Context, event graph.NodeEvent, node string, s *WorkflowState, err error) {
		meta, ok := stages[node]
		if !ok {
			return
		}
		switch event {
		case graph.NodeEventStart:
			description := meta.processing
			if meta.processingQuery {
				description += s.Query
			}
			emit(StepEvent(StepRecord{Step: meta.step, Name: meta.name, Status: StatusProcessing, Description: description, Icon: meta.icon}))
			r.pause(ctx)
		case graph.NodeEventComplete:
			rec := StepRecord{Step: meta.step, Name: meta.name, Status: StatusCompleted, Description: meta.completed, Icon: "✅"}
			if meta.previewResult {
				rec.Result = truncate(stageResult(node, s), streamPreviewRunes)
			}
			emit(StepEvent(rec))
		}
	})

	tracer := graph.NewTracer[*WorkflowState]()
	runnable, err := r.runnable.WithNodeFunc(NodeSynthesize, NewStreamingSynthesisStep(r.llm, sink).Run)
	if err == nil {
		_, err = runnable.WithListeners(tracer, progress).Invoke(ctx, state)
	}
	if err == nil && !gotFinalData {
		err = ErrNoFinalData
	}
	logTrace(state.ID, tracer)

	if err != nil {
		log.Error("[%s] stream failed: %v; steps so far: %+v", state.ID, err, state.Steps())
		emit(ErrorEvent(fmt.Sprintf("processing failed: %v", err)))
		return
	}
	emit(CompleteEvent(state))
}

// Stream is the channel form of RunStream. The channel is closed after the
// last event. Events are dropped once ctx is done.
func (r *Runner) Stream(ctx context.Context, query string) <-chan StreamEvent {
	ch := make(chan StreamEvent, 16)
	go func() {
		defer close(ch)
		r.RunStream(ctx, query, func(ev StreamEvent) {
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		})
	}()
	return ch
}

func (r *Runner) pause(ctx context.Context) {
	if r.stepDelay <= 0 {
		return
	}
	t := time.NewTimer(r.stepDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func stageResult(node string, s *WorkflowState) string {
	switch node {
	case NodeSearch:
		return s.SearchResult.Value
	case NodeGraphQuery:
		return s.GraphResult.Value
	}
	return ""
}

func logTrace(runID string, tracer *graph.Tracer[*WorkflowState]) {
	for _, st := range tracer.Steps {
		log.Debug("[%s] node %s %s in %s", runID, st.Node, st.Event, st.Duration)
	}
}
