package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// EventType tags a StreamEvent.
type EventType string

const (
	EventStart       EventType = "start"
	EventStep        EventType = "step"
	EventAnswerChunk EventType = "answer_chunk"
	EventFinalData   EventType = "final_data"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// StreamEvent is one event of a streamed run. Only the fields of its Type are
// serialized.
type StreamEvent struct {
	Type EventType

	// start, error
	Message   string
	Timestamp time.Time

	// step
	Step StepRecord

	// answer_chunk
	Content string
	IsFinal bool

	// final_data, complete
	FinalAnswer string
	Steps       []StepRecord

	// complete
	SearchResult string
	GraphResult  string
}

// StartEvent opens a streamed run.
func StartEvent(message string) StreamEvent {
	return StreamEvent{Type: EventStart, Message: message, Timestamp: time.Now()}
}

// StepEvent reports stage progress.
func StepEvent(r StepRecord) StreamEvent {
	return StreamEvent{Type: EventStep, Step: r}
}

// AnswerChunkEvent carries one answer fragment.
func AnswerChunkEvent(content string, final bool) StreamEvent {
	return StreamEvent{Type: EventAnswerChunk, Content: content, IsFinal: final}
}

// FinalDataEvent carries the synthesized answer and the step log.
func FinalDataEvent(answer string, steps []StepRecord) StreamEvent {
	return StreamEvent{Type: EventFinalData, FinalAnswer: answer, Steps: steps}
}

// CompleteEvent closes a successful run.
func CompleteEvent(state *WorkflowState) StreamEvent {
	return StreamEvent{
		Type:         EventComplete,
		FinalAnswer:  state.FinalAnswer.Value,
		Steps:        state.Steps(),
		SearchResult: state.SearchResult.Value,
		GraphResult:  state.GraphResult.Value,
	}
}

// ErrorEvent closes a failed run.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message, Timestamp: time.Now()}
}

type messageJSON struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type stepJSON struct {
	Type        EventType `json:"type"`
	Step        int       `json:"step"`
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description"`
	Result      string    `json:"result,omitempty"`
	Icon        string    `json:"icon"`
}

type answerChunkJSON struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
	IsFinal bool      `json:"is_final"`
}

type finalDataJSON struct {
	Type          EventType    `json:"type"`
	FinalAnswer   string       `json:"final_answer"`
	WorkflowSteps []StepRecord `json:"workflow_steps"`
}

type completeJSON struct {
	Type          EventType    `json:"type"`
	FinalAnswer   string       `json:"final_answer"`
	WorkflowSteps []StepRecord `json:"workflow_steps"`
	SearchResult  string       `json:"search_result"`
	GraphResult   string       `json:"graph_result"`
}

func (e StreamEvent) wire() (any, error) {
	steps := e.Steps
	if steps == nil {
		steps = []StepRecord{}
	}
	switch e.Type {
	case EventStart, EventError:
		return messageJSON{Type: e.Type, Message: e.Message, Timestamp: e.Timestamp}, nil
	case EventStep:
		s := e.Step
		return stepJSON{Type: e.Type, Step: s.Step, Name: s.Name, Status: s.Status, Description: s.Description, Result: s.Result, Icon: s.Icon}, nil
	case EventAnswerChunk:
		return answerChunkJSON{Type: e.Type, Content: e.Content, IsFinal: e.IsFinal}, nil
	case EventFinalData:
		return finalDataJSON{Type: e.Type, FinalAnswer: e.FinalAnswer, WorkflowSteps: steps}, nil
	case EventComplete:
		return completeJSON{Type: e.Type, FinalAnswer: e.FinalAnswer, WorkflowSteps: steps, SearchResult: e.SearchResult, GraphResult: e.GraphResult}, nil
	default:
		return nil, fmt.Errorf("unknown stream event type %q", e.Type)
	}
}

// MarshalJSON emits the variant's fields without HTML escaping.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	v, err := e.wire()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteSSE writes ev as one server-sent event: "data: <json>\n\n".
func WriteSSE(w io.Writer, ev StreamEvent) error {
	payload, err := ev.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return nil
}
