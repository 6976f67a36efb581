package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model          string          `json:"model"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat json.RawMessage `json:"response_format"`
}

func newChatServer(t *testing.T, reply string, chunks []string, seen *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen != nil {
			*seen = req
		}

		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, c := range chunks {
				payload, _ := json.Marshal(map[string]any{
					"id": "chunk", "object": "chat.completion.chunk", "created": 1, "model": req.Model,
					"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": c}}},
				})
				fmt.Fprintf(w, "data: %s\n\n", payload)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "cmpl", "object": "chat.completion", "created": 1, "model": req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
}

func TestOpenAI_Complete(t *testing.T) {
	var seen chatRequest
	srv := newChatServer(t, "pong", nil, &seen)
	defer srv.Close()

	llm := NewOpenAI("test-key", srv.URL+"/v1", WithModel("qwen-plus"))
	got, err := llm.Complete(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
	assert.Equal(t, "qwen-plus", seen.Model)
	assert.InDelta(t, 0.2, seen.Temperature, 1e-6)
}

func TestOpenAI_CompleteStructured(t *testing.T) {
	var seen chatRequest
	srv := newChatServer(t, `{"chunks":[{"content":"a"}]}`, nil, &seen)
	defer srv.Close()

	llm := NewOpenAI("test-key", srv.URL+"/v1")
	var out chunkList
	require.NoError(t, llm.CompleteStructured(context.Background(), "split", "document_chunks", &out))
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, "a", out.Chunks[0].Content)
	assert.Contains(t, string(seen.ResponseFormat), "json_schema")
	assert.Contains(t, string(seen.ResponseFormat), "document_chunks")
	assert.Equal(t, DefaultOpenAIModel, seen.Model)
}

func TestOpenAI_CompleteStream(t *testing.T) {
	srv := newChatServer(t, "", []string{"知识", "图谱", "问答"}, nil)
	defer srv.Close()

	llm := NewOpenAI("test-key", srv.URL+"/v1")
	var got []string
	full, err := llm.CompleteStream(context.Background(), "hi", func(ctx context.Context, chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "知识图谱问答", full)
	assert.Equal(t, []string{"知识", "图谱", "问答"}, got)
}

func TestOpenAI_CompleteStreamCallbackError(t *testing.T) {
	srv := newChatServer(t, "", []string{"知识", "图谱"}, nil)
	defer srv.Close()

	stop := errors.New("client gone")
	llm := NewOpenAI("test-key", srv.URL+"/v1")
	full, err := llm.CompleteStream(context.Background(), "hi", func(ctx context.Context, chunk string) error {
		return stop
	})
	assert.ErrorIs(t, err, ErrOracle)
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, "知识", full)
}

func TestOpenAI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	llm := NewOpenAI("test-key", srv.URL+"/v1")
	_, err := llm.Complete(context.Background(), "ping")
	assert.ErrorIs(t, err, ErrOracle)
}
