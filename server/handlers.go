package server

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/lakegraph/kgqa/agent"
	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/store"
)

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// ChatData is the payload of a successful blocking chat.
type ChatData struct {
	FinalAnswer     string             `json:"final_answer"`
	Messages        []agent.StepRecord `json:"messages"`
	SearchResult    string             `json:"search_result"`
	GraphResult     string             `json:"graph_result"`
	FinalAnswerHTML string             `json:"final_answer_html,omitempty"`
}

func parseChatRequest(c *fiber.Ctx) (ChatRequest, error) {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, fiber.NewError(fiber.StatusBadRequest, "query is required")
	}
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}
	return req, nil
}

func newMessage(text string, typ store.MessageType) store.Message {
	return store.Message{ID: uuid.NewString(), Message: text, Timestamp: time.Now(), Type: typ}
}

// remember appends to the session; history is best effort.
func (s *Server) remember(ctx context.Context, sessionID string, msg store.Message) {
	if err := s.sessions.Append(ctx, sessionID, msg); err != nil {
		log.Warn("session %s: append %s message: %v", sessionID, msg.Type, err)
	}
}

func (s *Server) chat(c *fiber.Ctx) error {
	req, err := parseChatRequest(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	s.remember(ctx, req.SessionID, newMessage(req.Query, store.MessageUser))

	state, err := s.workflow.Run(ctx, req.Query)
	if err != nil {
		log.Error("chat %s: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(failure(fmt.Sprintf("查询失败: %v", err)))
	}

	s.remember(ctx, req.SessionID, newMessage(state.FinalAnswer.Value, store.MessageAssistant))

	data := ChatData{
		FinalAnswer:  state.FinalAnswer.Value,
		Messages:     state.Steps(),
		SearchResult: state.SearchResult.Value,
		GraphResult:  state.GraphResult.Value,
	}
	if s.renderHTML {
		data.FinalAnswerHTML = RenderMarkdown(data.FinalAnswer)
	}
	return c.JSON(success("查询成功", data))
}

func (s *Server) chatStream(c *fiber.Ctx) error {
	req, err := parseChatRequest(c)
	if err != nil {
		return err
	}
	s.remember(c.UserContext(), req.SessionID, newMessage(req.Query, store.MessageUser))

	c.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(s.ctx)
	s.streams.Add(1)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer s.streams.Done()
		defer cancel()

		var answer string
		s.workflow.RunStream(ctx, req.Query, func(ev agent.StreamEvent) {
			if ctx.Err() != nil {
				return
			}
			if ev.Type == agent.EventComplete {
				answer = ev.FinalAnswer
			}
			err := agent.WriteSSE(w, ev)
			if err == nil {
				err = w.Flush()
			}
			if err != nil {
				log.Warn("stream %s: client gone: %v", req.SessionID, err)
				cancel()
			}
		})

		if answer != "" {
			s.remember(s.ctx, req.SessionID, newMessage(answer, store.MessageAssistant))
		}
	}))
	return nil
}

func (s *Server) history(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	msgs, err := s.sessions.History(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return c.JSON(success("暂无聊天历史", []store.Message{}))
	}
	return c.JSON(success("获取历史成功", msgs))
}

func (s *Server) clearHistory(c *fiber.Ctx) error {
	if err := s.sessions.Clear(c.UserContext(), c.Params("session_id")); err != nil {
		return err
	}
	return c.JSON(success("历史记录已清除", nil))
}

func (s *Server) workflowGraph(c *fiber.Ctx) error {
	return c.JSON(success("ok", fiber.Map{
		"mermaid": s.workflow.Mermaid(),
		"nodes":   s.workflow.Stages(),
	}))
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (s *Server) health(c *fiber.Ctx) error {
	resp := HealthResponse{Status: "healthy", Timestamp: now(), Service: ServiceName}
	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()
		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
