package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Monad-Agent-Kit/internal/agent"
	"Monad-Agent-Kit/internal/assistant"
	"Monad-Agent-Kit/internal/chat"
	"Monad-Agent-Kit/internal/history"
	"Monad-Agent-Kit/internal/tools"
)

// echoRuntime 让每次运行立即完成，并以固定文本作为助手回复。
type echoRuntime struct {
	answer string
}

func (e *echoRuntime) CreateAssistant(context.Context, assistant.CreateAssistantRequest) (assistant.Assistant, error) {
	return assistant.Assistant{ID: "asst_1"}, nil
}

func (e *echoRuntime) RetrieveAssistant(_ context.Context, id string) (assistant.Assistant, error) {
	return assistant.Assistant{ID: id}, nil
}

func (e *echoRuntime) CreateThread(context.Context) (assistant.Thread, error) {
	return assistant.Thread{ID: "thread_1"}, nil
}

func (e *echoRuntime) RetrieveThread(_ context.Context, id string) (assistant.Thread, error) {
	return assistant.Thread{ID: id}, nil
}

func (e *echoRuntime) CreateMessage(_ context.Context, _, role, content string) (assistant.Message, error) {
	return assistant.Message{ID: "msg_1", Role: role}, nil
}

func (e *echoRuntime) CreateRun(context.Context, string, string) (assistant.Run, error) {
	return assistant.Run{ID: "run_1", Status: assistant.RunStatusCompleted}, nil
}

func (e *echoRuntime) RetrieveRun(context.Context, string, string) (assistant.Run, error) {
	return assistant.Run{ID: "run_1", Status: assistant.RunStatusCompleted}, nil
}

func (e *echoRuntime) SubmitToolOutputs(context.Context, string, string, []assistant.ToolOutput) (assistant.Run, error) {
	return assistant.Run{ID: "run_1", Status: assistant.RunStatusCompleted}, nil
}

func (e *echoRuntime) ListMessages(context.Context, string, int) ([]assistant.Message, error) {
	return []assistant.Message{
		{
			ID:   "msg_2",
			Role: "assistant",
			Content: []assistant.ContentBlock{
				{Type: "text", Text: &assistant.TextContent{Value: e.answer}},
			},
		},
	}, nil
}

var _ assistant.Runtime = (*echoRuntime)(nil)

func newTestServer(t *testing.T) (*Server, *chat.MemoryStore) {
	t.Helper()
	ag := agent.New(&echoRuntime{answer: "你的余额是 1.5 MON"}, tools.NewRegistry(),
		agent.WithPollInterval(time.Millisecond))
	store := chat.NewMemoryStore()
	chats := chat.NewService(store, chat.NewMemoryQueue(4), 3)
	return NewServer(":0", ag, chats, history.NewMemoryStore()), store
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestAskEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	body := strings.NewReader(`{"question":"我的余额是多少？"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ask", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	var decoded struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Answer != "你的余额是 1.5 MON" {
		t.Fatalf("unexpected answer: %q", decoded.Answer)
	}
}

func TestAskEndpointRejectsEmptyQuestion(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":""}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestChatSubmitAndLookup(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"hello"}`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var job chat.Job
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if job.ID == "" || job.Status != chat.StatusPending {
		t.Fatalf("unexpected job: %+v", job)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat?id="+job.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestChatLookupMissingID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestChatLookupUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat?id=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

// recordingHistoryStore 记录最近一次查询收到的 limit。
type recordingHistoryStore struct {
	lastLimit int
}

func (r *recordingHistoryStore) Save(context.Context, history.Exchange) error { return nil }

func (r *recordingHistoryStore) ListLatest(_ context.Context, limit int) ([]history.Exchange, error) {
	r.lastLimit = limit
	return nil, nil
}

func (r *recordingHistoryStore) Close() error { return nil }

var _ history.Store = (*recordingHistoryStore)(nil)

func TestHistoryEndpointClampsLimit(t *testing.T) {
	ag := agent.New(&echoRuntime{answer: "ok"}, tools.NewRegistry())
	histories := &recordingHistoryStore{}
	srv := NewServer(":0", ag, nil, histories)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=100000", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if histories.lastLimit != maxHistoryLimit {
		t.Fatalf("limit was not clamped: %d", histories.lastLimit)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	ag := agent.New(&echoRuntime{answer: "ok"}, tools.NewRegistry())
	histories := history.NewMemoryStore()
	if err := histories.Save(context.Background(), history.Exchange{
		ID:       "ex_1",
		Question: "余额?",
		Answer:   "1.5",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	srv := NewServer(":0", ag, nil, histories)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var exchanges []history.Exchange
	if err := json.NewDecoder(rec.Body).Decode(&exchanges); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(exchanges) != 1 || exchanges[0].Answer != "1.5" {
		t.Fatalf("unexpected history: %+v", exchanges)
	}
}
