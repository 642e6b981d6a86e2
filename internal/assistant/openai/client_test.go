package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Monad-Agent-Kit/internal/assistant"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error when api key is missing")
	}
}

func TestCreateAssistant(t *testing.T) {
	var captured struct {
		Authorization string
		Beta          string
		Body          map[string]any
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assistants" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		captured.Authorization = r.Header.Get("Authorization")
		captured.Beta = r.Header.Get("OpenAI-Beta")
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&captured.Body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "asst_123"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.httpClient = srv.Client()

	created, err := client.CreateAssistant(context.Background(), assistant.CreateAssistantRequest{
		Model:        "gpt-4o-mini",
		Name:         "monad-agent",
		Instructions: "回答钱包余额问题",
		Tools: []assistant.ToolSpec{
			{Type: "function", Function: assistant.FunctionSpec{Name: "get_balance"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "asst_123" {
		t.Fatalf("unexpected assistant: %+v", created)
	}

	if !strings.HasPrefix(captured.Authorization, "Bearer ") {
		t.Fatalf("authorization header missing: %q", captured.Authorization)
	}
	if captured.Beta != assistantsBeta {
		t.Fatalf("beta header missing: %q", captured.Beta)
	}
	if captured.Body["model"] != "gpt-4o-mini" {
		t.Fatalf("model field missing in request: %+v", captured.Body)
	}
	if _, ok := captured.Body["tools"]; !ok {
		t.Fatalf("tools field missing in request: %+v", captured.Body)
	}
}

func TestRetrieveRunRequiresAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads/thread_1/runs/run_1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "run_1",
			"status": "requires_action",
			"required_action": map[string]any{
				"type": "submit_tool_outputs",
				"submit_tool_outputs": map[string]any{
					"tool_calls": []map[string]any{
						{
							"id":   "call_1",
							"type": "function",
							"function": map[string]any{
								"name":      "get_balance",
								"arguments": "{}",
							},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.httpClient = srv.Client()

	run, err := client.RetrieveRun(context.Background(), "thread_1", "run_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != assistant.RunStatusRequiresAction {
		t.Fatalf("unexpected status: %s", run.Status)
	}
	calls := run.PendingToolCalls()
	if len(calls) != 1 || calls[0].ID != "call_1" || calls[0].Function.Name != "get_balance" {
		t.Fatalf("unexpected tool calls: %+v", calls)
	}
}

func TestSubmitToolOutputsRejectsEmptyBatch(t *testing.T) {
	client, err := NewClient(Config{APIKey: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.SubmitToolOutputs(context.Background(), "thread_1", "run_1", nil); err == nil {
		t.Fatalf("expected error for empty output batch")
	}
}

func TestListMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("order") != "desc" {
			t.Fatalf("messages must be listed most recent first")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id":   "msg_2",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": map[string]any{"value": "你的余额是 1.5 MON"}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.httpClient = srv.Client()

	messages, err := client.ListMessages(context.Background(), "thread_1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("unexpected messages: %+v", messages)
	}
	text, ok := messages[0].FirstText()
	if !ok || text != "你的余额是 1.5 MON" {
		t.Fatalf("unexpected text: %q ok=%v", text, ok)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.httpClient = srv.Client()

	if _, err := client.CreateThread(context.Background()); err == nil {
		t.Fatalf("expected error when http status is not success")
	}
}
