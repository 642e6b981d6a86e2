package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Monad-Agent-Kit/internal/assistant"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second

	// assistantsBeta 是 Assistants API 要求的 beta 版本头。
	assistantsBeta = "assistants=v2"
)

// Config 描述了调用 OpenAI Assistants API 所需的信息。
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client 通过 HTTP 调用 OpenAI 提供的助手运行时能力。
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient 根据配置创建 OpenAI Assistants 客户端。
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("未提供 OpenAI API Key")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// CreateAssistant 创建一个声明了本地工具能力的助手定义。
func (c *Client) CreateAssistant(ctx context.Context, req assistant.CreateAssistantRequest) (assistant.Assistant, error) {
	body := map[string]any{
		"model":        req.Model,
		"name":         req.Name,
		"instructions": req.Instructions,
		"temperature":  req.Temperature,
	}
	if len(req.Tools) > 0 {
		body["tools"] = req.Tools
	}

	var created assistant.Assistant
	if err := c.post(ctx, "/assistants", body, &created); err != nil {
		return assistant.Assistant{}, err
	}
	return created, nil
}

// RetrieveAssistant 按标识获取助手定义。
func (c *Client) RetrieveAssistant(ctx context.Context, assistantID string) (assistant.Assistant, error) {
	if strings.TrimSpace(assistantID) == "" {
		return assistant.Assistant{}, errors.New("assistant ID 不能为空")
	}
	var found assistant.Assistant
	if err := c.get(ctx, "/assistants/"+url.PathEscape(assistantID), &found); err != nil {
		return assistant.Assistant{}, err
	}
	return found, nil
}

// CreateThread 创建一个空的会话 thread。
func (c *Client) CreateThread(ctx context.Context) (assistant.Thread, error) {
	var created assistant.Thread
	if err := c.post(ctx, "/threads", map[string]any{}, &created); err != nil {
		return assistant.Thread{}, err
	}
	return created, nil
}

// RetrieveThread 按标识获取 thread。
func (c *Client) RetrieveThread(ctx context.Context, threadID string) (assistant.Thread, error) {
	if strings.TrimSpace(threadID) == "" {
		return assistant.Thread{}, errors.New("thread ID 不能为空")
	}
	var found assistant.Thread
	if err := c.get(ctx, "/threads/"+url.PathEscape(threadID), &found); err != nil {
		return assistant.Thread{}, err
	}
	return found, nil
}

// CreateMessage 向 thread 追加一条消息。
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (assistant.Message, error) {
	body := map[string]any{
		"role":    role,
		"content": content,
	}
	var created assistant.Message
	endpoint := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := c.post(ctx, endpoint, body, &created); err != nil {
		return assistant.Message{}, err
	}
	return created, nil
}

// CreateRun 针对 thread 与助手创建一次运行。
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error) {
	body := map[string]any{
		"assistant_id": assistantID,
	}
	var created assistant.Run
	endpoint := "/threads/" + url.PathEscape(threadID) + "/runs"
	if err := c.post(ctx, endpoint, body, &created); err != nil {
		return assistant.Run{}, err
	}
	return created, nil
}

// RetrieveRun 获取运行的最新状态。
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	var found assistant.Run
	endpoint := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.get(ctx, endpoint, &found); err != nil {
		return assistant.Run{}, err
	}
	return found, nil
}

// SubmitToolOutputs 批量提交工具执行结果并恢复运行。
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) (assistant.Run, error) {
	if len(outputs) == 0 {
		return assistant.Run{}, errors.New("没有可提交的工具结果")
	}
	body := map[string]any{
		"tool_outputs": outputs,
	}
	var updated assistant.Run
	endpoint := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/submit_tool_outputs"
	if err := c.post(ctx, endpoint, body, &updated); err != nil {
		return assistant.Run{}, err
	}
	return updated, nil
}

// ListMessages 按时间倒序列出 thread 中的消息。
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]assistant.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	endpoint := fmt.Sprintf("/threads/%s/messages?order=desc&limit=%d", url.PathEscape(threadID), limit)

	var decoded struct {
		Data []assistant.Message `json:"data"`
	}
	if err := c.get(ctx, endpoint, &decoded); err != nil {
		return nil, err
	}
	return decoded.Data, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化 OpenAI 请求失败: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded), out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("构建 OpenAI 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("OpenAI-Beta", assistantsBeta)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("请求 OpenAI 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("OpenAI 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 OpenAI 响应失败: %w", err)
	}
	return nil
}

var _ assistant.Runtime = (*Client)(nil)
