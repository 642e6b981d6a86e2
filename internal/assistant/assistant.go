package assistant

import "context"

// RunStatus 表示一次运行在远端状态机中的状态。
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
)

// Transient 报告运行是否仍在排队或执行中，需要继续轮询。
func (s RunStatus) Transient() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// Assistant 是远端托管的助手定义。
type Assistant struct {
	ID string `json:"id"`
}

// Thread 是远端托管的会话历史。
type Thread struct {
	ID string `json:"id"`
}

// TextContent 承载一个文本内容块的正文。
type TextContent struct {
	Value string `json:"value"`
}

// ContentBlock 是消息中的一个内容块，目前只消费 text 类型。
type ContentBlock struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// Message 是 thread 中的一条消息。
type Message struct {
	ID      string         `json:"id"`
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// FirstText 返回消息首个内容块的文本。当消息没有内容块、首块不是
// 文本或者正文缺失时返回 false。
func (m Message) FirstText() (string, bool) {
	if len(m.Content) == 0 {
		return "", false
	}
	block := m.Content[0]
	if block.Type != "text" || block.Text == nil {
		return "", false
	}
	return block.Text.Value, true
}

// FunctionCall 描述助手请求调用的函数及其原始实参。
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall 是运行挂起时待执行的一次工具调用。
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// SubmitToolOutputsAction 列出运行继续前必须提交结果的工具调用。
type SubmitToolOutputsAction struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// RequiredAction 是运行进入 requires_action 状态时的动作描述。
type RequiredAction struct {
	Type              string                   `json:"type"`
	SubmitToolOutputs *SubmitToolOutputsAction `json:"submit_tool_outputs,omitempty"`
}

// RunError 携带远端报告的失败原因。
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run 是一次助手执行的远端视图。
type Run struct {
	ID             string          `json:"id"`
	Status         RunStatus       `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *RunError       `json:"last_error,omitempty"`
}

// PendingToolCalls 返回运行当前等待的工具调用列表。
func (r Run) PendingToolCalls() []ToolCall {
	if r.RequiredAction == nil || r.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}
	return r.RequiredAction.SubmitToolOutputs.ToolCalls
}

// ToolOutput 是提交给远端的一条工具执行结果。
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// FunctionSpec 按远端的 wire 格式声明一个函数工具。
type FunctionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ToolSpec 是创建助手时声明的一项能力。
type ToolSpec struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// CreateAssistantRequest 描述创建助手定义所需的信息。
type CreateAssistantRequest struct {
	Model        string
	Temperature  float64
	Name         string
	Instructions string
	Tools        []ToolSpec
}

// Runtime 定义了远程助手运行时的统一接口。消息列表按时间倒序返回，
// 即最近的消息在前。
type Runtime interface {
	CreateAssistant(ctx context.Context, req CreateAssistantRequest) (Assistant, error)
	RetrieveAssistant(ctx context.Context, assistantID string) (Assistant, error)
	CreateThread(ctx context.Context) (Thread, error)
	RetrieveThread(ctx context.Context, threadID string) (Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (Message, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error)
}
