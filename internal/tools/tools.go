package tools

import (
	"context"
	"sort"

	"Monad-Agent-Kit/internal/wallet"
)

// Handler 是工具的执行函数。参数为远端助手给出的结构化实参、会话持有
// 的钱包上下文以及会话级工具配置；返回提交给助手的文本结果。
// 同一轮分发中的多个 Handler 会被并发调用，实现必须支持并发执行。
type Handler func(ctx context.Context, args map[string]any, w *wallet.Wallet, config map[string]any) (string, error)

// Property 描述参数 schema 中的一个字段。
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Parameters 以 JSON Schema 的形式声明工具的参数。
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Definition 是工具的静态元数据，注册后不应再修改。
type Definition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Tool 将定义与处理函数绑定为一个可注册条目。
type Tool struct {
	Definition Definition
	Handler    Handler
}

// Registry 管理名称到工具的映射。注册应在启动阶段一次性完成，
// 分发过程中不会再修改，因此不对并发注册做同步保护。
type Registry struct {
	tools map[string]Tool
}

// NewRegistry 创建一个空的工具注册表。
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register 插入或覆盖指定名称的工具，后写者生效。
func (r *Registry) Register(name string, tool Tool) {
	if r == nil || name == "" {
		return
	}
	if tool.Definition.Name == "" {
		tool.Definition.Name = name
	}
	r.tools[name] = tool
}

// Get 返回指定名称的工具。
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return Tool{}, false
	}
	tool, ok := r.tools[name]
	return tool, ok
}

// List 返回当前全部工具的快照。
func (r *Registry) List() map[string]Tool {
	if r == nil {
		return nil
	}
	snapshot := make(map[string]Tool, len(r.tools))
	for name, tool := range r.tools {
		snapshot[name] = tool
	}
	return snapshot
}

// Definitions 返回按名称排序的全部工具定义，用于创建远端助手时
// 声明本地能力。
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	names := r.Names()
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Names 返回排序后的工具名称列表。
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
