package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"Monad-Agent-Kit/internal/assistant"
	xerrors "Monad-Agent-Kit/internal/errors"
	"Monad-Agent-Kit/internal/tools"
	"Monad-Agent-Kit/internal/wallet"
	"Monad-Agent-Kit/pkg/logger"
)

// defaultPollInterval 是轮询远端运行状态的默认间隔。
const defaultPollInterval = time.Second

// ResolutionSource 标记资源是本次新建的还是按既有标识找回的。
type ResolutionSource string

const (
	SourceCreated   ResolutionSource = "created"
	SourceRetrieved ResolutionSource = "retrieved"
)

// Resolution 记录一次初始化中某个远端资源的解析结果。
type Resolution struct {
	ID     string           `json:"id"`
	Source ResolutionSource `json:"source"`
}

// Session 汇总一次初始化后智能体绑定的远端资源。
type Session struct {
	Assistant Resolution `json:"assistant"`
	Thread    Resolution `json:"thread"`
}

// Agent 驱动远端托管助手完成一轮轮对话，是系统的业务核心。
// 它负责惰性初始化助手与 thread、投递用户消息、轮询运行状态，
// 并在运行挂起时并发执行本地工具后回传结果。
type Agent struct {
	runtime  assistant.Runtime
	registry *tools.Registry

	model        string
	name         string
	instructions string
	temperature  float64

	assistantID string
	threadID    string

	wallet     *wallet.Wallet
	toolConfig map[string]any

	pollInterval time.Duration

	mu      sync.Mutex
	session Session
	ready   bool
}

// Option 定义可选的 Agent 配置。
type Option func(*Agent)

// WithModel 设置创建助手时使用的模型。
func WithModel(model string) Option {
	return func(a *Agent) {
		a.model = model
	}
}

// WithName 设置创建助手时的名称。
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithInstructions 设置助手的系统指令。
func WithInstructions(instructions string) Option {
	return func(a *Agent) {
		a.instructions = instructions
	}
}

// WithTemperature 设置助手的采样温度。
func WithTemperature(temperature float64) Option {
	return func(a *Agent) {
		a.temperature = temperature
	}
}

// WithAssistantID 指定要复用的既有助手，留空则每次初始化新建。
func WithAssistantID(id string) Option {
	return func(a *Agent) {
		a.assistantID = strings.TrimSpace(id)
	}
}

// WithThreadID 指定要续接的既有 thread，留空则每次初始化新建。
func WithThreadID(id string) Option {
	return func(a *Agent) {
		a.threadID = strings.TrimSpace(id)
	}
}

// WithWallet 绑定会话的默认钱包，供工具在未显式传地址时回退使用。
func WithWallet(w *wallet.Wallet) Option {
	return func(a *Agent) {
		a.wallet = w
	}
}

// WithToolConfig 附加透传给工具处理函数的配置。
func WithToolConfig(cfg map[string]any) Option {
	return func(a *Agent) {
		a.toolConfig = cfg
	}
}

// WithPollInterval 设置轮询运行状态的间隔。
func WithPollInterval(interval time.Duration) Option {
	return func(a *Agent) {
		if interval > 0 {
			a.pollInterval = interval
		}
	}
}

// New 创建一个 Agent。
func New(runtime assistant.Runtime, registry *tools.Registry, opts ...Option) *Agent {
	ag := &Agent{
		runtime:      runtime,
		registry:     registry,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ag)
		}
	}
	return ag
}

// Initialize 解析助手与 thread。配置了既有标识时按标识找回，否则新建。
// 多次调用是幂等的：首次成功之后直接返回已解析的会话。
func (a *Agent) Initialize(ctx context.Context) (Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ensureReadyLocked(ctx)
}

// Ask 投递一条用户消息并驱动一次完整运行，返回助手的最终回答。
// 同一 Agent 上的并发调用会被串行化，避免同一 thread 上同时存在
// 多个活跃运行。
func (a *Agent) Ask(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "用户消息不能为空")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	session, err := a.ensureReadyLocked(ctx)
	if err != nil {
		return "", err
	}

	if _, err := a.runtime.CreateMessage(ctx, session.Thread.ID, "user", text); err != nil {
		return "", xerrors.Wrap(xerrors.CodeAssistantRuntime, err, "投递用户消息失败")
	}

	run, err := a.runtime.CreateRun(ctx, session.Thread.ID, session.Assistant.ID)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeAssistantRuntime, err, "创建运行失败")
	}

	logger.L().Info("运行已创建",
		"thread_id", session.Thread.ID,
		"run_id", run.ID,
	)

	return a.driveRun(ctx, session.Thread.ID, run)
}

// ensureReadyLocked 完成惰性初始化，调用方必须持有 a.mu。
func (a *Agent) ensureReadyLocked(ctx context.Context) (Session, error) {
	if a.ready {
		return a.session, nil
	}
	if a.runtime == nil {
		return Session{}, xerrors.New(xerrors.CodeInitializationFailure, "未配置助手运行时")
	}
	if a.registry == nil {
		return Session{}, xerrors.New(xerrors.CodeInitializationFailure, "未配置工具注册表")
	}

	assistantRes, err := a.resolveAssistant(ctx)
	if err != nil {
		return Session{}, err
	}

	threadRes, err := a.resolveThread(ctx)
	if err != nil {
		return Session{}, err
	}

	a.session = Session{Assistant: assistantRes, Thread: threadRes}
	a.ready = true

	logger.L().Info("智能体初始化完成",
		"assistant_id", assistantRes.ID,
		"assistant_source", string(assistantRes.Source),
		"thread_id", threadRes.ID,
		"thread_source", string(threadRes.Source),
	)
	return a.session, nil
}

// resolveAssistant 优先按配置的标识找回助手；找回失败时回退为新建，
// 避免一个失效的助手标识永久卡住初始化。
func (a *Agent) resolveAssistant(ctx context.Context) (Resolution, error) {
	if a.assistantID != "" {
		found, err := a.runtime.RetrieveAssistant(ctx, a.assistantID)
		if err == nil {
			return Resolution{ID: found.ID, Source: SourceRetrieved}, nil
		}
		logger.L().Warn("找回既有助手失败，回退为新建",
			"assistant_id", a.assistantID,
			"error", err,
		)
	}

	created, err := a.runtime.CreateAssistant(ctx, assistant.CreateAssistantRequest{
		Model:        a.model,
		Temperature:  a.temperature,
		Name:         a.name,
		Instructions: a.instructions,
		Tools:        toolSpecs(a.registry),
	})
	if err != nil {
		return Resolution{}, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "创建助手失败")
	}
	return Resolution{ID: created.ID, Source: SourceCreated}, nil
}

func (a *Agent) resolveThread(ctx context.Context) (Resolution, error) {
	if a.threadID != "" {
		found, err := a.runtime.RetrieveThread(ctx, a.threadID)
		if err != nil {
			return Resolution{}, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "找回既有 thread 失败")
		}
		return Resolution{ID: found.ID, Source: SourceRetrieved}, nil
	}

	created, err := a.runtime.CreateThread(ctx)
	if err != nil {
		return Resolution{}, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "创建 thread 失败")
	}
	return Resolution{ID: created.ID, Source: SourceCreated}, nil
}

// toolSpecs 把注册表中的工具定义转换为远端声明格式。
func toolSpecs(registry *tools.Registry) []assistant.ToolSpec {
	definitions := registry.Definitions()
	specs := make([]assistant.ToolSpec, 0, len(definitions))
	for _, def := range definitions {
		specs = append(specs, assistant.ToolSpec{
			Type: "function",
			Function: assistant.FunctionSpec{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return specs
}
