package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"Monad-Agent-Kit/internal/assistant"
	xerrors "Monad-Agent-Kit/internal/errors"
	"Monad-Agent-Kit/pkg/logger"
)

// driveRun 轮询运行直到其到达终态，中途处理所有 requires_action 回合。
// 调用方必须持有 a.mu。
func (a *Agent) driveRun(ctx context.Context, threadID string, run assistant.Run) (string, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		switch {
		case run.Status.Transient():
			select {
			case <-ctx.Done():
				return "", xerrors.Wrap(xerrors.CodeTimeout, ctx.Err(), "等待运行完成被取消")
			case <-ticker.C:
			}
			latest, err := a.runtime.RetrieveRun(ctx, threadID, run.ID)
			if err != nil {
				return "", xerrors.Wrap(xerrors.CodeAssistantRuntime, err, "查询运行状态失败")
			}
			run = latest

		case run.Status == assistant.RunStatusRequiresAction:
			calls := run.PendingToolCalls()
			outputs := a.dispatchToolCalls(ctx, calls)
			updated, err := a.runtime.SubmitToolOutputs(ctx, threadID, run.ID, outputs)
			if err != nil {
				return "", xerrors.Wrap(xerrors.CodeAssistantRuntime, err, "提交工具结果失败")
			}
			run = updated

		case run.Status == assistant.RunStatusCompleted:
			return a.finalAnswer(ctx, threadID)

		case run.Status == assistant.RunStatusFailed:
			msg := "运行执行失败"
			if run.LastError != nil {
				msg = fmt.Sprintf("运行执行失败: %s (%s)", run.LastError.Message, run.LastError.Code)
			}
			return "", xerrors.New(xerrors.CodeRunFailed, msg)

		default:
			return "", xerrors.New(xerrors.CodeRunFailed,
				fmt.Sprintf("运行进入未预期的终态: %s", run.Status))
		}
	}
}

// dispatchToolCalls 并发执行一批工具调用。每个调用各自隔离失败：
// 执行出错时提交 "Error: <原因>" 文本，让模型自行决定如何继续。
// 远端要求每次提交至少包含一条结果，因此即便没有任何调用得到
// 输出，也会为每个调用补一条未注册错误。
func (a *Agent) dispatchToolCalls(ctx context.Context, calls []assistant.ToolCall) []assistant.ToolOutput {
	results := make([]*assistant.ToolOutput, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call assistant.ToolCall) {
			defer wg.Done()
			results[i] = a.executeToolCall(ctx, call)
		}(i, call)
	}
	wg.Wait()

	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, result := range results {
		if result != nil {
			outputs = append(outputs, *result)
		}
	}
	if len(outputs) == 0 && len(calls) > 0 {
		for _, call := range calls {
			outputs = append(outputs, assistant.ToolOutput{
				ToolCallID: call.ID,
				Output:     fmt.Sprintf("Error: tool %q is not registered", call.Function.Name),
			})
		}
	}
	return outputs
}

// executeToolCall 执行单个工具调用。未注册的工具只记录告警，不产生
// 输出；由 dispatchToolCalls 在整批为空时统一补齐错误结果。
func (a *Agent) executeToolCall(ctx context.Context, call assistant.ToolCall) *assistant.ToolOutput {
	tool, ok := a.registry.Get(call.Function.Name)
	if !ok {
		logger.L().Warn("助手请求了未注册的工具",
			"tool", call.Function.Name,
			"tool_call_id", call.ID,
		)
		return nil
	}

	args := map[string]any{}
	if raw := call.Function.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			logger.L().Warn("解析工具实参失败",
				"tool", call.Function.Name,
				"error", err,
			)
			return &assistant.ToolOutput{
				ToolCallID: call.ID,
				Output:     fmt.Sprintf("Error: invalid tool arguments: %v", err),
			}
		}
	}

	output, err := tool.Handler(ctx, args, a.wallet, a.toolConfig)
	if err != nil {
		logger.L().Warn("工具执行失败",
			"tool", call.Function.Name,
			"error", err,
		)
		return &assistant.ToolOutput{
			ToolCallID: call.ID,
			Output:     fmt.Sprintf("Error: %v", err),
		}
	}
	return &assistant.ToolOutput{
		ToolCallID: call.ID,
		Output:     output,
	}
}

// finalAnswer 取出 thread 中最新的一条消息作为本轮回答。
func (a *Agent) finalAnswer(ctx context.Context, threadID string) (string, error) {
	messages, err := a.runtime.ListMessages(ctx, threadID, 1)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeAssistantRuntime, err, "读取最终回答失败")
	}
	if len(messages) == 0 {
		return "", xerrors.New(xerrors.CodeFormat, "运行已完成但 thread 中没有消息")
	}

	latest := messages[0]
	if latest.Role != "assistant" {
		return "", xerrors.New(xerrors.CodeFormat,
			fmt.Sprintf("最新消息不是助手回复，而是 %q", latest.Role))
	}
	text, ok := latest.FirstText()
	if !ok {
		return "", xerrors.New(xerrors.CodeFormat, "助手回复缺少文本内容")
	}
	return text, nil
}
