// Package chat queues natural-language questions for asynchronous execution
// by the agent and tracks each job through its lifecycle.
package chat

import (
	xerrors "Monad-Agent-Kit/internal/errors"
)

// Status 表示问答任务在生命周期中的状态。
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job 描述了排队等待智能体回答的问题。
type Job struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	SessionKey string `json:"session_key,omitempty"`
	Status     Status `json:"status"`
	Attempts   int    `json:"attempts"`
	MaxRetries int    `json:"max_retries"`
	LastError  string `json:"last_error,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	Answer     string `json:"answer,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

var (
	// ErrJobNotFound 表示指定的问答任务不存在。
	ErrJobNotFound = xerrors.New(CodeChatNotFound, "chat job not found")
	// ErrJobConflict 表示任务在当前状态下无法进行所请求的操作。
	ErrJobConflict = xerrors.New(CodeChatConflict, "chat job conflict", xerrors.WithSeverity(xerrors.SeverityWarning))
	// ErrJobCompleted 表示任务已经成功完成。
	ErrJobCompleted = xerrors.New(CodeChatCompleted, "chat job already completed", xerrors.WithSeverity(xerrors.SeverityInfo))
	// ErrJobExhausted 表示任务的重试次数已经耗尽。
	ErrJobExhausted = xerrors.New(CodeChatExhausted, "chat job retries exhausted", xerrors.WithSeverity(xerrors.SeverityCritical))
)

const (
	CodeChatNotFound   xerrors.Code = "CHAT_NOT_FOUND"
	CodeChatConflict   xerrors.Code = "CHAT_CONFLICT"
	CodeChatCompleted  xerrors.Code = "CHAT_COMPLETED"
	CodeChatExhausted  xerrors.Code = "CHAT_RETRIES_EXHAUSTED"
	CodeChatValidation xerrors.Code = "CHAT_VALIDATION_FAILED"
	CodeChatPublish    xerrors.Code = "CHAT_PUBLISH_FAILED"
	CodeChatProcessing xerrors.Code = "CHAT_PROCESSING_FAILED"
)

func init() {
	xerrors.Register(CodeChatNotFound, xerrors.Attributes{
		Message:   "chat job not found",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeChatConflict, xerrors.Attributes{
		Message:   "chat job conflict",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeChatCompleted, xerrors.Attributes{
		Message:   "chat job already completed",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeChatExhausted, xerrors.Attributes{
		Message:   "chat job retries exhausted",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeChatValidation, xerrors.Attributes{
		Message:   "chat job validation failed",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeChatPublish, xerrors.Attributes{
		Message:   "failed to publish chat job",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeChatProcessing, xerrors.Attributes{
		Message:   "chat job execution failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     true,
	})
}

// IsValidStatus 检查给定的任务状态是否为支持的枚举值。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}
