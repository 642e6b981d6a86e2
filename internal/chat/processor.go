package chat

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"Monad-Agent-Kit/internal/agent"
	xerrors "Monad-Agent-Kit/internal/errors"
	"Monad-Agent-Kit/internal/history"
	"Monad-Agent-Kit/pkg/logger"
)

// Asker 定义了处理器所需的智能体能力。
type Asker interface {
	Initialize(ctx context.Context) (agent.Session, error)
	Ask(ctx context.Context, text string) (string, error)
}

// Processor 负责从队列消费任务并交给智能体回答。
type Processor struct {
	asker       Asker
	store       Store
	consumer    Consumer
	producer    Producer
	historyLog  history.Store
	workerCount int
	logger      *slog.Logger
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithProcessorLogger 指定日志输出。
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithHistoryStore 配置问答历史存储，回答成功后落库。
func WithHistoryStore(store history.Store) ProcessorOption {
	return func(p *Processor) {
		p.historyLog = store
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(asker Asker, store Store, consumer Consumer, producer Producer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		asker:       asker,
		store:       store,
		consumer:    consumer,
		producer:    producer,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start 启动任务处理循环。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置任务消费者")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, jobID string) error {
	if p.store == nil || p.asker == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "处理器未初始化")
	}
	job, err := p.store.Claim(ctx, jobID)
	if err != nil {
		if stdErrors.Is(err, ErrJobNotFound) || stdErrors.Is(err, ErrJobCompleted) || stdErrors.Is(err, ErrJobExhausted) {
			p.logDebug("跳过任务", slog.String("job_id", jobID), slog.String("reason", err.Error()))
			return nil
		}
		logger.L().Error("领取任务失败", slog.Any("error", err), slog.String("job_id", jobID))
		return err
	}

	answer, askErr := p.asker.Ask(ctx, job.Question)
	if askErr != nil {
		return p.handleFailure(ctx, job, askErr)
	}

	if err := p.store.MarkSucceeded(ctx, job.ID, answer); err != nil {
		logger.L().Error("标记任务成功状态失败", slog.Any("error", err), slog.String("job_id", job.ID))
		return err
	}
	p.recordExchange(ctx, job, answer)
	logger.Audit().Info("问答任务完成",
		slog.String("job_id", job.ID),
		slog.String("question", job.Question),
	)
	return nil
}

func (p *Processor) handleFailure(ctx context.Context, job *Job, askErr error) error {
	code := xerrors.CodeOf(askErr)
	if code == xerrors.CodeUnknown {
		code = CodeChatProcessing
	}
	retryable := xerrors.RetryableError(askErr)
	terminal := job.Attempts >= job.MaxRetries || !retryable

	if storeErr := p.store.MarkFailed(ctx, job.ID, string(code), askErr.Error(), terminal); storeErr != nil {
		logger.L().Error("标记任务失败状态出错", slog.Any("error", storeErr), slog.String("job_id", job.ID))
		return storeErr
	}
	logger.Audit().Warn("问答任务失败",
		slog.String("job_id", job.ID),
		slog.Bool("terminal", terminal),
		slog.String("error", askErr.Error()),
		slog.String("error_code", string(code)),
		slog.Int("attempts", job.Attempts),
		slog.Int("max_retries", job.MaxRetries),
	)

	if retryable && !terminal {
		if pubErr := p.producer.Publish(ctx, job.ID); pubErr != nil {
			return xerrors.Wrap(CodeChatPublish, pubErr, "任务重投失败")
		}
		p.logDebug("任务已重新排队", slog.String("job_id", job.ID), slog.Int("attempts", job.Attempts))
	}
	return nil
}

// recordExchange 将成功的问答写入历史存储，失败只记日志不影响任务状态。
func (p *Processor) recordExchange(ctx context.Context, job *Job, answer string) {
	if p.historyLog == nil {
		return
	}
	exchange := history.Exchange{
		ID:        job.ID,
		Question:  job.Question,
		Answer:    answer,
		CreatedAt: time.Now().Unix(),
	}
	if session, err := p.asker.Initialize(ctx); err == nil {
		exchange.AssistantID = session.Assistant.ID
		exchange.ThreadID = session.Thread.ID
	}
	if err := p.historyLog.Save(ctx, exchange); err != nil {
		logger.L().Error("写入问答历史失败", slog.Any("error", err), slog.String("job_id", job.ID))
	}
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger == nil {
		return
	}
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	p.logger.Debug(msg, args...)
}
