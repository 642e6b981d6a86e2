package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"Monad-Agent-Kit/internal/agent"
	"Monad-Agent-Kit/internal/api"
	"Monad-Agent-Kit/internal/assistant/openai"
	"Monad-Agent-Kit/internal/chat"
	"Monad-Agent-Kit/internal/config"
	"Monad-Agent-Kit/internal/history"
	"Monad-Agent-Kit/internal/session"
	"Monad-Agent-Kit/internal/storage/mysql"
	"Monad-Agent-Kit/internal/tools"
	"Monad-Agent-Kit/internal/tools/balance"
	"Monad-Agent-Kit/internal/wallet"
	"Monad-Agent-Kit/internal/web3"
	"Monad-Agent-Kit/internal/web3/ethereum"
	"Monad-Agent-Kit/pkg/logger"
)

// defaultSessionKey 是守护进程绑定的会话标识，重启后据此续接 thread。
const defaultSessionKey = "default"

// main 是 Monad 智能体守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("monagentd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("MONAGENT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "monagent.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
		AuditPath:   cfg.Log.AuditPath,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	// 钱包上下文是可选的，缺省时余额工具必须显式收到地址。
	w, err := buildWallet(cfg.Wallet)
	if err != nil {
		return err
	}

	reader, err := ethereum.NewClient(ctx, ethereum.Config{RPCURL: cfg.Web3.RPCURL})
	if err != nil {
		return err
	}
	defer reader.Close()

	catalog, err := web3.LoadTokenCatalog(cfg.Web3.TokenCatalog)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	balance.Register(registry, balance.Config{Reader: reader, Catalog: catalog})

	runtime, err := buildRuntime(cfg.Assistant)
	if err != nil {
		return err
	}

	sessions, err := buildSessionStore(cfg.Session)
	if err != nil {
		return err
	}
	defer sessions.Close()

	assistantID := cfg.Assistant.AssistantID
	threadID := cfg.Assistant.ThreadID
	if record, ok, loadErr := sessions.Load(ctx, defaultSessionKey); loadErr != nil {
		return loadErr
	} else if ok {
		if record.AssistantID != "" {
			assistantID = record.AssistantID
		}
		if record.ThreadID != "" {
			threadID = record.ThreadID
		}
	}

	ag := agent.New(runtime, registry,
		agent.WithModel(cfg.Assistant.Model),
		agent.WithName(cfg.Assistant.Name),
		agent.WithInstructions(cfg.Assistant.Instructions),
		agent.WithTemperature(cfg.Assistant.Temperature),
		agent.WithAssistantID(assistantID),
		agent.WithThreadID(threadID),
		agent.WithWallet(w),
		agent.WithPollInterval(cfg.Assistant.PollInterval()),
	)

	resolved, err := ag.Initialize(ctx)
	if err != nil {
		return err
	}
	if err := sessions.Save(ctx, defaultSessionKey, session.Record{
		AssistantID: resolved.Assistant.ID,
		ThreadID:    resolved.Thread.ID,
	}); err != nil {
		return err
	}

	histories, err := buildHistoryStore(ctx, cfg.Storage.History)
	if err != nil {
		return err
	}
	defer histories.Close()

	queue, err := buildChatQueue(cfg.ChatQueue)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Printf("关闭问答队列失败: %v", err)
		}
	}()

	chatStore := chat.NewMemoryStore()
	chats := chat.NewService(chatStore, queue, 0)
	processor := chat.NewProcessor(ag, chatStore, queue, queue,
		chat.WithWorkerCount(cfg.ChatQueue.Worker),
		chat.WithHistoryStore(histories),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()

	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("问答处理器异常退出: %v", err)
		}
	}()

	server := api.NewServer(cfg.Server.Address, ag, chats, histories)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildWallet(cfg config.WalletConfig) (*wallet.Wallet, error) {
	privateKey := strings.TrimSpace(cfg.PrivateKey)
	if privateKey == "" && cfg.PrivateKeyEnv != "" {
		privateKey = strings.TrimSpace(os.Getenv(cfg.PrivateKeyEnv))
	}
	if privateKey != "" {
		return wallet.NewFromPrivateKey(privateKey)
	}
	if strings.TrimSpace(cfg.Address) != "" {
		return wallet.NewReadOnly(cfg.Address)
	}
	return nil, nil
}

func buildRuntime(cfg config.AssistantConfig) (*openai.Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.APIKeyEnv != "" {
		apiKey = strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	}
	if apiKey == "" {
		return nil, errors.New("助手运行时需要配置 api_key 或 api_key_env")
	}
	return openai.NewClient(openai.Config{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout(),
	})
}

func buildSessionStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return session.NewMemoryStore(time.Duration(cfg.Redis.TTLSeconds) * time.Second), nil
	case "redis":
		return session.NewRedisStore(session.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      time.Duration(cfg.Redis.TTLSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("未知的会话存储驱动: %s", cfg.Driver)
	}
}

func buildHistoryStore(ctx context.Context, cfg config.HistoryStoreConfig) (history.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return history.NewMemoryStore(), nil
	case "mysql":
		return mysql.NewExchangeRepository(ctx, mysql.Config{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("未知的历史存储驱动: %s", cfg.Driver)
	}
}

func buildChatQueue(cfg config.QueueConfig) (chat.Queue, error) {
	switch cfg.Driver {
	case "", "memory":
		return chat.NewMemoryQueue(1024), nil
	case "rabbitmq":
		return chat.NewRabbitMQQueue(chat.RabbitMQConfig{
			URL:        cfg.RabbitMQ.URL,
			Queue:      cfg.RabbitMQ.Queue,
			Prefetch:   cfg.RabbitMQ.Prefetch,
			Durable:    cfg.RabbitMQ.Durable,
			AutoDelete: cfg.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("未知的队列驱动: %s", cfg.Driver)
	}
}
