package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Config 描述了 Monad 智能体在启动阶段需要加载的核心配置。
type Config struct {
	Server    ServerConfig    `json:"server"`
	Assistant AssistantConfig `json:"assistant"`
	Web3      Web3Config      `json:"web3"`
	Wallet    WalletConfig    `json:"wallet"`
	Storage   StorageConfig   `json:"storage"`
	Session   SessionConfig   `json:"session"`
	ChatQueue QueueConfig     `json:"chat_queue"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address string `json:"address"`
}

// AssistantConfig 用于配置远程助手运行时的调用方式。
type AssistantConfig struct {
	APIKey             string  `json:"api_key"`
	APIKeyEnv          string  `json:"api_key_env"`
	BaseURL            string  `json:"base_url"`
	Model              string  `json:"model"`
	Temperature        float64 `json:"temperature"`
	Name               string  `json:"name"`
	Instructions       string  `json:"instructions"`
	AssistantID        string  `json:"assistant_id"`
	ThreadID           string  `json:"thread_id"`
	TimeoutSeconds     int     `json:"timeout_seconds"`
	PollIntervalMillis int     `json:"poll_interval_ms"`
}

// Timeout 返回远程调用的超时时间。
func (c AssistantConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval 返回运行状态轮询间隔。
func (c AssistantConfig) PollInterval() time.Duration {
	if c.PollIntervalMillis <= 0 {
		return 0
	}
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// Web3Config 包含访问区块链节点所需的 RPC 地址与代币表。
type Web3Config struct {
	RPCURL       string `json:"rpc_url"`
	TokenCatalog string `json:"token_catalog"`
}

// WalletConfig 描述会话默认使用的钱包上下文。
type WalletConfig struct {
	PrivateKey    string `json:"private_key"`
	PrivateKeyEnv string `json:"private_key_env"`
	Address       string `json:"address"`
}

// StorageConfig 统一描述对话历史存储后端的连接信息。
type StorageConfig struct {
	History HistoryStoreConfig `json:"history"`
}

// HistoryStoreConfig 目前提供内存实现，可切换到 MySQL。
type HistoryStoreConfig struct {
	Driver                 string `json:"driver"`
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `json:"conn_max_idle_time_seconds"`
}

// SessionConfig 控制会话与远端 thread 的映射存储方式。
type SessionConfig struct {
	Driver string             `json:"driver"`
	Redis  RedisSessionConfig `json:"redis"`
}

// RedisSessionConfig 描述 Redis 会话存储的连接参数。
type RedisSessionConfig struct {
	Address    string `json:"address"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Prefix     string `json:"prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// QueueConfig 描述异步对话队列的驱动与消费参数。
type QueueConfig struct {
	Driver   string         `json:"driver"`
	Worker   int            `json:"worker"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RabbitMQConfig 描述 RabbitMQ 队列的连接参数。
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// LogConfig 控制结构化日志输出。
type LogConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths"`
	AuditPath   string   `json:"audit_path"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Assistant.Model == "" {
		c.Assistant.Model = "gpt-4o-mini"
	}
	if c.Assistant.Name == "" {
		c.Assistant.Name = "monad-agent"
	}
	if c.Assistant.PollIntervalMillis <= 0 {
		c.Assistant.PollIntervalMillis = 1000
	}

	if c.Storage.History.Driver == "" {
		c.Storage.History.Driver = "memory"
	}
	if c.Session.Driver == "" {
		c.Session.Driver = "memory"
	}
	if c.ChatQueue.Driver == "" {
		c.ChatQueue.Driver = "memory"
	}
	if c.ChatQueue.Worker <= 0 {
		c.ChatQueue.Worker = 1
	}

	if c.Web3.TokenCatalog != "" && !filepath.IsAbs(c.Web3.TokenCatalog) {
		c.Web3.TokenCatalog = filepath.Join(baseDir, c.Web3.TokenCatalog)
	}
}
