package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "monagent.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"assistant":{"api_key":"sk-test"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected server address: %q", cfg.Server.Address)
	}
	if cfg.Assistant.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", cfg.Assistant.Model)
	}
	if cfg.Assistant.PollInterval() != time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.Assistant.PollInterval())
	}
	if cfg.Storage.History.Driver != "memory" || cfg.Session.Driver != "memory" || cfg.ChatQueue.Driver != "memory" {
		t.Fatalf("unexpected storage defaults: %+v", cfg)
	}
	if cfg.ChatQueue.Worker != 1 {
		t.Fatalf("unexpected worker count: %d", cfg.ChatQueue.Worker)
	}
}

func TestLoadResolvesTokenCatalogPath(t *testing.T) {
	path := writeConfig(t, `{"web3":{"token_catalog":"tokens.yaml"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "tokens.yaml")
	if cfg.Web3.TokenCatalog != want {
		t.Fatalf("unexpected token catalog path: %q", cfg.Web3.TokenCatalog)
	}
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
        "server": {"address": ":9090"},
        "assistant": {"model": "gpt-4o", "poll_interval_ms": 200, "timeout_seconds": 30},
        "chat_queue": {"driver": "rabbitmq", "worker": 4}
    }`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":9090" || cfg.Assistant.Model != "gpt-4o" {
		t.Fatalf("explicit values were overwritten: %+v", cfg)
	}
	if cfg.Assistant.PollInterval() != 200*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.Assistant.PollInterval())
	}
	if cfg.Assistant.Timeout() != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Assistant.Timeout())
	}
	if cfg.ChatQueue.Driver != "rabbitmq" || cfg.ChatQueue.Worker != 4 {
		t.Fatalf("unexpected queue config: %+v", cfg.ChatQueue)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
