package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
port: 9000
auth-keys:
  - sk-test-1
providers:
  - type: anthropic
    base-url: https://api.anthropic.com
    api-key: sk-ant
    models:
      - name: claude-3-5-sonnet-latest
        alias: gpt-4
  - type: groq
    base-url: https://api.groq.com/openai/v1
    api-key: gsk-x
    max-tokens-limit: 8192
    models:
      - name: llama-3.3-70b-versatile
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Port)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(cfg.Providers))
	}
	if cfg.Providers[1].MaxTokensLimit != 8192 {
		t.Errorf("max-tokens-limit = %d, want 8192", cfg.Providers[1].MaxTokensLimit)
	}
}

func TestLoadRejectsUnknownProtocol(t *testing.T) {
	_, err := Load(writeConfig(t, "providers:\n  - type: cohere\n    base-url: https://x\n"))
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestAliasTable(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	table := cfg.AliasTable()
	anthropic := table["anthropic"]
	if anthropic["gpt-4"] != "claude-3-5-sonnet-latest" {
		t.Errorf("alias table = %v, want gpt-4 -> claude-3-5-sonnet-latest", anthropic)
	}
	if _, ok := table["groq"]; ok {
		t.Error("providers without aliases must not appear in the table")
	}
}

func TestProviderForModel(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := cfg.ProviderForModel("gpt-4"); !ok || p.Type != "anthropic" {
		t.Errorf("gpt-4 should route to anthropic via alias, got %+v", p)
	}
	if p, ok := cfg.ProviderForModel("llama-3.3-70b-versatile"); !ok || p.Type != "groq" {
		t.Errorf("exact name should route to groq, got %+v", p)
	}
	if _, ok := cfg.ProviderForModel("unknown-model"); ok {
		t.Error("unknown models must not route anywhere")
	}
}

func TestAllowKey(t *testing.T) {
	cfg := &Config{AuthKeys: []string{"sk-test-1"}}
	if !cfg.AllowKey("sk-test-1") {
		t.Error("configured key must be accepted")
	}
	if cfg.AllowKey("nope") {
		t.Error("unknown key must be rejected")
	}
	open := &Config{}
	if !open.AllowKey("anything") {
		t.Error("empty key list disables the check")
	}
}
