// Package config defines the gateway's YAML configuration: listen address,
// inbound auth keys, and the upstream provider table the router selects
// targets from. Everything here is read-only after load; hot reload swaps
// whole Config values, never mutates one in place.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvbach/llm-bridge/internal/protocol"
)

// Config is the root configuration document.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// AuthKeys are the inbound API keys accepted by the gateway. Empty
	// means no inbound auth check.
	AuthKeys []string `yaml:"auth-keys,omitempty"`

	// LoggingToFile enables rotating file output instead of stderr.
	LoggingToFile bool `yaml:"logging-to-file,omitempty"`

	// LogDir overrides the log directory when LoggingToFile is set.
	LogDir string `yaml:"log-dir,omitempty"`

	// PromptCache opts every request into prompt-caching directives for
	// Claude-family targets. Per-request opt-in via the X-Prompt-Cache
	// header works regardless.
	PromptCache bool `yaml:"prompt-cache,omitempty"`

	// Providers lists the upstream backends requests can be routed to.
	Providers []Provider `yaml:"providers"`
}

// Provider is one upstream backend.
type Provider struct {
	// Type is the provider's protocol tag: openai, openrouter, groq,
	// anthropic or gemini.
	Type string `yaml:"type"`

	// Name is a display name for this provider instance.
	Name string `yaml:"name,omitempty"`

	// BaseURL is the API endpoint root, e.g. https://api.groq.com/openai/v1.
	BaseURL string `yaml:"base-url"`

	// APIKey authenticates against the upstream.
	APIKey string `yaml:"api-key,omitempty"`

	// Headers adds custom HTTP headers to upstream requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxTokensLimit is the platform max-token ceiling (0 = none).
	MaxTokensLimit int `yaml:"max-tokens-limit,omitempty"`

	// Models lists the models this provider serves. A model's Alias is the
	// name callers use; Name is what the upstream expects.
	Models []ProviderModel `yaml:"models,omitempty"`
}

// ProviderModel maps a caller-facing model name onto the upstream's name.
type ProviderModel struct {
	Name  string `yaml:"name"`
	Alias string `yaml:"alias,omitempty"`
}

// Protocol returns the provider's parsed protocol tag.
func (p *Provider) Protocol() (protocol.Protocol, error) {
	return protocol.Parse(p.Type)
}

// Load reads and validates a Config from path. Environment variables in
// the path are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8318
	}
	for i := range cfg.Providers {
		if _, err := cfg.Providers[i].Protocol(); err != nil {
			return nil, fmt.Errorf("config: provider %d: %w", i, err)
		}
	}
	return cfg, nil
}

// AliasTable builds the per-target model remap tables the translator is
// constructed with: alias (or caller name) -> upstream model name.
func (c *Config) AliasTable() map[protocol.Protocol]map[string]string {
	table := make(map[protocol.Protocol]map[string]string)
	for i := range c.Providers {
		p, err := c.Providers[i].Protocol()
		if err != nil {
			continue
		}
		for _, m := range c.Providers[i].Models {
			if m.Alias == "" || m.Alias == m.Name {
				continue
			}
			if table[p] == nil {
				table[p] = make(map[string]string)
			}
			table[p][m.Alias] = m.Name
		}
	}
	return table
}

// ProviderForModel routes a caller-facing model identifier to a provider.
// Exact match on model name or alias; a provider with no model list is a
// catch-all for names starting with its type tag.
func (c *Config) ProviderForModel(model string) (*Provider, bool) {
	for i := range c.Providers {
		for _, m := range c.Providers[i].Models {
			if m.Name == model || m.Alias == model {
				return &c.Providers[i], true
			}
		}
	}
	for i := range c.Providers {
		if len(c.Providers[i].Models) == 0 && strings.HasPrefix(strings.ToLower(model), c.Providers[i].Type) {
			return &c.Providers[i], true
		}
	}
	return nil, false
}

// UpstreamModel resolves a caller-facing model identifier to the name the
// upstream expects. Unlisted models pass through unchanged.
func (p *Provider) UpstreamModel(model string) string {
	for _, m := range p.Models {
		if m.Alias == model || m.Name == model {
			return m.Name
		}
	}
	return model
}

// AllowKey reports whether an inbound API key is accepted.
func (c *Config) AllowKey(key string) bool {
	if len(c.AuthKeys) == 0 {
		return true
	}
	for _, k := range c.AuthKeys {
		if k == key {
			return true
		}
	}
	return false
}
