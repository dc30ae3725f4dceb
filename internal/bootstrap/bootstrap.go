// Package bootstrap provides application initialization for CLI commands.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvbach/llm-bridge/internal/api"
	"github.com/nvbach/llm-bridge/internal/config"
	log "github.com/nvbach/llm-bridge/internal/logging"
	"github.com/nvbach/llm-bridge/internal/translator"
	"github.com/nvbach/llm-bridge/internal/upstream"
)

// Result holds the wired components a command runs with.
type Result struct {
	Config         *config.Config
	ConfigFilePath string
	Server         *api.Server
	Translator     *translator.Translator
}

// Bootstrap loads configuration and wires the translator, upstream client
// and HTTP server together.
func Bootstrap(configPath string) (*Result, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		configPath = filepath.Join(wd, "config.yaml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	ApplyEnvOverrides(cfg)

	tr := translator.New(translator.Options{Aliases: cfg.AliasTable()})
	server := api.NewServer(cfg, tr, upstream.NewClient())

	return &Result{
		Config:         cfg,
		ConfigFilePath: configPath,
		Server:         server,
		Translator:     tr,
	}, nil
}

// ApplyEnvOverrides applies environment variable overrides for cloud
// deployment.
func ApplyEnvOverrides(cfg *config.Config) {
	if port, ok := lookupEnvInt("LLM_BRIDGE_PORT"); ok {
		cfg.Port = port
		log.Infof("Port overridden by env: %d", port)
	}

	if keys, ok := os.LookupEnv("LLM_BRIDGE_API_KEYS"); ok {
		cfg.AuthKeys = nil
		for _, k := range strings.Split(keys, ",") {
			if trimmed := strings.TrimSpace(k); trimmed != "" {
				cfg.AuthKeys = append(cfg.AuthKeys, trimmed)
			}
		}
		log.Infof("API keys overridden by env: %d keys", len(cfg.AuthKeys))
	}

	if toFile, ok := lookupEnvBool("LLM_BRIDGE_LOGGING_TO_FILE"); ok {
		cfg.LoggingToFile = toFile
		log.Infof("Logging to file overridden by env: %v", toFile)
	}

	if cache, ok := lookupEnvBool("LLM_BRIDGE_PROMPT_CACHE"); ok {
		cfg.PromptCache = cache
		log.Infof("Prompt cache overridden by env: %v", cache)
	}
}

func lookupEnvInt(key string) (int, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupEnvBool(key string) (bool, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return b, true
}
