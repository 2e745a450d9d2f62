package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/navvy-ai/navvy"
	"github.com/navvy-ai/navvy/capabilities"
	"github.com/navvy-ai/navvy/config"
	"github.com/navvy-ai/navvy/conversation"
	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/logging"
	"github.com/navvy-ai/navvy/model"
	"github.com/navvy-ai/navvy/model/anthropic"
	"github.com/navvy-ai/navvy/model/openai"
	"github.com/navvy-ai/navvy/sandbox"
)

func newLogger(cfg *config.Config) logging.Logger {
	level := logging.LogLevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = logging.LogLevelDebug
	case "warn":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    "text",
		Output:    os.Stderr,
		Component: "navvy",
	})
}

func newStore(cfg *config.Config) (core.Store, error) {
	if cfg.Store.Driver == "sqlite" {
		path := cfg.Store.Path
		if path == "" {
			path = "navvy.db"
		}
		return conversation.NewSQLiteStore(path)
	}
	return conversation.NewInMemoryStore(), nil
}

// buildNavvy assembles a runtime from the configuration: store, sandbox,
// logger and one provider adapter per configured model name.
func buildNavvy(cfg *config.Config) (*navvy.Navvy, error) {
	logger := newLogger(cfg)

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var executor sandbox.Executor
	if cfg.Sandbox.Dir != "" {
		local, err := sandbox.NewLocal(cfg.Sandbox.Dir, func(o *sandbox.LocalOptions) {
			if cfg.Sandbox.CommandTimeoutSec > 0 {
				o.DefaultTimeout = time.Duration(cfg.Sandbox.CommandTimeoutSec) * time.Second
			}
			o.Logger = logger
		})
		if err != nil {
			return nil, fmt.Errorf("open sandbox: %w", err)
		}
		executor = local
	}

	n := navvy.New(func(o *navvy.Options) {
		o.Store = store
		o.Sandbox = executor
		o.Logger = logger
		o.MaxAttempts = cfg.Run.MaxAttempts
		o.DefaultModel = cfg.Models.Default
		if cfg.Models.Completions != "" {
			o.Capabilities = capabilities.Default(func(co *capabilities.Options) {
				co.Completions = providerFor(cfg.Models.Completions, cfg)
			})
		}
	})

	for _, name := range configuredModels(cfg) {
		n.RegisterModel(name, providerFor(name, cfg))
	}
	return n, nil
}

func configuredModels(cfg *config.Config) []string {
	names := []string{}
	if cfg.Models.Default != "" {
		names = append(names, cfg.Models.Default)
	}
	if cfg.Models.Completions != "" && cfg.Models.Completions != cfg.Models.Default {
		names = append(names, cfg.Models.Completions)
	}
	return names
}

// providerFor picks the adapter by model name: claude-style names go to
// Anthropic, everything else to the OpenAI-compatible adapter.
func providerFor(name string, cfg *config.Config) model.Model {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "claude") || strings.Contains(lower, "anthropic") {
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
			if cfg.Anthropic.APIKey != "" {
				o.APIKey = cfg.Anthropic.APIKey
			}
		})
	}
	return openai.NewModel(func(o *openai.Options) {
		o.Model = name
		if cfg.OpenAI.APIKey != "" {
			o.APIKey = cfg.OpenAI.APIKey
		}
		if cfg.OpenAI.BaseURL != "" {
			o.BaseURL = cfg.OpenAI.BaseURL
		}
	})
}
