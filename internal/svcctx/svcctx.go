// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/wandr/internal/calllog"
	"github.com/jackzampolin/wandr/internal/config"
	"github.com/jackzampolin/wandr/internal/home"
	"github.com/jackzampolin/wandr/internal/notion"
	"github.com/jackzampolin/wandr/internal/pipeline"
	"github.com/jackzampolin/wandr/internal/prompts"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Logger        *slog.Logger
	ConfigManager *config.Manager
	Home          *home.Dir
	Orchestrator  *pipeline.Orchestrator
	Batch         *pipeline.BatchRunner
	Notion        *notion.Client
	Recorder      *calllog.Recorder
	Prompts       *prompts.Resolver
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// OrchestratorFrom extracts the pipeline orchestrator from context.
func OrchestratorFrom(ctx context.Context) *pipeline.Orchestrator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Orchestrator
	}
	return nil
}

// BatchFrom extracts the batch runner from context.
func BatchFrom(ctx context.Context) *pipeline.BatchRunner {
	if s := ServicesFrom(ctx); s != nil {
		return s.Batch
	}
	return nil
}

// NotionFrom extracts the Notion client from context. Nil when the
// store is not configured.
func NotionFrom(ctx context.Context) *notion.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Notion
	}
	return nil
}

// RecorderFrom extracts the call log recorder from context.
func RecorderFrom(ctx context.Context) *calllog.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Recorder
	}
	return nil
}

// PromptsFrom extracts the prompt resolver from context.
func PromptsFrom(ctx context.Context) *prompts.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.Prompts
	}
	return nil
}
