package ports

import (
	"context"
	"time"

	"ResearchAgent/internal/domain"
)

// ContentExtractor fetches a URL and reduces it to a bounded body plus a title.
// Implementations never fail: fetch problems come back as an error-typed extraction.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) domain.Extraction
}

// Analyzer turns content into a structured summary. It always returns a
// well-shaped result, whatever the upstream failure.
type Analyzer interface {
	Analyze(ctx context.Context, content, apiKey string) domain.Analysis
}

// Completer sends a prompt to an LLM inference service and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, prompt, apiKey string) (string, error)
}

// ResultRepository persists research results.
type ResultRepository interface {
	Append(ctx context.Context, result domain.ResearchResult) (int64, error)
	Complete(ctx context.Context, id int64, extraction domain.Extraction, analysis domain.Analysis, processedAt time.Time) error
	List(ctx context.Context, limit int) ([]domain.ResearchResult, error)
	Get(ctx context.Context, id int64) (domain.ResearchResult, error)
}

// SettingsProvider exposes the single settings record read-only.
type SettingsProvider interface {
	GetSettings(ctx context.Context) (domain.UserSettings, error)
}

// SettingsRepository additionally allows the settings record to be replaced.
type SettingsRepository interface {
	SettingsProvider
	SaveSettings(ctx context.Context, settings domain.UserSettings) error
}

// Notifier announces completed research to an outbound channel.
type Notifier interface {
	PublishResult(ctx context.Context, result domain.ResearchResult) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
