package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/ports"
	"ResearchAgent/internal/textutil"
)

const (
	defaultMaxPromptChars = 3000
	defaultTimeout        = 60 * time.Second
)

var errNoCompleter = errors.New("no LLM provider configured")

// Options bounds the prompt and the inference call.
type Options struct {
	MaxPromptChars int
	Timeout        time.Duration
}

// Engine asks an LLM for a structured summary and always returns a usable one.
type Engine struct {
	completer      ports.Completer
	maxPromptChars int
	timeout        time.Duration
	logger         *slog.Logger
}

var _ ports.Analyzer = (*Engine)(nil)

// New builds an engine around completer.
func New(completer ports.Completer, opts Options, logger *slog.Logger) *Engine {
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = defaultMaxPromptChars
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		completer:      completer,
		maxPromptChars: opts.MaxPromptChars,
		timeout:        opts.Timeout,
		logger:         logger,
	}
}

// Analyze truncates content, prompts the model with apiKey and normalizes the
// reply. Service failures come back as a failure-shaped analysis.
func (e *Engine) Analyze(ctx context.Context, content, apiKey string) domain.Analysis {
	if e.completer == nil {
		return failedAnalysis(errNoCompleter)
	}

	prompt := BuildPrompt(textutil.Truncate(content, e.maxPromptChars))

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	raw, err := e.completer.Complete(callCtx, prompt, apiKey)
	if err != nil {
		e.logger.Warn("llm call failed", "error", err, "elapsed", time.Since(started))
		return failedAnalysis(err)
	}

	parsed := parseReply(raw)
	if _, ok := parsed.(unstructuredReply); ok {
		e.logger.Info("llm reply is not structured, using fallback", "reply_bytes", len(raw))
	}
	e.logger.Debug("llm call finished", "elapsed", time.Since(started))
	return normalize(parsed, raw)
}
