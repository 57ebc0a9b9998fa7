package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ResearchAgent/internal/apperr"
	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/ports"
)

// PipelineDeps wires all driven adapters into the research pipeline.
type PipelineDeps struct {
	Extractor  ports.ContentExtractor
	Analyzer   ports.Analyzer
	Repository ports.ResultRepository
	Settings   ports.SettingsProvider
	Notifier   ports.Notifier
	Logger     *slog.Logger
	Clock      func() time.Time
}

// SubmitOutput is returned to the caller once a submission has completed.
type SubmitOutput struct {
	ID     int64                   `json:"id"`
	Status domain.ProcessingStatus `json:"status"`
}

// Pipeline runs extract, analyze and persist for one URL at a time.
type Pipeline struct {
	extractor  ports.ContentExtractor
	analyzer   ports.Analyzer
	repository ports.ResultRepository
	settings   ports.SettingsProvider
	notifier   ports.Notifier
	logger     *slog.Logger
	clock      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		extractor:  deps.Extractor,
		analyzer:   deps.Analyzer,
		repository: deps.Repository,
		settings:   deps.Settings,
		notifier:   deps.Notifier,
		logger:     logger,
		clock:      clock,
	}
}

// Submit processes url synchronously. Extraction and analysis failures end up
// inside the stored result; only missing credentials, store failures and
// unexpected panics are returned as errors.
func (p *Pipeline) Submit(ctx context.Context, url string) (out SubmitOutput, err error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return SubmitOutput{}, apperr.NewInvalidRequest("url is required")
	}

	// Once accepted, a submission runs to the end even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("submission panicked", "url", url, "panic", r)
			out, err = SubmitOutput{}, apperr.NewSubmissionFailed(fmt.Errorf("panic: %v", r))
		}
	}()

	settings, err := p.settings.GetSettings(ctx)
	if err != nil {
		return SubmitOutput{}, apperr.NewPersistenceFailure("load settings", err)
	}
	if !settings.HasAPIKey() {
		return SubmitOutput{}, apperr.NewMissingCredential()
	}

	id, err := p.repository.Append(ctx, domain.ResearchResult{
		URL:         url,
		Title:       domain.PendingTitle,
		ContentType: domain.ContentWebpage,
		Status:      domain.StatusPending,
	})
	if err != nil {
		return SubmitOutput{}, apperr.NewPersistenceFailure("append result", err)
	}
	logger := p.logger.With("id", id, "url", url)
	logger.Info("submission accepted")

	extraction := p.extractor.Extract(ctx, url)
	if extraction.Failed() {
		logger.Warn("extraction failed, analyzing error text", "content", extraction.Content)
	}

	analysis := p.analyzer.Analyze(ctx, extraction.Content, settings.APIKey)

	processedAt := p.clock().UTC()
	if err := p.repository.Complete(ctx, id, extraction, analysis, processedAt); err != nil {
		return SubmitOutput{}, apperr.NewPersistenceFailure("complete result", err)
	}
	logger.Info("submission completed", "content_type", extraction.ContentType)

	p.notify(ctx, id, url, extraction, analysis, processedAt)

	return SubmitOutput{ID: id, Status: domain.StatusCompleted}, nil
}

func (p *Pipeline) notify(ctx context.Context, id int64, url string, extraction domain.Extraction, analysis domain.Analysis, processedAt time.Time) {
	if p.notifier == nil {
		return
	}
	result := domain.ResearchResult{
		ID:              id,
		URL:             url,
		Title:           extraction.Title,
		ContentType:     extraction.ContentType,
		Summary:         analysis.Summary,
		KeyInsights:     analysis.KeyInsights,
		ActionableItems: analysis.ActionableItems,
		Status:          domain.StatusCompleted,
		ProcessedAt:     &processedAt,
	}
	if err := p.notifier.PublishResult(ctx, result); err != nil {
		p.logger.Warn("notify failed", "id", id, "error", err)
	}
}

// ListResults returns up to limit results, newest first.
func (p *Pipeline) ListResults(ctx context.Context, limit int) ([]domain.ResearchResult, error) {
	results, err := p.repository.List(ctx, limit)
	if err != nil {
		return nil, apperr.NewPersistenceFailure("list results", err)
	}
	return results, nil
}

// GetResult loads one result by id.
func (p *Pipeline) GetResult(ctx context.Context, id int64) (domain.ResearchResult, error) {
	result, err := p.repository.Get(ctx, id)
	if errors.Is(err, domain.ErrResultNotFound) {
		return domain.ResearchResult{}, apperr.NewNotFound(id)
	}
	if err != nil {
		return domain.ResearchResult{}, apperr.NewPersistenceFailure("get result", err)
	}
	return result, nil
}
