package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/ports"
	"ResearchAgent/internal/textutil"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultMaxContentChars = 5000
	defaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxBodyBytes caps how much of a response is read at all.
	maxBodyBytes = 2 << 20

	titleStart = "<title>"
	titleEnd   = "</title>"
)

// Options tunes the extractor; zero values fall back to defaults.
type Options struct {
	Timeout         time.Duration
	UserAgent       string
	MaxContentChars int
}

// HTTPExtractor fetches pages and reduces them to a title plus a bounded body.
type HTTPExtractor struct {
	client          *http.Client
	userAgent       string
	maxContentChars int
	logger          *slog.Logger
}

var _ ports.ContentExtractor = (*HTTPExtractor)(nil)

// New wires an HTTP client; a nil client gets one bounded by opts.Timeout.
func New(client *http.Client, opts Options, logger *slog.Logger) *HTTPExtractor {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = defaultMaxContentChars
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPExtractor{
		client:          client,
		userAgent:       opts.UserAgent,
		maxContentChars: opts.MaxContentChars,
		logger:          logger,
	}
}

// Extract downloads url. Any failure is folded into an error-typed extraction.
func (e *HTTPExtractor) Extract(ctx context.Context, url string) domain.Extraction {
	body, err := e.fetch(ctx, url)
	if err != nil {
		e.debug("extraction failed", "url", url, "error", err)
		return domain.Extraction{
			Title:       domain.ExtractionErrorTitle,
			Content:     fmt.Sprintf("Failed to extract content from %s: %v", url, err),
			ContentType: domain.ContentError,
		}
	}

	extraction := domain.Extraction{
		Title:       scanTitle(body),
		Content:     textutil.Truncate(body, e.maxContentChars),
		ContentType: domain.ContentWebpage,
	}
	e.debug("extraction done", "url", url, "title", extraction.Title, "chars", utf8.RuneCountInString(extraction.Content))
	return extraction
}

func (e *HTTPExtractor) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("server returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(raw), nil
}

// scanTitle returns the text between the first literal title markers.
// Markup is not parsed, so odd or nested tags may yield a wrong title.
func scanTitle(body string) string {
	start := strings.Index(body, titleStart)
	if start < 0 {
		return domain.UntitledTitle
	}
	rest := body[start+len(titleStart):]
	end := strings.Index(rest, titleEnd)
	if end < 0 {
		return domain.UntitledTitle
	}
	title := strings.TrimSpace(rest[:end])
	if title == "" {
		return domain.UntitledTitle
	}
	return title
}

func (e *HTTPExtractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
